//
// Copyright 2019-2020 Nestybox, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package reload implements Reload Signaling (spec.md §4.9): an external
// trigger (SIGUSR1) is translated into a single byte on a self-pipe, and a
// reader goroutine drains that pipe and invokes the catalog loader on its
// own schedule, away from signal context.
package reload

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/nestybox/mountbrokerd/domain"
)

// Watcher owns the self-pipe and the goroutine reading it.
type Watcher struct {
	catalog domain.CatalogIface

	sigChan chan os.Signal
	pipeR   *os.File
	pipeW   *os.File

	done chan struct{}
}

// New builds a Watcher for catalog. Call Start to begin watching.
func New(catalog domain.CatalogIface) (*Watcher, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		catalog: catalog,
		sigChan: make(chan os.Signal, 1),
		pipeR:   r,
		pipeW:   w,
		done:    make(chan struct{}),
	}, nil
}

// Start installs the SIGUSR1 handler and launches the self-pipe reader. The
// signal handler itself is signal.Notify's channel send, which is safe to
// occur from signal context; everything downstream (including the actual
// pipe write) runs on an ordinary goroutine.
func (w *Watcher) Start() {
	signal.Notify(w.sigChan, syscall.SIGUSR1)
	go w.relaySignals()
	go w.readLoop()
}

// Stop tears down the signal registration and closes the pipe, unblocking
// readLoop's Read.
func (w *Watcher) Stop() {
	signal.Stop(w.sigChan)
	close(w.done)
	w.pipeW.Close()
	w.pipeR.Close()
}

// relaySignals turns each delivered SIGUSR1 into a single byte written to
// the self-pipe, and nothing else: all the real work happens in readLoop.
func (w *Watcher) relaySignals() {
	for {
		select {
		case <-w.sigChan:
			if _, err := w.pipeW.Write([]byte{0}); err != nil {
				return
			}
		case <-w.done:
			return
		}
	}
}

// readLoop is the scheduled reader: every byte it drains from the pipe
// triggers exactly one catalog reload, on this goroutine rather than in
// signal context.
func (w *Watcher) readLoop() {
	buf := make([]byte, 1)
	for {
		_, err := w.pipeR.Read(buf)
		if err != nil {
			return
		}

		logrus.Info("reload: SIGUSR1 received, reloading mountable catalog")
		if err := w.catalog.Reload(); err != nil {
			logrus.Warnf("reload: catalog reload failed: %v", err)
		}
	}
}
