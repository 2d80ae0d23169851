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

// Package busconn holds the small D-Bus-connection-level helpers the broker
// needs beyond plain method export: peer-liveness watches. One background goroutine per watch dispatches
// NameOwnerChanged signals, the same single-goroutine-drains-a-channel
// shape nsenter's zombie reaper uses for its own one-shot completions.
package busconn

import (
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/nestybox/mountbrokerd/domain"
)

var _ domain.WatcherHandle = (*PeerWatch)(nil)

// PeerWatch is a live subscription for one peer's disappearance
// (spec.md §4.8).
type PeerWatch struct {
	conn      *dbus.Conn
	peerID    string
	ch        chan *dbus.Signal
	matchOpts []dbus.MatchOption

	once sync.Once
	done chan struct{}
}

// WatchPeer installs a NameOwnerChanged watch on peerID and calls onVanished
// exactly once, the first time peerID's owner becomes the empty string
// (i.e. the peer disconnected from the bus).
func WatchPeer(conn *dbus.Conn, peerID string, onVanished func()) (*PeerWatch, error) {
	matchOpts := []dbus.MatchOption{
		dbus.WithMatchInterface("org.freedesktop.DBus"),
		dbus.WithMatchMember("NameOwnerChanged"),
		dbus.WithMatchArg(0, peerID),
	}

	if err := conn.AddMatchSignal(matchOpts...); err != nil {
		return nil, err
	}

	w := &PeerWatch{
		conn:      conn,
		peerID:    peerID,
		ch:        make(chan *dbus.Signal, 4),
		matchOpts: matchOpts,
		done:      make(chan struct{}),
	}
	conn.Signal(w.ch)

	go w.loop(onVanished)

	return w, nil
}

func (w *PeerWatch) loop(onVanished func()) {
	for {
		select {
		case sig, ok := <-w.ch:
			if !ok {
				return
			}
			if sig.Name != "org.freedesktop.DBus.NameOwnerChanged" || len(sig.Body) != 3 {
				continue
			}

			name, _ := sig.Body[0].(string)
			newOwner, _ := sig.Body[2].(string)
			if name != w.peerID || newOwner != "" {
				continue
			}

			logrus.Debugf("peer %s vanished from the bus", w.peerID)
			onVanished()
			w.Cancel()
			return

		case <-w.done:
			return
		}
	}
}

// Cancel stops the watch without invoking onVanished; the watch loop also
// calls it after onVanished has run. Safe to call more than once and safe
// to call after the watch already fired.
func (w *PeerWatch) Cancel() {
	w.once.Do(func() {
		close(w.done)
		w.conn.RemoveSignal(w.ch)
		_ = w.conn.RemoveMatchSignal(w.matchOpts...)
	})
}
