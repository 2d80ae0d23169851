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

// Package spawn implements the Spawn Coordinator (spec.md §4.5): it turns a
// MountableDescriptor into a live org.gtk.vfs.Mountable peer, either by
// calling straight into an already-running helper's bus name (Path A) or by
// executing the helper and waiting for its Spawner handshake (Path B).
package spawn

import (
	"context"
	"os/exec"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/wire"
)

// MountTimeoutMsecs is the default mount timeout in milliseconds (spec.md
// §6). Nothing in this package reads it: the Mount call is bounded by the
// deadline of the context the caller passes to Service.Mount.
const MountTimeoutMsecs = 300000

// DefaultSpawnTimeout bounds how long the coordinator waits for a spawned
// helper's Spawner.Spawned handshake before giving up (open question O1).
const DefaultSpawnTimeout = 30 * time.Second

var _ domain.SpawnServiceIface = (*Service)(nil)

// Service is the process-wide Spawn Coordinator. One Service is shared by
// every Mount request; per-request state lives in the counter-indexed
// Spawner object exported for the duration of a single handshake.
type Service struct {
	conn         *dbus.Conn
	spawnTimeout time.Duration
	counter      uint64

	// execCommand is overridable in tests so Path B never actually forks a
	// process.
	execCommand func(name string, arg ...string) *exec.Cmd
}

// New builds a Spawn Coordinator bound to conn. A spawnTimeout of zero
// selects DefaultSpawnTimeout.
func New(conn *dbus.Conn, spawnTimeout time.Duration) *Service {
	if spawnTimeout <= 0 {
		spawnTimeout = DefaultSpawnTimeout
	}
	return &Service{
		conn:         conn,
		spawnTimeout: spawnTimeout,
		execCommand:  exec.Command,
	}
}

// Mount resolves descriptor to a live peer and forwards the Mount RPC to
// it. Path A (dbus_name set) calls straight through; Path B (exec set)
// spawns the helper and waits for its Spawner.Spawned callback before
// making the same call against the sender bus name that called back
// (original_source daemon/mount.c's mountable_mount).
func (s *Service) Mount(
	ctx context.Context,
	descriptor *domain.MountableDescriptor,
	spec domain.MountSpecIface,
	source domain.SourceRef,
	automount bool,
) error {
	if descriptor.DBusName != "" {
		return s.callMount(ctx, descriptor.DBusName, spec, source, automount)
	}

	if descriptor.Exec == "" {
		return domain.NewBrokerError(domain.Failed, "no exec key defined for mountable %q", descriptor.Type)
	}

	peer, err := s.spawnAndHandshake(ctx, descriptor)
	if err != nil {
		return err
	}

	return s.callMount(ctx, peer, spec, source, automount)
}

// callMount invokes org.gtk.vfs.Mountable.Mount on busName (invariant: the
// helper's Mountable object is always exported at wire.MountableObjectPath,
// spec.md §4.5).
func (s *Service) callMount(
	ctx context.Context,
	busName string,
	spec domain.MountSpecIface,
	source domain.SourceRef,
	automount bool,
) error {
	obj := s.conn.Object(busName, wire.MountableObjectPath)

	specWire := wire.MountSpecStruct{Type: spec.Type(), Fields: spec.Fields()}
	sourceWire := wire.EncodeSourceRef(source)

	call := obj.CallWithContext(ctx, wire.MountInterface+".Mount", 0, specWire, automount, sourceWire)
	if call.Err != nil {
		return domain.NewBrokerError(domain.Failed, "%s", call.Err)
	}
	return nil
}

// spawnAndHandshake execs descriptor.Exec with a fresh Spawner object path,
// waits for the one-shot Spawned callback, and returns the bus name the
// helper called back from (spec.md §4.5 steps 1-4, scenario S3).
func (s *Service) spawnAndHandshake(ctx context.Context, descriptor *domain.MountableDescriptor) (string, error) {
	id := atomic.AddUint64(&s.counter, 1) - 1
	objPath := dbus.ObjectPath(wire.SpawnObjectPathPrefix + strconv.FormatUint(id, 10))

	sp := newSpawner()
	if err := s.conn.Export(sp, objPath, wire.SpawnerInterface); err != nil {
		return "", domain.NewBrokerError(domain.Failed, "exporting spawner: %s", err)
	}
	defer s.conn.Export(nil, objPath, wire.SpawnerInterface)

	name, args := spawnCommandLine(descriptor.Exec, s.conn.Names()[0], objPath)
	cmd := s.execCommand(name, args...)
	if err := cmd.Start(); err != nil {
		return "", domain.NewBrokerError(domain.Failed, "spawning %q: %s", descriptor.Exec, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.spawnTimeout)
	defer cancel()

	select {
	case res := <-sp.result:
		if !res.succeeded {
			return "", domain.NewBrokerError(domain.Failed, "%s", res.errorMessage)
		}
		return res.sender, nil

	case <-timeoutCtx.Done():
	}

	logrus.Warnf("spawn: helper %q did not call Spawned within %s", descriptor.Exec, s.spawnTimeout)
	return "", domain.NewBrokerError(domain.Failed, "helper %q did not complete its spawn handshake in time", descriptor.Exec)
}

// spawnCommandLine builds the argv for launching a mountable helper: the
// exec string is concatenated with --spawner <name> <objPath> and the whole
// line is handed to a shell to parse, mirroring
// g_spawn_command_line_async(exec, ...) in original_source daemon/mount.c.
// descriptor.Exec is never treated as a literal argv[0], so an Exec= value
// that itself carries arguments still execs correctly.
func spawnCommandLine(execLine, name string, objPath dbus.ObjectPath) (string, []string) {
	commandLine := execLine + " --spawner " + name + " " + string(objPath)
	return "/bin/sh", []string{"-c", commandLine}
}
