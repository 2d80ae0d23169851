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

// Package prompt implements the Prompt Relay (spec.md §4.6): it exports a
// per-request D-Bus object a helper calls into for interactive prompts, and
// translates each inbound call into one local event on a domain.Handle.
// Dispatch is keyed by inbound method name the same way ipc/apis.go's
// CallbacksMap dispatches gRPC calls onto the container state service — here
// the indirection collapses onto godbus's reflection-based Export, since a
// D-Bus method must be a concrete exported Go method rather than a map
// entry, but the one-event-per-inbound-call shape is the same.
package prompt

import (
	"strconv"
	"sync/atomic"

	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/wire"
)

var counter uint64

// Relay is the exported MountOperation object for a single wrapped handle.
type Relay struct {
	handle domain.Handle
	conn   *dbus.Conn
	path   dbus.ObjectPath
}

// Wrap exports a fresh Relay for handle on conn and returns the source
// reference a helper uses to call back into it. A nil handle produces the
// dummy reference (spec.md §4.7) without exporting anything.
func Wrap(conn *dbus.Conn, handle domain.Handle) (*Relay, domain.SourceRef) {
	if handle == nil {
		return nil, domain.DummySourceRef
	}

	id := atomic.AddUint64(&counter, 1)
	objPath := dbus.ObjectPath("/org/gtk/vfs/mountoperation/" + strconv.FormatUint(id, 10))

	r := &Relay{handle: handle, conn: conn, path: objPath}
	conn.Export(r, objPath, wire.MountOperationInterface)

	return r, domain.SourceRef{PeerID: busName(conn), ObjectPath: string(objPath)}
}

// Close unexports the Relay's object. Callers invoke this when the wrapped
// handle is destroyed (spec.md §4.6 Lifetime).
func (r *Relay) Close() {
	if r == nil {
		return
	}
	r.conn.Export(nil, r.path, wire.MountOperationInterface)
}

// AskPassword is the inbound op; handled/aborted are derived from the
// handle's one-shot reply, and empty credential strings are never nil
// (spec.md §4.6).
func (r *Relay) AskPassword(message, defaultUser, defaultDomain string, flagsAsInt uint32) (bool, bool, string, string, string, bool, int32, *dbus.Error) {
	replyCh := make(chan domain.PasswordReply, 1)
	r.handle.AskPassword(message, defaultUser, defaultDomain, domain.AskPasswordFlags(flagsAsInt), func(pr domain.PasswordReply) {
		replyCh <- pr
	})
	pr := <-replyCh

	return pr.Result != domain.ReplyUnhandled, pr.Result == domain.ReplyAborted,
		pr.Password, pr.Username, pr.Domain, pr.Anonymous, pr.PasswordSave, nil
}

func (r *Relay) AskQuestion(message string, choices []string) (bool, bool, int32, *dbus.Error) {
	replyCh := make(chan domain.ChoiceReply, 1)
	r.handle.AskQuestion(message, choices, func(cr domain.ChoiceReply) {
		replyCh <- cr
	})
	cr := <-replyCh

	return cr.Result != domain.ReplyUnhandled, cr.Result == domain.ReplyAborted, cr.Choice, nil
}

func (r *Relay) ShowProcesses(message string, choices []string, pids []int32) (bool, bool, int32, *dbus.Error) {
	replyCh := make(chan domain.ChoiceReply, 1)
	r.handle.ShowProcesses(message, choices, pids, func(cr domain.ChoiceReply) {
		replyCh <- cr
	})
	cr := <-replyCh

	return cr.Result != domain.ReplyUnhandled, cr.Result == domain.ReplyAborted, cr.Choice, nil
}

// Aborted has no reply shape of its own; it forwards straight to the
// handle, whose own Aborted implementation is responsible for resolving
// any other in-flight prompt with a synthetic unhandled reply (spec.md
// §4.6).
func (r *Relay) Aborted() *dbus.Error {
	r.handle.Aborted()
	return nil
}

func busName(conn *dbus.Conn) string {
	names := conn.Names()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
