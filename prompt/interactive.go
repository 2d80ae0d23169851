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

package prompt

import (
	"sync"

	"github.com/godbus/dbus/v5"

	"github.com/nestybox/mountbrokerd/domain"
	"github.com/nestybox/mountbrokerd/wire"
)

var _ domain.Handle = (*InteractiveHandle)(nil)

// InteractiveHandle is the production domain.Handle implementation
// (spec.md §9): it forwards every emitted prompt on to the real
// MountOperation object the original caller exported for itself, then
// translates the response back into the Handle's reply shape. It is the
// other half of Relay — Relay exports the inbound side for a helper to
// call, InteractiveHandle is the outbound side that calls the real UI.
type InteractiveHandle struct {
	conn   *dbus.Conn
	target domain.SourceRef

	mu      sync.Mutex
	nextID  uint64
	pending map[uint64]func()
}

// NewInteractiveHandle builds a handle that proxies prompts to target over
// conn.
func NewInteractiveHandle(conn *dbus.Conn, target domain.SourceRef) *InteractiveHandle {
	return &InteractiveHandle{
		conn:    conn,
		target:  target,
		pending: make(map[uint64]func()),
	}
}

// register records synthesize, the ReplyUnhandled fallback Aborted invokes
// if this prompt is still outstanding when the helper gives up. It returns
// a deregister func the caller must invoke once the real reply has fired.
func (h *InteractiveHandle) register(synthesize func()) (deregister func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.pending[id] = synthesize
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.pending, id)
		h.mu.Unlock()
	}
}

func (h *InteractiveHandle) AskPassword(message, defaultUser, defaultDomain string, flags domain.AskPasswordFlags, reply func(domain.PasswordReply)) {
	var once sync.Once
	fire := func(pr domain.PasswordReply) { once.Do(func() { reply(pr) }) }

	deregister := h.register(func() { fire(domain.PasswordReply{Result: domain.ReplyUnhandled}) })

	go func() {
		defer deregister()

		obj := h.conn.Object(h.target.PeerID, dbus.ObjectPath(h.target.ObjectPath))

		var handled, aborted, anonymous bool
		var password, username, domainName string
		var passwordSave int32

		call := obj.Call(wire.MountOperationInterface+".AskPassword", 0, message, defaultUser, defaultDomain, uint32(flags))
		if call.Err != nil {
			fire(domain.PasswordReply{Result: domain.ReplyUnhandled})
			return
		}
		if err := call.Store(&handled, &aborted, &password, &username, &domainName, &anonymous, &passwordSave); err != nil {
			fire(domain.PasswordReply{Result: domain.ReplyUnhandled})
			return
		}

		fire(domain.PasswordReply{
			Result:       resultOf(handled, aborted),
			Password:     password,
			Username:     username,
			Domain:       domainName,
			Anonymous:    anonymous,
			PasswordSave: passwordSave,
		})
	}()
}

func (h *InteractiveHandle) AskQuestion(message string, choices []string, reply func(domain.ChoiceReply)) {
	var once sync.Once
	fire := func(cr domain.ChoiceReply) { once.Do(func() { reply(cr) }) }

	deregister := h.register(func() { fire(domain.ChoiceReply{Result: domain.ReplyUnhandled}) })

	go func() {
		defer deregister()

		obj := h.conn.Object(h.target.PeerID, dbus.ObjectPath(h.target.ObjectPath))

		var handled, aborted bool
		var choice int32

		call := obj.Call(wire.MountOperationInterface+".AskQuestion", 0, message, choices)
		if call.Err != nil {
			fire(domain.ChoiceReply{Result: domain.ReplyUnhandled})
			return
		}
		if err := call.Store(&handled, &aborted, &choice); err != nil {
			fire(domain.ChoiceReply{Result: domain.ReplyUnhandled})
			return
		}

		fire(domain.ChoiceReply{Result: resultOf(handled, aborted), Choice: choice})
	}()
}

func (h *InteractiveHandle) ShowProcesses(message string, choices []string, pids []int32, reply func(domain.ChoiceReply)) {
	var once sync.Once
	fire := func(cr domain.ChoiceReply) { once.Do(func() { reply(cr) }) }

	deregister := h.register(func() { fire(domain.ChoiceReply{Result: domain.ReplyUnhandled}) })

	go func() {
		defer deregister()

		obj := h.conn.Object(h.target.PeerID, dbus.ObjectPath(h.target.ObjectPath))

		var handled, aborted bool
		var choice int32

		call := obj.Call(wire.MountOperationInterface+".ShowProcesses", 0, message, choices, pids)
		if call.Err != nil {
			fire(domain.ChoiceReply{Result: domain.ReplyUnhandled})
			return
		}
		if err := call.Store(&handled, &aborted, &choice); err != nil {
			fire(domain.ChoiceReply{Result: domain.ReplyUnhandled})
			return
		}

		fire(domain.ChoiceReply{Result: resultOf(handled, aborted), Choice: choice})
	}()
}

// Aborted resolves every prompt still outstanding on this handle with a
// synthetic unhandled reply (spec.md §4.6) so none of them hangs forever.
func (h *InteractiveHandle) Aborted() {
	h.mu.Lock()
	pending := h.pending
	h.pending = make(map[uint64]func())
	h.mu.Unlock()

	for _, synthesize := range pending {
		synthesize()
	}
}

func resultOf(handled, aborted bool) domain.ReplyResult {
	switch {
	case aborted:
		return domain.ReplyAborted
	case handled:
		return domain.ReplyHandled
	default:
		return domain.ReplyUnhandled
	}
}
