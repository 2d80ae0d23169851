package domain

// ReplyResult is the outcome code an operation Handle carries back on its
// one-shot reply event (spec.md §4.6).
type ReplyResult int

const (
	ReplyUnhandled ReplyResult = iota
	ReplyHandled
	ReplyAborted
)

// AskPasswordFlags mirrors the bit-flag argument the helper passes to
// AskPassword; the core never interprets the bits, it only forwards them to
// the Handle.
type AskPasswordFlags uint32

// PasswordReply is the payload a Handle emits in answer to ask_password.
type PasswordReply struct {
	Result       ReplyResult
	Password     string
	Username     string
	Domain       string
	Anonymous    bool
	PasswordSave int32
}

// ChoiceReply is the payload a Handle emits in answer to ask_question and
// show_processes.
type ChoiceReply struct {
	Result ReplyResult
	Choice int32
}

// SourceRef is the (peer_id, object_path) pair a helper needs to call back
// into a Prompt Relay (spec.md §4.6, §4.7).
type SourceRef struct {
	PeerID     string
	ObjectPath string
}

// IsDummy reports whether this reference is the non-interactive sentinel
// (spec.md §4.7): any prompt routed to it must resolve to ReplyUnhandled
// without involving a real Handle.
func (s SourceRef) IsDummy() bool {
	return s == DummySourceRef
}

// DummySourceRef is the well-known sentinel reference (open question O2):
// an empty peer id paired with a reserved object path that no Relay is
// ever exported at, so any stray call to it is simply
// unroutable — which is exactly the "never contacts a UI" behavior spec.md
// §4.7 requires.
var DummySourceRef = SourceRef{PeerID: "", ObjectPath: "/org/gtk/vfs/mountoperation/dummy"}

// Handle is the operation handle a Prompt Relay wraps (spec.md §9): the
// capability set is observe the last-requested prompt fields, subscribe to
// exactly one reply per prompt, and receive the four emitted events. One
// production implementation (interactive) and one scripted test double
// satisfy it.
type Handle interface {
	// AskPassword notifies the handle that the helper wants credentials; the
	// handle is expected to eventually call the reply callback exactly once.
	AskPassword(message, defaultUser, defaultDomain string, flags AskPasswordFlags, reply func(PasswordReply))

	// AskQuestion notifies the handle of a multiple-choice prompt.
	AskQuestion(message string, choices []string, reply func(ChoiceReply))

	// ShowProcesses notifies the handle that the helper wants to show the
	// user a list of processes blocking the operation.
	ShowProcesses(message string, choices []string, pids []int32, reply func(ChoiceReply))

	// Aborted notifies the handle that the helper gave up; any reply
	// callback registered by a still-outstanding prompt on this handle must
	// be invoked with ReplyUnhandled so it doesn't hang forever.
	Aborted()
}
