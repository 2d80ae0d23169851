package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nestybox/mountbrokerd/domain"
)

func TestWrapNilHandleProducesDummyReference(t *testing.T) {
	r, ref := Wrap(nil, nil)
	assert.Nil(t, r)
	assert.Equal(t, domain.DummySourceRef, ref)
	assert.True(t, ref.IsDummy())
}

func TestRelayAskPasswordDerivesHandledAndAborted(t *testing.T) {
	h := &ScriptedHandle{PasswordReply: domain.PasswordReply{
		Result:   domain.ReplyHandled,
		Password: "hunter2",
		Username: "alice",
	}}
	r := &Relay{handle: h}

	handled, aborted, password, username, domainName, anonymous, passwordSave, derr := r.AskPassword("enter password", "", "", 0)

	assert.Nil(t, derr)
	assert.True(t, handled)
	assert.False(t, aborted)
	assert.Equal(t, "hunter2", password)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "", domainName)
	assert.False(t, anonymous)
	assert.Equal(t, int32(0), passwordSave)
	assert.Equal(t, 1, h.AskPasswordCalls)
}

func TestRelayAskPasswordUnhandled(t *testing.T) {
	h := &ScriptedHandle{PasswordReply: domain.PasswordReply{Result: domain.ReplyUnhandled}}
	r := &Relay{handle: h}

	handled, aborted, _, _, _, _, _, _ := r.AskPassword("msg", "", "", 0)
	assert.False(t, handled)
	assert.False(t, aborted)
}

func TestRelayAskQuestionAborted(t *testing.T) {
	h := &ScriptedHandle{ChoiceReply: domain.ChoiceReply{Result: domain.ReplyAborted}}
	r := &Relay{handle: h}

	handled, aborted, choice, derr := r.AskQuestion("pick one", []string{"a", "b"})
	assert.Nil(t, derr)
	assert.True(t, handled)
	assert.True(t, aborted)
	assert.Equal(t, int32(0), choice)
	assert.Equal(t, []string{"a", "b"}, h.LastChoices)
}

func TestRelayShowProcesses(t *testing.T) {
	h := &ScriptedHandle{ChoiceReply: domain.ChoiceReply{Result: domain.ReplyHandled, Choice: 2}}
	r := &Relay{handle: h}

	handled, aborted, choice, derr := r.ShowProcesses("busy", []string{"abort", "force"}, []int32{123, 456})
	assert.Nil(t, derr)
	assert.True(t, handled)
	assert.False(t, aborted)
	assert.Equal(t, int32(2), choice)
	assert.Equal(t, []int32{123, 456}, h.LastPids)
}

func TestRelayAbortedForwardsToHandle(t *testing.T) {
	h := &ScriptedHandle{}
	r := &Relay{handle: h}

	derr := r.Aborted()
	assert.Nil(t, derr)
	assert.Equal(t, 1, h.AbortedCalls)
}
