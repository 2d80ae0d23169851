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

import "github.com/nestybox/mountbrokerd/domain"

var _ domain.Handle = (*ScriptedHandle)(nil)

// ScriptedHandle is the test-double domain.Handle (spec.md §9): replies are
// pre-programmed by the test and delivered synchronously, and every emitted
// event is recorded so a test can assert on it.
type ScriptedHandle struct {
	PasswordReply domain.PasswordReply
	ChoiceReply   domain.ChoiceReply

	AskPasswordCalls   int
	AskQuestionCalls   int
	ShowProcessesCalls int
	AbortedCalls       int

	LastMessage string
	LastChoices []string
	LastPids    []int32
}

func (s *ScriptedHandle) AskPassword(message, defaultUser, defaultDomain string, flags domain.AskPasswordFlags, reply func(domain.PasswordReply)) {
	s.AskPasswordCalls++
	s.LastMessage = message
	reply(s.PasswordReply)
}

func (s *ScriptedHandle) AskQuestion(message string, choices []string, reply func(domain.ChoiceReply)) {
	s.AskQuestionCalls++
	s.LastMessage = message
	s.LastChoices = choices
	reply(s.ChoiceReply)
}

func (s *ScriptedHandle) ShowProcesses(message string, choices []string, pids []int32, reply func(domain.ChoiceReply)) {
	s.ShowProcessesCalls++
	s.LastMessage = message
	s.LastChoices = choices
	s.LastPids = pids
	reply(s.ChoiceReply)
}

func (s *ScriptedHandle) Aborted() {
	s.AbortedCalls++
}
