// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package statemachine

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationResponded InvitationStatus = "responded"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
)

// IsDecided 判断受邀者是否已做出最终出席决定
func (is InvitationStatus) IsDecided() bool {
	return is == InvitationAccepted || is == InvitationDeclined
}

// HasVoted 判断受邀者是否投过票
func (is InvitationStatus) HasVoted() bool {
	return is != InvitationPending
}

var invitationStateMachine = NewInvitationStateMachine()

// NewInvitationStateMachine 创建邀请状态机
func NewInvitationStateMachine() *StateMachine[InvitationStatus] {
	sm := New[InvitationStatus]()

	sm.Allow(InvitationPending, InvitationResponded).
		Allow(InvitationResponded, InvitationResponded, InvitationAccepted, InvitationDeclined).
		Allow(InvitationAccepted, InvitationDeclined). // 决策窗口内可以改变主意
		Allow(InvitationDeclined, InvitationAccepted)

	return sm
}

// InvitationTransition validates an invitation status change against the shared table.
func InvitationTransition(from, to InvitationStatus) error {
	return invitationStateMachine.Transition(from, to)
}
