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

type PlanStatus string

const (
	PlanPending   PlanStatus = "pending"
	PlanConfirmed PlanStatus = "confirmed"
	PlanCancelled PlanStatus = "cancelled"
)

// IsValid 判断是否为已知状态
func (ps PlanStatus) IsValid() bool {
	return ps == PlanPending || ps == PlanConfirmed || ps == PlanCancelled
}

// AcceptsVotes 只有 pending 状态的计划接受投票
func (ps PlanStatus) AcceptsVotes() bool {
	return ps == PlanPending
}

var planStateMachine = NewPlanStateMachine()

// NewPlanStateMachine 创建计划状态机
func NewPlanStateMachine() *StateMachine[PlanStatus] {
	sm := New[PlanStatus]()

	sm.Allow(PlanPending, PlanConfirmed, PlanCancelled).
		Allow(PlanConfirmed, PlanCancelled)

	return sm
}

// PlanTransition validates a plan status change against the shared table.
func PlanTransition(from, to PlanStatus) error {
	return planStateMachine.Transition(from, to)
}
