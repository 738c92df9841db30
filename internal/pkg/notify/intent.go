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

package notify

import (
	"time"

	"github.com/go-arcade/huddle/pkg/id"
)

// Kind names a notification intent
type Kind string

const (
	KindInvitationCreated    Kind = "invitation_created"
	KindPlanConfirmed        Kind = "plan_confirmed"
	KindReminderDue          Kind = "reminder_due"
	KindDecisionWindowClosed Kind = "decision_window_closed"
	KindCountdownDue         Kind = "countdown_due"
)

// EventType is the bus category shared by every intent.
const EventType = "notification"

// PlanSummary is the plan data every intent carries.
type PlanSummary struct {
	PlanID    uint64 `json:"planId"`
	Title     string `json:"title"`
	Time      string `json:"time"`
	ImageURL  string `json:"imageUrl,omitempty"`
	HostEmail string `json:"hostEmail"`
}

// Option is a winning candidate as shown to recipients.
type Option struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name,omitempty"`
	Location string `json:"location,omitempty"`
}

// Intent is one notification for one recipient. Delivery is up to the consumer.
type Intent struct {
	ID              string      `json:"id"`
	Kind            Kind        `json:"kind"`
	Email           string      `json:"email"`
	Plan            PlanSummary `json:"plan"`
	Token           string      `json:"token,omitempty"`
	DecisionToken   string      `json:"decisionToken,omitempty"`
	Deadline        *time.Time  `json:"deadline,omitempty"`
	WinningDate     *time.Time  `json:"winningDate,omitempty"`
	WinningActivity *Option     `json:"winningActivity,omitempty"`
	IsHost          bool        `json:"isHost,omitempty"`
	DaysLeft        *int        `json:"daysLeft,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
}

func (i Intent) EventName() string {
	return string(i.Kind)
}

func (i Intent) EventType() string {
	return EventType
}

func newIntent(kind Kind, email string, plan PlanSummary) Intent {
	return Intent{
		ID:        id.GetUlid(),
		Kind:      kind,
		Email:     email,
		Plan:      plan,
		CreatedAt: time.Now().UTC(),
	}
}

// InvitationCreated 邀请已创建，附带邀请令牌
func InvitationCreated(email, token string, plan PlanSummary) Intent {
	i := newIntent(KindInvitationCreated, email, plan)
	i.Token = token
	return i
}

// PlanConfirmed 计划已确认；decisionToken 为空表示收件人是发起人
func PlanConfirmed(email string, plan PlanSummary, date time.Time, activity *Option, decisionToken string) Intent {
	i := newIntent(KindPlanConfirmed, email, plan)
	i.WinningDate = &date
	i.WinningActivity = activity
	i.DecisionToken = decisionToken
	i.IsHost = decisionToken == ""
	return i
}

// ReminderDue 截止前提醒未投票的受邀者
func ReminderDue(email string, plan PlanSummary, deadline time.Time, token string) Intent {
	i := newIntent(KindReminderDue, email, plan)
	i.Deadline = &deadline
	i.Token = token
	return i
}

// DecisionWindowClosed 决策窗口关闭
func DecisionWindowClosed(email string, plan PlanSummary, date time.Time, activity *Option, isHost bool) Intent {
	i := newIntent(KindDecisionWindowClosed, email, plan)
	i.WinningDate = &date
	i.WinningActivity = activity
	i.IsHost = isHost
	return i
}

// CountdownDue 距离活动日还有 daysLeft 天
func CountdownDue(email string, plan PlanSummary, date time.Time, activity *Option, daysLeft int, isHost bool) Intent {
	i := newIntent(KindCountdownDue, email, plan)
	i.WinningDate = &date
	i.WinningActivity = activity
	i.DaysLeft = &daysLeft
	i.IsHost = isHost
	return i
}
