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

package job

import (
	"context"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"go.uber.org/zap"
)

// Reminder 提醒尚未投票的受邀者，只读
type Reminder struct {
	runner
	repos    *repo.Repositories
	notifier notify.Notifier
}

func NewReminder(repos *repo.Repositories, notifier notify.Notifier, now common.Clock) *Reminder {
	return &Reminder{
		runner:   runner{name: NameReminder, now: now},
		repos:    repos,
		notifier: notifier,
	}
}

func (r *Reminder) Name() string { return r.name }

func (r *Reminder) Run(ctx context.Context) error {
	_, err := r.RunOnce(ctx)
	return err
}

func (r *Reminder) RunOnce(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	ctx, logger, end := r.start(ctx)
	defer func() { end(err) }()

	plans, err := r.repos.Plan.ListPlansByStatus(ctx, statemachine.PlanPending)
	if err != nil {
		return stats, err
	}
	now := r.now.Now()
	open := plans[:0]
	for _, p := range plans {
		if !p.DeadlinePassed(now) {
			open = append(open, p)
		}
	}

	stats = r.each(ctx, logger, open, r.remind)
	r.finish(logger, stats, time.Since(start))
	return stats, nil
}

func (r *Reminder) remind(ctx context.Context, _ *zap.SugaredLogger, plan *model.Plan) (outcome, error) {
	invitations, err := r.repos.Invitation.ListByPlanAndStatus(ctx, plan.ID, statemachine.InvitationPending)
	if err != nil {
		return done, err
	}
	if len(invitations) == 0 {
		return skipped, nil
	}
	summary := notify.SummaryOf(plan)
	intents := make([]notify.Intent, 0, len(invitations))
	for _, inv := range invitations {
		intents = append(intents, notify.ReminderDue(inv.Email, summary, plan.Deadline, inv.InviteToken))
	}
	r.notifier.Notify(ctx, intents...)
	return done, nil
}
