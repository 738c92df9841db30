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
	"github.com/go-arcade/huddle/internal/engine/service/tally"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errNotPending = errors.New("plan is no longer pending")

// Finalizer 截止时间过后计票并确认计划
type Finalizer struct {
	runner
	repos    *repo.Repositories
	notifier notify.Notifier
}

func NewFinalizer(repos *repo.Repositories, notifier notify.Notifier, now common.Clock) *Finalizer {
	return &Finalizer{
		runner:   runner{name: NameFinalizer, now: now},
		repos:    repos,
		notifier: notifier,
	}
}

func (f *Finalizer) Name() string { return f.name }

func (f *Finalizer) Run(ctx context.Context) error {
	_, err := f.RunOnce(ctx)
	return err
}

// RunOnce finalizes every pending plan whose deadline has passed.
func (f *Finalizer) RunOnce(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	ctx, logger, end := f.start(ctx)
	defer func() { end(err) }()

	plans, err := f.repos.Plan.ListPlansByStatus(ctx, statemachine.PlanPending)
	if err != nil {
		return stats, err
	}
	now := f.now.Now()
	due := 0
	// 按截止时间升序，遇到第一个未到期的即可停止
	for due < len(plans) && plans[due].DeadlinePassed(now) {
		due++
	}

	stats = f.each(ctx, logger, plans[:due], f.finalize)
	f.finish(logger, stats, time.Since(start))
	return stats, nil
}

func (f *Finalizer) finalize(ctx context.Context, logger *zap.SugaredLogger, candidate *model.Plan) (outcome, error) {
	var (
		plan     *model.Plan
		activity *model.PlanActivity
	)
	err := f.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		p, err := tx.Plan.GetPlanForUpdate(ctx, candidate.ID)
		if err != nil {
			return err
		}
		if p.Status != statemachine.PlanPending {
			return errNotPending
		}

		dates, err := tx.Plan.ListDates(ctx, p.ID)
		if err != nil {
			return err
		}
		if len(dates) == 0 {
			return errors.Errorf("plan %d has no candidate dates", p.ID)
		}
		activities, err := tx.Plan.ListActivities(ctx, p.ID)
		if err != nil {
			return err
		}

		result, err := tally.NewCalculator(tx.Vote).Tally(ctx, p.ID)
		if err != nil {
			return err
		}

		// 没有日期票时所有日期同为零票，按平票规则取最小ID
		date := dates[0]
		if result.Date != nil {
			found := false
			for _, d := range dates {
				if d.ID == *result.Date {
					date, found = d, true
					break
				}
			}
			if !found {
				return errors.Errorf("winning date %d not found on plan %d", *result.Date, p.ID)
			}
		}
		if result.Activity != nil {
			for i := range activities {
				if activities[i].ID == *result.Activity {
					activity = &activities[i]
					break
				}
			}
		}

		if err := p.Confirm(date, result.Activity); err != nil {
			return err
		}
		ok, err := tx.Plan.ConfirmPlan(ctx, p)
		if err != nil {
			return err
		}
		if !ok {
			return errNotPending
		}
		plan = p
		return nil
	})
	if errors.Is(err, errNotPending) {
		logger.Infow("plan left pending before finalizing, skipped", "plan_id", candidate.ID)
		return skipped, nil
	}
	if err != nil {
		return done, err
	}

	logger.Infow("plan confirmed",
		"plan_id", plan.ID,
		"date_id", *plan.ConfirmedDateID,
		"activity_id", plan.ConfirmedActivityID,
	)
	f.notify(ctx, logger, plan, activity)
	return done, nil
}

// notify 在提交之后发送，失败不回滚
func (f *Finalizer) notify(ctx context.Context, logger *zap.SugaredLogger, plan *model.Plan, activity *model.PlanActivity) {
	invitees, err := f.repos.Invitation.ListByPlanAndStatus(ctx, plan.ID, statemachine.InvitationResponded)
	if err != nil {
		logger.Errorw("failed to load invitees for confirmation notice", "plan_id", plan.ID, "error", err)
		invitees = nil
	}

	summary := notify.SummaryOf(plan)
	option := notify.OptionOf(activity)
	intents := make([]notify.Intent, 0, len(invitees)+1)
	for _, inv := range invitees {
		intents = append(intents, notify.PlanConfirmed(inv.Email, summary, *plan.ConfirmedDate, option, inv.InviteToken))
	}
	intents = append(intents, notify.PlanConfirmed(plan.HostEmail, summary, *plan.ConfirmedDate, option, ""))
	f.notifier.Notify(ctx, intents...)
}
