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
	"github.com/go-arcade/huddle/pkg/duration"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"go.uber.org/zap"
)

// Countdown 在活动日前的里程碑天数提醒参与者，只读
type Countdown struct {
	runner
	repos      *repo.Repositories
	notifier   notify.Notifier
	loc        *time.Location
	milestones map[int]struct{}
}

func NewCountdown(repos *repo.Repositories, notifier notify.Notifier, milestones []int, loc *time.Location, now common.Clock) *Countdown {
	if loc == nil {
		loc = time.UTC
	}
	set := make(map[int]struct{}, len(milestones))
	for _, m := range milestones {
		set[m] = struct{}{}
	}
	return &Countdown{
		runner:     runner{name: NameCountdown, now: now},
		repos:      repos,
		notifier:   notifier,
		loc:        loc,
		milestones: set,
	}
}

func (c *Countdown) Name() string { return c.name }

func (c *Countdown) Run(ctx context.Context) error {
	_, err := c.RunOnce(ctx)
	return err
}

// DaysUntil counts calendar days from now to the plan's confirmed day, in loc.
func DaysUntil(now, confirmed time.Time, loc *time.Location) int {
	y, m, d := confirmed.UTC().Date()
	return duration.DaysBetween(now, time.Date(y, m, d, 0, 0, 0, 0, loc), loc)
}

func (c *Countdown) RunOnce(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	ctx, logger, end := c.start(ctx)
	defer func() { end(err) }()

	plans, err := c.repos.Plan.ListPlansByStatus(ctx, statemachine.PlanConfirmed)
	if err != nil {
		return stats, err
	}
	now := c.now.Now()
	due := plans[:0]
	for _, p := range plans {
		if p.ConfirmedDate == nil {
			continue
		}
		if _, ok := c.milestones[DaysUntil(now, *p.ConfirmedDate, c.loc)]; ok {
			due = append(due, p)
		}
	}

	stats = c.each(ctx, logger, due, func(ctx context.Context, logger *zap.SugaredLogger, plan *model.Plan) (outcome, error) {
		return c.countdown(ctx, plan, DaysUntil(now, *plan.ConfirmedDate, c.loc))
	})
	c.finish(logger, stats, time.Since(start))
	return stats, nil
}

func (c *Countdown) countdown(ctx context.Context, plan *model.Plan, daysLeft int) (outcome, error) {
	invitations, err := c.repos.Invitation.ListByPlan(ctx, plan.ID)
	if err != nil {
		return done, err
	}
	var activity *model.PlanActivity
	if plan.ConfirmedActivityID != nil {
		activities, err := c.repos.Plan.ListActivities(ctx, plan.ID)
		if err != nil {
			return done, err
		}
		for i := range activities {
			if activities[i].ID == *plan.ConfirmedActivityID {
				activity = &activities[i]
				break
			}
		}
	}

	summary := notify.SummaryOf(plan)
	option := notify.OptionOf(activity)
	date := *plan.ConfirmedDate
	sent := map[string]struct{}{plan.HostEmail: {}}
	intents := []notify.Intent{notify.CountdownDue(plan.HostEmail, summary, date, option, daysLeft, true)}
	for _, inv := range invitations {
		if !inv.Status.HasVoted() || inv.Status == statemachine.InvitationDeclined {
			continue
		}
		if _, ok := sent[inv.Email]; ok {
			continue
		}
		sent[inv.Email] = struct{}{}
		intents = append(intents, notify.CountdownDue(inv.Email, summary, date, option, daysLeft, false))
	}
	c.notifier.Notify(ctx, intents...)
	return done, nil
}
