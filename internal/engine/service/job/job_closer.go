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
	"go.uber.org/zap"
)

// Closer 宽限期结束后关闭决策窗口
type Closer struct {
	runner
	repos    *repo.Repositories
	notifier notify.Notifier
	grace    time.Duration
}

func NewCloser(repos *repo.Repositories, notifier notify.Notifier, grace time.Duration, now common.Clock) *Closer {
	return &Closer{
		runner:   runner{name: NameCloser, now: now},
		repos:    repos,
		notifier: notifier,
		grace:    grace,
	}
}

func (c *Closer) Name() string { return c.name }

func (c *Closer) Run(ctx context.Context) error {
	_, err := c.RunOnce(ctx)
	return err
}

// RunOnce closes the decision window of every confirmed plan past deadline plus grace.
func (c *Closer) RunOnce(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	ctx, logger, end := c.start(ctx)
	defer func() { end(err) }()

	plans, err := c.repos.Plan.ListUnclosedConfirmed(ctx)
	if err != nil {
		return stats, err
	}
	now := c.now.Now()
	due := 0
	for due < len(plans) && !now.Before(plans[due].DecisionWindowEnd(c.grace)) {
		due++
	}

	stats = c.each(ctx, logger, plans[:due], c.close)
	c.finish(logger, stats, time.Since(start))
	return stats, nil
}

func (c *Closer) close(ctx context.Context, logger *zap.SugaredLogger, plan *model.Plan) (outcome, error) {
	invitations, err := c.repos.Invitation.ListByPlan(ctx, plan.ID)
	if err != nil {
		return done, err
	}
	roster := model.BuildRoster(invitations, plan.Deadline)

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

	// 先发通知再写标记位：崩溃只会导致重复通知，不会漏掉关闭
	summary := notify.SummaryOf(plan)
	option := notify.OptionOf(activity)
	date := *plan.ConfirmedDate
	intents := make([]notify.Intent, 0, len(roster.Accepted)+1)
	for _, inv := range roster.Accepted {
		intents = append(intents, notify.DecisionWindowClosed(inv.Email, summary, date, option, false))
	}
	intents = append(intents, notify.DecisionWindowClosed(plan.HostEmail, summary, date, option, true))
	c.notifier.Notify(ctx, intents...)

	ok, err := c.repos.Plan.CloseDecision(ctx, plan.ID)
	if err != nil {
		return done, err
	}
	if !ok {
		logger.Infow("plan closed or cancelled concurrently, skipped", "plan_id", plan.ID)
		return skipped, nil
	}
	logger.Infow("decision window closed",
		"plan_id", plan.ID,
		"accepted", len(roster.Accepted),
		"declined", len(roster.Declined),
		"undecided", len(roster.Undecided),
	)
	return done, nil
}
