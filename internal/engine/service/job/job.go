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
	"fmt"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/pkg/duration"
	"github.com/go-arcade/huddle/pkg/id"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/safe"
	"github.com/go-arcade/huddle/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

/**
 * @file: job.go
 * @description: periodic plan jobs, shared config and per-plan runner
 */

const (
	NameFinalizer = "finalizer"
	NameCloser    = "closer"
	NameReminder  = "reminder"
	NameCountdown = "countdown"
)

// Conf 定时任务配置
type Conf struct {
	Enabled             bool   `mapstructure:"enabled"`
	Timezone            string `mapstructure:"timezone"`
	FinalizerSpec       string `mapstructure:"finalizerSpec"`
	CloserSpec          string `mapstructure:"closerSpec"`
	ReminderSpec        string `mapstructure:"reminderSpec"`
	CountdownSpec       string `mapstructure:"countdownSpec"`
	GracePeriod         string `mapstructure:"gracePeriod"` // 例如 24h、1d
	CountdownMilestones []int  `mapstructure:"countdownMilestones"`
}

func (c *Conf) SetDefaults() {
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.FinalizerSpec == "" {
		c.FinalizerSpec = "@every 30s"
	}
	if c.CloserSpec == "" {
		c.CloserSpec = "@every 1m"
	}
	if c.ReminderSpec == "" {
		c.ReminderSpec = "0 9 * * *"
	}
	if c.CountdownSpec == "" {
		c.CountdownSpec = "0 8 * * *"
	}
	if c.GracePeriod == "" {
		c.GracePeriod = "24h"
	}
	if len(c.CountdownMilestones) == 0 {
		c.CountdownMilestones = []int{7, 3, 2, 1, 0}
	}
}

// Grace 解析决策窗口时长
func (c Conf) Grace() (time.Duration, error) {
	d, err := duration.ParseOr(c.GracePeriod, 24*time.Hour)
	if err != nil {
		return 0, fmt.Errorf("invalid gracePeriod %q: %w", c.GracePeriod, err)
	}
	return d, nil
}

func (c Conf) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Stats 一次运行的结果
type Stats struct {
	Processed int
	Skipped   int
	Failed    int
}

// outcome of one plan step
type outcome int

const (
	done outcome = iota
	skipped
)

type planStep func(ctx context.Context, logger *zap.SugaredLogger, plan *model.Plan) (outcome, error)

// runner 为每个计划单独记录日志、链路与指标，单个计划失败不影响其他计划
type runner struct {
	name string
	now  common.Clock
}

func (r runner) start(ctx context.Context) (context.Context, *zap.SugaredLogger, func(error)) {
	runID := id.GetXid()
	ctx, span := trace.StartSpan(ctx, "job."+r.name, attribute.String("job.run_id", runID))
	logger := log.WithContext(ctx).With("job", r.name, "run_id", runID)
	return ctx, logger, func(err error) { trace.EndSpan(span, err) }
}

func (r runner) each(ctx context.Context, logger *zap.SugaredLogger, plans []model.Plan, step planStep) Stats {
	var stats Stats
	for i := range plans {
		if ctx.Err() != nil {
			logger.Warnw("job interrupted", "remaining", len(plans)-i)
			break
		}
		plan := &plans[i]
		pctx, span := trace.StartSpan(ctx, "job."+r.name+".plan", attribute.Int64("plan.id", int64(plan.ID)))
		var res outcome
		err := safe.DoErr(func() error {
			var err error
			res, err = step(pctx, logger, plan)
			return err
		})
		trace.EndSpan(span, err)

		switch {
		case err != nil:
			stats.Failed++
			metrics.RecordJobPlan(r.name, metrics.ResultError)
			logger.Errorw("plan step failed, will retry next cycle", "plan_id", plan.ID, "error", err)
		case res == skipped:
			stats.Skipped++
			metrics.RecordJobPlan(r.name, metrics.ResultSkipped)
		default:
			stats.Processed++
			metrics.RecordJobPlan(r.name, metrics.ResultOK)
		}
	}
	return stats
}

func (r runner) finish(logger *zap.SugaredLogger, stats Stats, took time.Duration) {
	if stats == (Stats{}) {
		logger.Debugw("job run finished, nothing to do", "took", took)
		return
	}
	logger.Infow("job run finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"took", took,
	)
}
