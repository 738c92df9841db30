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
	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/google/wire"
)

// ProviderSet 提供定时任务相关依赖
var ProviderSet = wire.NewSet(ProvideJobs, ProvideScheduler)

// ProvideJobs 按配置构建全部定时任务
func ProvideJobs(conf Conf, repos *repo.Repositories, notifier notify.Notifier) (Jobs, error) {
	conf.SetDefaults()
	grace, err := conf.Grace()
	if err != nil {
		return Jobs{}, err
	}
	loc, err := conf.Location()
	if err != nil {
		return Jobs{}, err
	}
	var now common.Clock
	return Jobs{
		Finalizer: NewFinalizer(repos, notifier, now),
		Closer:    NewCloser(repos, notifier, grace, now),
		Reminder:  NewReminder(repos, notifier, now),
		Countdown: NewCountdown(repos, notifier, conf.CountdownMilestones, loc, now),
	}, nil
}

// ProvideScheduler 提供调度器；是否启动由 bootstrap 根据 Enabled 决定
func ProvideScheduler(conf Conf, jobs Jobs, recorder *metrics.CronMetricsRecorder) (*Scheduler, error) {
	return NewScheduler(conf, jobs, recorder)
}
