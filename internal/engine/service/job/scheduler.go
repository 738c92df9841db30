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
	"sort"

	"github.com/go-arcade/huddle/pkg/cron"
	"github.com/go-arcade/huddle/pkg/log"
	"golang.org/x/sync/errgroup"
)

// Jobs 全部定时任务
type Jobs struct {
	Finalizer *Finalizer
	Closer    *Closer
	Reminder  *Reminder
	Countdown *Countdown
}

// ByName returns the job registered under name.
func (j Jobs) ByName(name string) (cron.Job, bool) {
	job, ok := j.byName()[name]
	return job, ok
}

// Names lists every job name in order.
func (j Jobs) Names() []string {
	m := j.byName()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (j Jobs) byName() map[string]cron.Job {
	return map[string]cron.Job{
		NameFinalizer: j.Finalizer,
		NameCloser:    j.Closer,
		NameReminder:  j.Reminder,
		NameCountdown: j.Countdown,
	}
}

// RunAll runs every job once, concurrently. Jobs act on disjoint predicates.
func (j Jobs) RunAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, name := range j.Names() {
		job, _ := j.ByName(name)
		g.Go(func() error {
			if err := job.Run(ctx); err != nil {
				return fmt.Errorf("%s: %w", job.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Scheduler 按各自的 cron 表达式运行定时任务
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(conf Conf, jobs Jobs, recorder cron.MetricsRecorder) (*Scheduler, error) {
	conf.SetDefaults()
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(log.GetLogger()),
		cron.WithMetricsRecorder(recorder),
	)
	specs := map[string]string{
		NameFinalizer: conf.FinalizerSpec,
		NameCloser:    conf.CloserSpec,
		NameReminder:  conf.ReminderSpec,
		NameCountdown: conf.CountdownSpec,
	}
	for _, name := range jobs.Names() {
		job, _ := jobs.ByName(name)
		if err := c.AddJob(specs[name], job); err != nil {
			return nil, err
		}
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	for _, e := range s.cron.Entries() {
		log.Infow("job scheduled", "job", e.Name, "spec", e.Spec, "next", e.Next)
	}
}

func (s *Scheduler) Stop(ctx context.Context) error {
	return s.cron.Stop(ctx)
}

func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}
