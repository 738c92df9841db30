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

package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-arcade/huddle/pkg/log"
	robfig "github.com/robfig/cron/v3"
)

var (
	// ErrJobExists is returned when a job name is registered twice
	ErrJobExists = errors.New("cron job already registered")
	// ErrJobNotFound is returned when removing an unknown job
	ErrJobNotFound = errors.New("cron job not found")
)

// parser accepts standard five field specs, an optional leading seconds field
// and descriptors such as "@every 30s" or "@daily".
var parser = robfig.NewParser(
	robfig.SecondOptional | robfig.Minute | robfig.Hour | robfig.Dom | robfig.Month | robfig.Dow | robfig.Descriptor,
)

// Job is a named unit of periodic work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// FuncJob adapts a function to Job.
type FuncJob struct {
	JobName string
	Fn      func(ctx context.Context) error
}

func (f FuncJob) Name() string                  { return f.JobName }
func (f FuncJob) Run(ctx context.Context) error { return f.Fn(ctx) }

// MetricsRecorder receives one observation per job run.
type MetricsRecorder interface {
	RecordJobRun(jobName string, duration time.Duration, err error)
	UpdateNextRun(jobName string, nextRun time.Time)
	UpdateJobsCount(count int)
}

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type options struct {
	location *time.Location
	logger   log.ILogger
	recorder MetricsRecorder
}

type OpOption func(*options)

// WithLocation interprets specs in loc instead of UTC.
func WithLocation(loc *time.Location) OpOption {
	return func(o *options) {
		if loc != nil {
			o.location = loc
		}
	}
}

// WithLogger sets the logger used for scheduler internals and job failures.
func WithLogger(l log.ILogger) OpOption {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRecorder records every job run.
func WithMetricsRecorder(r MetricsRecorder) OpOption {
	return func(o *options) {
		o.recorder = r
	}
}

// Cron runs named jobs on independent schedules.
// A job never overlaps itself: a tick that arrives while the previous run of
// the same job is still active is skipped. A panicking job is recovered.
type Cron struct {
	mu      sync.Mutex
	opts    options
	c       *robfig.Cron
	ids     map[string]robfig.EntryID
	specs   map[string]string
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// New creates a scheduler. Nothing runs until Start.
func New(opts ...OpOption) *Cron {
	o := options{
		location: time.UTC,
		logger:   log.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cl := &cronLogger{l: o.logger}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cron{
		opts: o,
		c: robfig.New(
			robfig.WithParser(parser),
			robfig.WithLocation(o.location),
			robfig.WithLogger(cl),
			robfig.WithChain(robfig.Recover(cl), robfig.SkipIfStillRunning(cl)),
		),
		ids:    make(map[string]robfig.EntryID),
		specs:  make(map[string]string),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Location returns the time zone specs are evaluated in.
func (c *Cron) Location() *time.Location {
	return c.opts.location
}

// ParseSpec validates a spec without registering anything.
func ParseSpec(spec string) error {
	_, err := parser.Parse(spec)
	return err
}

// AddJob registers job under its name.
func (c *Cron) AddJob(spec string, job Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := job.Name()
	if _, ok := c.ids[name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, name)
	}

	id, err := c.c.AddFunc(spec, func() { c.run(job) })
	if err != nil {
		return fmt.Errorf("invalid spec %q for job %s: %w", spec, name, err)
	}
	c.ids[name] = id
	c.specs[name] = spec

	if c.opts.recorder != nil {
		c.opts.recorder.UpdateJobsCount(len(c.ids))
	}
	return nil
}

// AddFunc registers fn as a job called name.
func (c *Cron) AddFunc(spec, name string, fn func(ctx context.Context) error) error {
	return c.AddJob(spec, FuncJob{JobName: name, Fn: fn})
}

// Remove unregisters the named job. A run in progress is not interrupted.
func (c *Cron) Remove(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id, ok := c.ids[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	c.c.Remove(id)
	delete(c.ids, name)
	delete(c.specs, name)

	if c.opts.recorder != nil {
		c.opts.recorder.UpdateJobsCount(len(c.ids))
	}
	return nil
}

// Entries returns registered jobs sorted by name.
func (c *Cron) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, len(c.ids))
	for name, id := range c.ids {
		e := c.c.Entry(id)
		out = append(out, Entry{Name: name, Spec: c.specs[name], Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Start begins scheduling in a background goroutine.
func (c *Cron) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.c.Start()
	c.opts.logger.Infow("cron scheduler started", "jobs", len(c.ids), "location", c.opts.location.String())
}

// Stop halts scheduling, cancels the context handed to running jobs and waits
// for them to return or for ctx to end.
func (c *Cron) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	c.mu.Unlock()

	done := c.c.Stop()
	c.cancel()

	select {
	case <-done.Done():
		c.opts.logger.Info("cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Cron) run(job Job) {
	start := time.Now()
	err := job.Run(c.ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.opts.logger.Errorw("cron job failed", "job", job.Name(), "elapsed", elapsed, "error", err)
	} else {
		c.opts.logger.Debugw("cron job finished", "job", job.Name(), "elapsed", elapsed)
	}

	if c.opts.recorder != nil {
		c.opts.recorder.RecordJobRun(job.Name(), elapsed, err)
		c.mu.Lock()
		id, ok := c.ids[job.Name()]
		c.mu.Unlock()
		if ok {
			c.opts.recorder.UpdateNextRun(job.Name(), c.c.Entry(id).Next)
		}
	}
}

// cronLogger adapts log.ILogger to robfig's logr-style Logger.
type cronLogger struct {
	l log.ILogger
}

func (cl *cronLogger) Info(msg string, keysAndValues ...any) {
	// robfig 每次调度都会输出 wake/run 日志，降到 debug
	cl.l.Debugw("cron: "+msg, keysAndValues...)
}

func (cl *cronLogger) Error(err error, msg string, keysAndValues ...any) {
	cl.l.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}
