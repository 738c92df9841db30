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

package metrics

import (
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// QueueInspector is the part of asynq.Inspector the collector needs.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// NotifyQueueCollector reports the depth of the notification queue at scrape time.
type NotifyQueueCollector struct {
	inspector QueueInspector
	queue     string

	size      *prometheus.Desc
	pending   *prometheus.Desc
	retry     *prometheus.Desc
	archived  *prometheus.Desc
	processed *prometheus.Desc
	failed    *prometheus.Desc
}

func NewNotifyQueueCollector(inspector QueueInspector, queue string) *NotifyQueueCollector {
	labels := []string{"queue"}
	return &NotifyQueueCollector{
		inspector: inspector,
		queue:     queue,
		size:      prometheus.NewDesc("asynq_queue_size", "Tasks in the queue", labels, nil),
		pending:   prometheus.NewDesc("asynq_queue_pending", "Pending tasks", labels, nil),
		retry:     prometheus.NewDesc("asynq_queue_retry", "Tasks waiting for retry", labels, nil),
		archived:  prometheus.NewDesc("asynq_queue_archived", "Archived (dead) tasks", labels, nil),
		processed: prometheus.NewDesc("asynq_queue_processed_total", "Tasks processed today", labels, nil),
		failed:    prometheus.NewDesc("asynq_queue_failed_total", "Tasks failed today", labels, nil),
	}
}

func (c *NotifyQueueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.size
	ch <- c.pending
	ch <- c.retry
	ch <- c.archived
	ch <- c.processed
	ch <- c.failed
}

func (c *NotifyQueueCollector) Collect(ch chan<- prometheus.Metric) {
	info, err := c.inspector.GetQueueInfo(c.queue)
	if err != nil {
		// 队列尚未创建时 asynq 返回 not found，按空队列上报
		log.Debugw("failed to inspect notification queue", "queue", c.queue, "error", err)
		info = &asynq.QueueInfo{Queue: c.queue}
	}
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v), c.queue)
	}
	gauge(c.size, info.Size)
	gauge(c.pending, info.Pending)
	gauge(c.retry, info.Retry)
	gauge(c.archived, info.Archived)
	ch <- prometheus.MustNewConstMetric(c.processed, prometheus.CounterValue, float64(info.Processed), c.queue)
	ch <- prometheus.MustNewConstMetric(c.failed, prometheus.CounterValue, float64(info.Failed), c.queue)
}
