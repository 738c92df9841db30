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

import "github.com/prometheus/client_golang/prometheus"

// 计划生命周期相关指标
var (
	// JobPlansProcessedTotal counts per-plan outcomes of the periodic jobs
	JobPlansProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_job_plans_processed_total",
			Help: "Plans processed by periodic jobs, by job and result",
		},
		[]string{"job_name", "result"},
	)

	// NotificationsTotal counts notification intents handed to the delivery side
	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_notifications_total",
			Help: "Notification intents dispatched, by kind and result",
		},
		[]string{"kind", "result"},
	)

	// VoteSubmissionsTotal counts vote submissions by outcome
	VoteSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huddle_vote_submissions_total",
			Help: "Vote submissions, by result",
		},
		[]string{"result"},
	)
)

const (
	ResultOK      = "ok"
	ResultSkipped = "skipped"
	ResultError   = "error"
)

// RecordJobPlan records the outcome of one plan inside a job run.
func RecordJobPlan(jobName, result string) {
	JobPlansProcessedTotal.WithLabelValues(jobName, result).Inc()
}

// RecordNotification records one dispatched intent.
func RecordNotification(kind string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	NotificationsTotal.WithLabelValues(kind, result).Inc()
}

// RecordVoteSubmission records a vote submission result label.
func RecordVoteSubmission(result string) {
	VoteSubmissionsTotal.WithLabelValues(result).Inc()
}

func planCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		JobPlansProcessedTotal,
		NotificationsTotal,
		VoteSubmissionsTotal,
	}
}
