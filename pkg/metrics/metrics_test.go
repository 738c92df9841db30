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
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronMetricsRecorder(t *testing.T) {
	r := NewCronMetricsRecorder()
	before := testutil.ToFloat64(CronJobErrorsTotal.WithLabelValues("test-job"))
	runs := testutil.ToFloat64(CronJobRunsTotal.WithLabelValues("test-job"))

	r.RecordJobRun("test-job", 10*time.Millisecond, nil)
	r.RecordJobRun("test-job", 10*time.Millisecond, errors.New("boom"))
	r.UpdateJobsCount(4)

	assert.Equal(t, runs+2, testutil.ToFloat64(CronJobRunsTotal.WithLabelValues("test-job")))
	assert.Equal(t, before+1, testutil.ToFloat64(CronJobErrorsTotal.WithLabelValues("test-job")))
	assert.Equal(t, 4.0, testutil.ToFloat64(CronJobsTotal))
}

func TestRecordNotification(t *testing.T) {
	ok := testutil.ToFloat64(NotificationsTotal.WithLabelValues("PlanConfirmed", ResultOK))
	bad := testutil.ToFloat64(NotificationsTotal.WithLabelValues("PlanConfirmed", ResultError))

	RecordNotification("PlanConfirmed", nil)
	RecordNotification("PlanConfirmed", errors.New("redis down"))

	assert.Equal(t, ok+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("PlanConfirmed", ResultOK)))
	assert.Equal(t, bad+1, testutil.ToFloat64(NotificationsTotal.WithLabelValues("PlanConfirmed", ResultError)))
}

func TestServer_Handler(t *testing.T) {
	s := ProvideServer(MetricsConfig{})
	// 重复注册不应 panic
	RegisterDefault(s.GetRegistry())

	RecordJobPlan("deadline-finalizer", ResultOK)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "huddle_job_plans_processed_total"))
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestNotifyQueueCollector(t *testing.T) {
	c := NewNotifyQueueCollector(fakeInspector{info: &asynq.QueueInfo{Queue: "notify", Size: 3, Pending: 2, Retry: 1}}, "notify")
	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(c))

	expected := "# HELP asynq_queue_pending Pending tasks\n# TYPE asynq_queue_pending gauge\nasynq_queue_pending{queue=\"notify\"} 2\n"
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "asynq_queue_pending"))

	missing := NewNotifyQueueCollector(fakeInspector{err: errors.New("queue not found")}, "notify")
	assert.Equal(t, 6, testutil.CollectAndCount(missing))
}
