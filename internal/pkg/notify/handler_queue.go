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

package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/huddle/pkg/event"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// TaskTypePrefix prefixes asynq task types, e.g. "notify:plan_confirmed".
const TaskTypePrefix = "notify:"

// Enqueuer is the part of asynq.Client the queue handler uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueHandler enqueues intents for the delivery worker.
type QueueHandler struct {
	client   Enqueuer
	queue    string
	maxRetry int
	retain   time.Duration
}

func NewQueueHandler(client Enqueuer, conf Conf) *QueueHandler {
	conf.SetDefaults()
	return &QueueHandler{
		client:   client,
		queue:    conf.Queue,
		maxRetry: conf.MaxRetry,
		retain:   time.Duration(conf.Retention) * time.Hour,
	}
}

// TaskType returns the asynq task type for a kind.
func TaskType(kind Kind) string {
	return TaskTypePrefix + string(kind)
}

func (h *QueueHandler) Handle(ctx context.Context, e event.Event) error {
	intent, ok := e.(Intent)
	if !ok {
		return fmt.Errorf("unexpected event %T", e)
	}
	data, err := sonic.Marshal(intent)
	if err != nil {
		return fmt.Errorf("marshal intent: %w", err)
	}

	opts := []asynq.Option{
		asynq.Queue(h.queue),
		asynq.MaxRetry(h.maxRetry),
		asynq.TaskID(intent.ID),
	}
	if h.retain > 0 {
		opts = append(opts, asynq.Retention(h.retain))
	}

	info, err := h.client.EnqueueContext(ctx, asynq.NewTask(TaskType(intent.Kind), data), opts...)
	if err != nil {
		return fmt.Errorf("enqueue intent %s: %w", intent.ID, err)
	}
	log.WithContext(ctx).Debugw("notification enqueued",
		"intent_id", intent.ID,
		"kind", intent.Kind,
		"queue", info.Queue,
	)
	return nil
}

// DecodeTask reads an intent back from a queued task payload.
func DecodeTask(t *asynq.Task) (Intent, error) {
	var intent Intent
	if err := sonic.Unmarshal(t.Payload(), &intent); err != nil {
		return Intent{}, fmt.Errorf("unmarshal intent: %w", err)
	}
	return intent, nil
}

// redisConnOpt 包装已有的 Redis 客户端实现 asynq.RedisConnOpt
type redisConnOpt struct {
	client redis.UniversalClient
}

func (r *redisConnOpt) MakeRedisClient() any {
	return r.client
}
