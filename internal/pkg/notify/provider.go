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
	"fmt"

	"github.com/go-arcade/huddle/pkg/event"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/google/wire"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// ProviderSet 提供通知分发
var ProviderSet = wire.NewSet(
	ProvideDispatcher,
	wire.Bind(new(Notifier), new(*Dispatcher)),
)

// ProvideDispatcher 按配置组装通知处理器；queue 驱动需要 Redis
func ProvideDispatcher(conf Conf, client redis.UniversalClient, server *metrics.Server) (*Dispatcher, error) {
	conf.SetDefaults()
	d := NewDispatcher(event.NewEventBus()).Use(LogHandler{})

	switch conf.Driver {
	case DriverLog:
	case DriverQueue:
		if client == nil {
			return nil, fmt.Errorf("notify driver %q requires redis", conf.Driver)
		}
		opt := &redisConnOpt{client: client}
		// asynq 客户端与 Inspector 共用 rdb 的连接，由 rdb 负责关闭
		d.Use(NewQueueHandler(asynq.NewClient(opt), conf))
		if server != nil {
			if err := server.RegisterCollector(metrics.NewNotifyQueueCollector(asynq.NewInspector(opt), conf.Queue)); err != nil {
				log.Warnw("failed to register notify queue collector", "error", err)
			}
		}
	default:
		return nil, fmt.Errorf("unknown notify driver %q", conf.Driver)
	}

	log.Infow("notification dispatcher ready", "driver", conf.Driver, "queue", conf.Queue)
	return d, nil
}
