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

package config

import (
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/rdb"
	"github.com/go-arcade/huddle/pkg/trace"
	"github.com/google/wire"
)

// ProviderSet 提供配置层相关的依赖
var ProviderSet = wire.NewSet(
	ProvideConf,
	ProvideLogConfig,
	ProvideDatabaseConfig,
	ProvideRedisConfig,
	ProvideMetricsConfig,
	ProvideTraceConfig,
	ProvideSchedulerConfig,
	ProvideNotifyConfig,
)

// ProvideConf 提供应用配置
func ProvideConf(configPath string) (*AppConfig, error) {
	return NewConf(configPath)
}

// ProvideLogConfig 提供日志配置
func ProvideLogConfig(appConf *AppConfig) *log.Conf {
	return &appConf.Log
}

// ProvideDatabaseConfig 提供数据库配置
func ProvideDatabaseConfig(appConf *AppConfig) database.Database {
	return appConf.Database
}

// ProvideRedisConfig 提供 Redis 配置
func ProvideRedisConfig(appConf *AppConfig) rdb.Redis {
	return appConf.Redis
}

// ProvideMetricsConfig 提供 Metrics 配置
func ProvideMetricsConfig(appConf *AppConfig) metrics.MetricsConfig {
	return appConf.Metrics
}

// ProvideTraceConfig 提供链路追踪配置
func ProvideTraceConfig(appConf *AppConfig) trace.Conf {
	return appConf.Trace
}

// ProvideSchedulerConfig 提供定时任务配置
func ProvideSchedulerConfig(appConf *AppConfig) job.Conf {
	return appConf.Scheduler
}

// ProvideNotifyConfig 提供通知配置
func ProvideNotifyConfig(appConf *AppConfig) notify.Conf {
	return appConf.Notify
}
