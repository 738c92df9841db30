//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/huddle/internal/engine/bootstrap"
	"github.com/go-arcade/huddle/internal/engine/config"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/service"
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/rdb"
	"github.com/go-arcade/huddle/pkg/shutdown"
	"github.com/go-arcade/huddle/pkg/trace"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		config.ProviderSet,
		// 基础设施
		log.ProviderSet,
		database.ProviderSet,
		rdb.ProviderSet,
		metrics.ProviderSet,
		trace.ProviderSet,
		// 仓储层
		repo.ProviderSet,
		// 通知
		notify.ProviderSet,
		// 服务层与定时任务
		service.ProviderSet,
		job.ProviderSet,
		shutdown.NewManager,
		bootstrap.NewApp,
	))
}
