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

package bootstrap

import (
	"context"
	"syscall"
	"time"

	"github.com/go-arcade/huddle/internal/engine/config"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/service"
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/shutdown"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const stopTimeout = 30 * time.Second

type App struct {
	Conf      *config.AppConfig
	Logger    *log.Logger
	DB        database.Manager
	Repos     *repo.Repositories
	Services  *service.Services
	Jobs      job.Jobs
	Scheduler *job.Scheduler
	Metrics   *metrics.Server
	Tracer    *sdktrace.TracerProvider
	Shutdown  *shutdown.Manager
}

// InitAppFunc init app function type
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	conf *config.AppConfig,
	logger *log.Logger,
	db database.Manager,
	repos *repo.Repositories,
	services *service.Services,
	jobs job.Jobs,
	scheduler *job.Scheduler,
	metricsServer *metrics.Server,
	tracer *sdktrace.TracerProvider,
	sd *shutdown.Manager,
) *App {
	return &App{
		Conf:      conf,
		Logger:    logger,
		DB:        db,
		Repos:     repos,
		Services:  services,
		Jobs:      jobs,
		Scheduler: scheduler,
		Metrics:   metricsServer,
		Tracer:    tracer,
		Shutdown:  sd,
	}
}

// Bootstrap builds the App through wire and returns it with its cleanup.
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), error) {
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, err
	}
	return app, cleanup, nil
}

// Migrate creates or updates every registered table.
func (a *App) Migrate() error {
	if err := database.AutoMigrate(a.DB.DB()); err != nil {
		return err
	}
	log.Infow("database migrated", "driver", a.DB.Driver())
	return nil
}

// Run starts the metrics server and the scheduler, then blocks until a signal
// arrives or Shutdown is triggered elsewhere.
func Run(app *App, cleanup func()) error {
	logger := app.Logger.Log
	defer cleanup()

	if err := app.Metrics.Start(); err != nil {
		return err
	}
	if app.Conf.Scheduler.Enabled {
		app.Scheduler.Start()
	} else {
		logger.Infow("scheduler disabled, jobs run only through the job command")
	}

	sigs := app.Shutdown.OnSignal(syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-app.Shutdown.Wait()
	select {
	case sig := <-sigs:
		logger.Infow("received signal, shutting down gracefully", "signal", sig.String())
	default:
		logger.Infow("shutting down gracefully")
	}

	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	// 先停调度器，等待正在运行的任务结束
	if app.Conf.Scheduler.Enabled {
		if err := app.Scheduler.Stop(ctx); err != nil {
			logger.Errorw("scheduler stop timed out", "error", err)
		}
	}
	if err := app.Metrics.Stop(ctx); err != nil {
		logger.Errorw("metrics server shutdown error", "error", err)
	}

	logger.Infow("server shutdown complete")
	return nil
}
