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

package main

import (
	"context"
	"fmt"
	"strings"
	"syscall"

	"github.com/go-arcade/huddle/internal/engine/bootstrap"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/version"
	"github.com/spf13/cobra"
)

/**
 * @file: main.go
 * @description: huddle server and maintenance commands
 */

var configFile string

var rootCmd = &cobra.Command{
	Use:          "huddle",
	Short:        "huddle runs group plan polls",
	Long:         "huddle collects date and activity votes for group plans, confirms them at the deadline and manages the attendance window.",
	SilenceUsage: true,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scheduler and metrics server",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		return bootstrap.Run(app, cleanup)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()
		return app.Migrate()
	},
}

var jobCmd = &cobra.Command{
	Use:   "job",
	Short: "Periodic job commands",
}

var jobRunCmd = &cobra.Command{
	Use:       "run <name|all>",
	Short:     "Run one job, or all of them, once and exit",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "finalizer", "closer", "reminder", "countdown"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
		if err != nil {
			return err
		}
		defer cleanup()

		app.Shutdown.OnSignal(syscall.SIGINT, syscall.SIGTERM)
		ctx, cancel := app.Shutdown.Context(context.Background())
		defer cancel()

		name := strings.ToLower(args[0])
		if name == "all" {
			return app.Jobs.RunAll(ctx)
		}
		job, ok := app.Jobs.ByName(name)
		if !ok {
			return fmt.Errorf("unknown job %q, expected one of %s or all", name, strings.Join(app.Jobs.Names(), ", "))
		}
		log.Infow("running job once", "job", name)
		return job.Run(ctx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "conf", "c", "conf.d/config.toml", "config file path")
	jobCmd.AddCommand(jobRunCmd)
	rootCmd.AddCommand(serveCmd, migrateCmd, jobCmd, version.VersionCmd)
}

func main() {
	defer func() { _ = log.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		log.Errorw("command failed", "error", err)
		_ = log.Sync()
		panic(err)
	}
}
