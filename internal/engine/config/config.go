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
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/rdb"
	"github.com/go-arcade/huddle/pkg/trace"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 HUDDLE_DATABASE_MYSQL_PASSWORD
const EnvPrefix = "HUDDLE"

type AppConfig struct {
	Log       log.Conf
	Database  database.Database
	Redis     rdb.Redis
	Metrics   metrics.MetricsConfig
	Trace     trace.Conf
	Scheduler job.Conf
	Notify    notify.Conf
}

// envKeys 没有出现在配置文件里也允许通过环境变量覆盖的键
var envKeys = []string{
	"log.level",
	"database.driver",
	"database.mysql.host",
	"database.mysql.port",
	"database.mysql.user",
	"database.mysql.password",
	"database.mysql.dbname",
	"database.sqlite.path",
	"redis.address",
	"redis.password",
	"notify.driver",
	"scheduler.enabled",
	"scheduler.timezone",
	"scheduler.gracePeriod",
	"trace.enabled",
	"trace.endpoint",
}

var (
	cfg  *AppConfig
	once sync.Once
	mu   sync.Mutex
)

// NewConf loads the config once per process and watches it for log level changes.
func NewConf(path string) (*AppConfig, error) {
	var err error
	once.Do(func() {
		var v *viper.Viper
		var c AppConfig
		v, c, err = load(path)
		if err != nil {
			return
		}
		cfg = &c
		watch(v)
	})
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config %s failed to load earlier", path)
	}
	return cfg, nil
}

// LoadConfigFile reads path, the environment and an optional .env file next to it.
func LoadConfigFile(path string) (AppConfig, error) {
	_, c, err := load(path)
	return c, err
}

func load(path string) (*viper.Viper, AppConfig, error) {
	var c AppConfig
	if err := loadDotEnv(path); err != nil {
		return nil, c, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, c, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, c, fmt.Errorf("failed to read configuration file: %w", err)
	}
	if err := v.Unmarshal(&c); err != nil {
		return nil, c, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	if err := c.complete(); err != nil {
		return nil, c, err
	}
	log.Infow("config file loaded", "path", path)
	return v, c, nil
}

// loadDotEnv 不覆盖已存在的环境变量
func loadDotEnv(path string) error {
	candidates := []string{filepath.Join(filepath.Dir(path), ".env"), ".env"}
	seen := map[string]bool{}
	for _, f := range candidates {
		abs, err := filepath.Abs(f)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load %s: %w", abs, err)
		}
	}
	return nil
}

// complete fills defaults and validates every section.
func (c *AppConfig) complete() error {
	def := log.SetDefaults()
	if c.Log.Output == "" {
		c.Log.Output = def.Output
	}
	if c.Log.Path == "" {
		c.Log.Path = def.Path
	}
	if c.Log.Filename == "" {
		c.Log.Filename = def.Filename
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Level
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}

	c.Metrics.SetDefaults()
	c.Trace.SetDefaults()
	c.Notify.SetDefaults()
	c.Scheduler.SetDefaults()
	if _, err := c.Scheduler.Grace(); err != nil {
		return err
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	switch c.Notify.Driver {
	case notify.DriverLog:
	case notify.DriverQueue:
		if c.Redis.Address == "" {
			return fmt.Errorf("notify driver %q requires redis.address", c.Notify.Driver)
		}
	default:
		return fmt.Errorf("unknown notify driver %q", c.Notify.Driver)
	}
	return nil
}

// watch 只热更新日志级别，其余配置需要重启
func watch(v *viper.Viper) {
	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			log.Warnw("failed to reload configuration", "file", e.Name, "error", err)
			return
		}
		if next.Log.Level == "" {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if next.Log.Level != cfg.Log.Level {
			log.Infow("log level changed", "from", cfg.Log.Level, "to", next.Log.Level)
			cfg.Log.Level = next.Log.Level
			log.SetLevel(next.Log.Level)
		}
	})
	v.WatchConfig()
}
