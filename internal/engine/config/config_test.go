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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[log]
level = "DEBUG"

[database]
driver = "sqlite"
maxOpenConns = 4

[database.sqlite]
path = "huddle.db"

[scheduler]
enabled = true
timezone = "UTC"
gracePeriod = "2d"
countdownMilestones = [3, 1]

[notify]
driver = "log"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	cfg, err := LoadConfigFile(writeConfig(t, sample))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Log.Level)
	assert.Equal(t, "stdout", cfg.Log.Output)
	assert.Equal(t, database.DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, "huddle.db", cfg.Database.SQLite.Path)

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, []int{3, 1}, cfg.Scheduler.CountdownMilestones)
	assert.Equal(t, "@every 30s", cfg.Scheduler.FinalizerSpec)
	grace, err := cfg.Scheduler.Grace()
	require.NoError(t, err)
	assert.Equal(t, 48*time.Hour, grace)

	assert.Equal(t, notify.DriverLog, cfg.Notify.Driver)
	assert.Equal(t, "notify", cfg.Notify.Queue)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, "huddle", cfg.Trace.ServiceName)
}

func TestLoadConfigFile_Env(t *testing.T) {
	path := writeConfig(t, sample)
	t.Setenv("HUDDLE_DATABASE_SQLITE_PATH", "/tmp/override.db")
	t.Setenv("HUDDLE_SCHEDULER_GRACEPERIOD", "6h")

	const key = "HUDDLE_REDIS_ADDRESS"
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), ".env"),
		[]byte(key+"=localhost:6379\nHUDDLE_DATABASE_SQLITE_PATH=/tmp/ignored.db\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.SQLite.Path, "process env wins over .env")
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	grace, err := cfg.Scheduler.Grace()
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, grace)
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"queue without redis", "[database]\ndriver = \"sqlite\"\n[database.sqlite]\npath = \"x.db\"\n[notify]\ndriver = \"queue\"\n"},
		{"unknown notify driver", "[database]\ndriver = \"sqlite\"\n[database.sqlite]\npath = \"x.db\"\n[notify]\ndriver = \"pigeon\"\n"},
		{"bad grace period", "[database]\ndriver = \"sqlite\"\n[database.sqlite]\npath = \"x.db\"\n[scheduler]\ngracePeriod = \"soon\"\n"},
		{"bad timezone", "[database]\ndriver = \"sqlite\"\n[database.sqlite]\npath = \"x.db\"\n[scheduler]\ntimezone = \"Nowhere/Else\"\n"},
		{"missing mysql host", "[database]\ndriver = \"mysql\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
