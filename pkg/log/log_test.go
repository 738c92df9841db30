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


package log

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

// fileLog 初始化写入临时目录的全局 logger，返回读取日志内容的函数
func fileLog(t *testing.T, level string) func() string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, Init(&Conf{Output: "file", Path: dir, Filename: "test.log", Level: level}))
	t.Cleanup(func() { Init(SetDefaults()) })
	return func() string {
		_ = Sync()
		content, err := os.ReadFile(filepath.Join(dir, "test.log"))
		require.NoError(t, err)
		return string(content)
	}
}

func lineWith(content, msg string) string {
	for _, line := range strings.Split(content, "\n") {
		if strings.Contains(line, msg) {
			return line
		}
	}
	return ""
}

func TestConf_Validate(t *testing.T) {
	conf := &Conf{Output: "file", Path: "/tmp/logs"}
	require.NoError(t, conf.Validate())
	assert.Equal(t, 100, conf.RotateSize)
	assert.Equal(t, 10, conf.RotateNum)
	assert.Equal(t, 7, conf.KeepHours)

	assert.Error(t, (&Conf{Output: "file"}).Validate(), "file output needs a path")
	assert.NoError(t, (&Conf{Output: "stdout"}).Validate())
}

func TestSetLevel(t *testing.T) {
	read := fileLog(t, "INFO")

	Debugw("hidden before reload")
	SetLevel("debug")
	assert.Equal(t, zapcore.DebugLevel, GetLevel())
	Debugw("shown after reload")
	SetLevel("WARN")
	Infow("hidden after raise")
	Warnw("warn still shown")

	content := read()
	assert.NotContains(t, content, "hidden before reload")
	assert.Contains(t, content, "shown after reload")
	assert.NotContains(t, content, "hidden after raise")
	assert.Contains(t, content, "warn still shown")
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":   zapcore.DebugLevel,
		"warning": zapcore.WarnLevel,
		"ERROR":   zapcore.ErrorLevel,
		"INVALID": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for input, want := range tests {
		assert.Equal(t, want, parseLogLevel(input), input)
	}
}

func TestWithContext(t *testing.T) {
	read := fileLog(t, "INFO")

	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x0a, 0x0b, 0x0c, 0x0d, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c},
		SpanID:     trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	WithContext(ctx).Infow("inside span", "plan_id", 1)
	WithContext(context.Background()).Infow("outside span")

	content := read()
	inside := lineWith(content, "inside span")
	assert.Contains(t, inside, spanCtx.TraceID().String())
	assert.Contains(t, inside, spanCtx.SpanID().String())
	assert.NotContains(t, lineWith(content, "outside span"), "trace_id")
}

func TestCallerAnnotations(t *testing.T) {
	read := fileLog(t, "INFO")

	Infow("from package function")
	WithContext(context.Background()).Infow("from context logger")
	With("component", "test").Infow("from child logger")

	content := read()
	for _, msg := range []string{"from package function", "from context logger", "from child logger"} {
		line := lineWith(content, msg)
		assert.Contains(t, line, "log/log_test.go:", msg)
		assert.NotContains(t, line, "testing.go", msg)
	}
}

func TestLogRotation(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLog(&Conf{
		Output:     "file",
		Path:       dir,
		Filename:   "test.log",
		Level:      "INFO",
		KeepHours:  1,
		RotateSize: 1, // 1MB
		RotateNum:  3,
	})
	require.NoError(t, err)
	t.Cleanup(func() { Init(SetDefaults()) })

	filler := strings.Repeat("x", 100)
	sugar := logger.Sugar()
	for i := 0; i < 15000; i++ {
		sugar.Infow("rotation filler", "n", i, "pad", filler)
	}
	_ = logger.Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	rotated := 0
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "test") {
			rotated++
		}
	}
	assert.GreaterOrEqual(t, rotated, 2, "current file plus at least one backup")

	info, err := os.Stat(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(1<<20))
}
