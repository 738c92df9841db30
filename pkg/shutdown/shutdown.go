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

package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
)

// Manager 关闭信号，只触发一次
type Manager struct {
	shuttingDown atomic.Bool
	done         chan struct{}
}

func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

// IsShuttingDown returns true once Shutdown has been called.
func (m *Manager) IsShuttingDown() bool {
	return m.shuttingDown.Load()
}

// Shutdown triggers shutdown. It returns false if it was already triggered.
func (m *Manager) Shutdown() bool {
	if !m.shuttingDown.CompareAndSwap(false, true) {
		return false
	}
	close(m.done)
	return true
}

// Wait is closed when shutdown starts.
func (m *Manager) Wait() <-chan struct{} {
	return m.done
}

// Context returns a context cancelled when shutdown starts.
func (m *Manager) Context(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	go func() {
		select {
		case <-m.done:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// OnSignal triggers shutdown on the first of sigs and reports which one arrived.
func (m *Manager) OnSignal(sigs ...os.Signal) <-chan os.Signal {
	ch := make(chan os.Signal, 1)
	got := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		select {
		case sig := <-ch:
			got <- sig
			m.Shutdown()
		case <-m.done:
		}
		signal.Stop(ch)
	}()
	return got
}
