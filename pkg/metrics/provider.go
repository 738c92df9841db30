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

package metrics

import (
	"sync"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
)

// ProviderSet 提供 metrics 相关依赖
var ProviderSet = wire.NewSet(ProvideServer, NewCronMetricsRecorder)

var registerOnce sync.Map

// ProvideServer creates the metrics server with job and plan metrics registered.
func ProvideServer(config MetricsConfig) *Server {
	server := NewServer(config)
	RegisterDefault(server.GetRegistry())
	return server
}

// RegisterDefault registers the package level metrics once per registry.
func RegisterDefault(registry *prometheus.Registry) {
	if _, loaded := registerOnce.LoadOrStore(registry, struct{}{}); loaded {
		return
	}
	registry.MustRegister(cronCollectors()...)
	registry.MustRegister(planCollectors()...)
}
