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
	"context"

	"github.com/go-arcade/huddle/pkg/event"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
	"github.com/go-arcade/huddle/pkg/safe"
)

// Notifier hands intents to the delivery side. It never fails the caller:
// errors are logged and counted.
type Notifier interface {
	Notify(ctx context.Context, intents ...Intent)
}

// Dispatcher publishes intents on an event bus.
type Dispatcher struct {
	bus *event.EventBus
}

func NewDispatcher(bus *event.EventBus) *Dispatcher {
	if bus == nil {
		bus = event.NewEventBus()
	}
	return &Dispatcher{bus: bus}
}

// Use subscribes h to every intent kind.
func (d *Dispatcher) Use(h event.EventHandler) *Dispatcher {
	d.bus.RegisterHandler(event.Wildcard, h)
	return d
}

// On subscribes h to one intent kind.
func (d *Dispatcher) On(kind Kind, h event.EventHandler) *Dispatcher {
	d.bus.RegisterHandler(string(kind), h)
	return d
}

func (d *Dispatcher) Notify(ctx context.Context, intents ...Intent) {
	for _, intent := range intents {
		err := safe.DoErr(func() error {
			return d.bus.Publish(ctx, intent)
		})
		metrics.RecordNotification(string(intent.Kind), err)
		if err != nil {
			log.WithContext(ctx).Errorw("failed to dispatch notification",
				"intent_id", intent.ID,
				"kind", intent.Kind,
				"plan_id", intent.Plan.PlanID,
				"error", err,
			)
		}
	}
}
