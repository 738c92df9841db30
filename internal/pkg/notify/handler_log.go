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
	"fmt"

	"github.com/go-arcade/huddle/pkg/event"
	"github.com/go-arcade/huddle/pkg/log"
)

// LogHandler writes intents to the application log.
type LogHandler struct{}

func (LogHandler) Handle(ctx context.Context, e event.Event) error {
	intent, ok := e.(Intent)
	if !ok {
		return fmt.Errorf("unexpected event %T", e)
	}
	log.WithContext(ctx).Infow("notification intent",
		"intent_id", intent.ID,
		"kind", intent.Kind,
		"email", intent.Email,
		"plan_id", intent.Plan.PlanID,
		"is_host", intent.IsHost,
	)
	return nil
}
