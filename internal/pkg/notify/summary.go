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

import "github.com/go-arcade/huddle/internal/engine/model"

// SummaryOf builds the plan part of an intent.
func SummaryOf(p *model.Plan) PlanSummary {
	return PlanSummary{
		PlanID:    p.ID,
		Title:     p.Title,
		Time:      p.Time,
		ImageURL:  p.ImageURL,
		HostEmail: p.HostEmail,
	}
}

// OptionOf converts a confirmed activity; nil stays nil.
func OptionOf(a *model.PlanActivity) *Option {
	if a == nil {
		return nil
	}
	return &Option{ID: a.ID, Name: a.Name, Location: a.Location}
}
