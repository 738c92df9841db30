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

package service

import (
	"context"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/service/tally"
	"github.com/go-arcade/huddle/internal/pkg/notify"
)

// Options 服务层共享配置
type Options struct {
	// GracePeriod 计划确认后决策窗口的长度，从截止时间起算
	GracePeriod time.Duration
	Now         common.Clock
}

func (o Options) now() time.Time {
	return o.Now.Now()
}

// Services 统一管理所有 service
type Services struct {
	Plan       *PlanService
	Vote       *VoteService
	Invitation *InvitationService
	Tally      *tally.Calculator
}

// NewServices 初始化所有 service
func NewServices(repos *repo.Repositories, notifier notify.Notifier, opts Options) *Services {
	calculator := tally.NewCalculator(repos.Vote)
	invitationService := NewInvitationService(repos, opts)
	return &Services{
		Plan:       NewPlanService(repos, invitationService, calculator, notifier, opts),
		Vote:       NewVoteService(repos, opts),
		Invitation: invitationService,
		Tally:      calculator,
	}
}

// canAccess 发起人或受邀者可以查看计划
func canAccess(ctx context.Context, repos *repo.Repositories, identity model.Identity, plan *model.Plan) (bool, error) {
	if plan.IsHost(identity) {
		return true, nil
	}
	invitations, err := repos.Invitation.ListByPlan(ctx, plan.ID)
	if err != nil {
		return false, err
	}
	for i := range invitations {
		if invitations[i].BelongsTo(identity) || invitations[i].Linkable(identity) {
			return true, nil
		}
	}
	return false, nil
}
