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
	"net/mail"
	"strings"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/id"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/retry"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/pkg/errors"
)

const tokenAttempts = 5

var errTokenTaken = errors.New("invite token already taken")

// InvitationService 邀请令牌、归属关联与出席决定
type InvitationService struct {
	repos *repo.Repositories
	opts  Options
}

func NewInvitationService(repos *repo.Repositories, opts Options) *InvitationService {
	return &InvitationService{repos: repos, opts: opts}
}

// InvitationLookup 邀请链接的公开信息
type InvitationLookup struct {
	PlanID          uint64                        `json:"planId"`
	Title           string                        `json:"title"`
	Time            string                        `json:"time"`
	Deadline        time.Time                     `json:"deadline"`
	PlanStatus      statemachine.PlanStatus       `json:"planStatus"`
	Email           string                        `json:"email"`
	Status          statemachine.InvitationStatus `json:"status"`
	NeedsIdentity   bool                          `json:"needsIdentity"`
	DeadlinePassed  bool                          `json:"deadlinePassed"`
	DecisionOpen    bool                          `json:"decisionOpen"`
	WinningDate     *time.Time                    `json:"winningDate,omitempty"`
	WinningActivity *model.PlanActivity           `json:"winningActivity,omitempty"`
}

// NormalizeEmails 小写去重，非法地址返回校验错误
func NormalizeEmails(emails []string) ([]string, error) {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, raw := range emails {
		email := model.NormalizeEmail(raw)
		if email == "" {
			continue
		}
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return nil, common.Validation("invalid email %q", raw)
		}
		if _, ok := seen[email]; ok {
			continue
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}
	return out, nil
}

// Issue 为每个邮箱创建一条邀请，tx 为调用方的事务
func (s *InvitationService) Issue(ctx context.Context, tx *repo.Repositories, plan *model.Plan, emails []string) ([]notify.Intent, error) {
	emails, err := NormalizeEmails(emails)
	if err != nil {
		return nil, err
	}
	if len(emails) == 0 {
		return nil, nil
	}

	issued := make(map[string]struct{}, len(emails))
	invitations := make([]*model.Invitation, 0, len(emails))
	for _, email := range emails {
		token, err := newToken(ctx, tx, issued)
		if err != nil {
			return nil, err
		}
		issued[token] = struct{}{}
		invitations = append(invitations, &model.Invitation{
			PlanID:      plan.ID,
			Email:       email,
			InviteToken: token,
			Status:      statemachine.InvitationPending,
		})
	}
	if err := tx.Invitation.CreateInvitations(ctx, invitations); err != nil {
		return nil, err
	}

	summary := notify.SummaryOf(plan)
	intents := make([]notify.Intent, 0, len(invitations))
	for _, inv := range invitations {
		intents = append(intents, notify.InvitationCreated(inv.Email, inv.InviteToken, summary))
	}
	return intents, nil
}

// Reissue 整体替换计划的邀请集合
func (s *InvitationService) Reissue(ctx context.Context, tx *repo.Repositories, plan *model.Plan, emails []string) ([]notify.Intent, error) {
	if err := tx.Invitation.DeleteByPlan(ctx, plan.ID); err != nil {
		return nil, err
	}
	return s.Issue(ctx, tx, plan, emails)
}

func newToken(ctx context.Context, tx *repo.Repositories, issued map[string]struct{}) (string, error) {
	var token string
	err := retry.Do(ctx, func(ctx context.Context) error {
		token = id.GetUUIDWithoutDashes()
		if _, dup := issued[token]; dup {
			return errTokenTaken
		}
		exists, err := tx.Invitation.TokenExists(ctx, token)
		if err != nil {
			return retry.Permanent(err)
		}
		if exists {
			return errTokenTaken
		}
		return nil
	},
		retry.WithMaxAttempts(tokenAttempts),
		retry.WithBackoff(retry.Fixed(0)),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, errTokenTaken) }),
	)
	return token, err
}

// LinkPendingInvitationsToIdentity 用户登录后回填未关联的邀请
func (s *InvitationService) LinkPendingInvitationsToIdentity(ctx context.Context, identity model.Identity) (int64, error) {
	if !identity.Valid() || identity.Email == "" {
		return 0, common.Validation("identity requires user id and email")
	}
	n, err := s.repos.Invitation.LinkByEmail(ctx, identity.Email, identity.UserID)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.WithContext(ctx).Infow("linked pending invitations", "user_id", identity.UserID, "count", n)
	}
	return n, nil
}

// authorize 解析令牌并校验归属；邮箱匹配且未关联时就地关联，由调用方保存
func authorize(ctx context.Context, tx *repo.Repositories, identity model.Identity, token string) (*model.Invitation, error) {
	if !identity.Valid() {
		return nil, common.Unauthorized("missing identity")
	}
	if strings.TrimSpace(token) == "" {
		return nil, common.Validation("invitation token is required")
	}
	inv, err := tx.Invitation.GetByToken(ctx, token)
	if repo.IsNotFound(err) {
		return nil, common.NotFound("invitation not found")
	}
	if err != nil {
		return nil, err
	}

	switch {
	case inv.BelongsTo(identity):
	case inv.Linkable(identity):
		inv.Link(identity)
	default:
		return nil, common.Unauthorized("invitation does not belong to caller")
	}
	return inv, nil
}

// Respond 决策窗口内确认或拒绝出席
func (s *InvitationService) Respond(ctx context.Context, identity model.Identity, token string, status statemachine.InvitationStatus) (*model.Invitation, error) {
	if !status.IsDecided() {
		return nil, common.Validation("response must be accepted or declined, got %q", status)
	}
	now := s.opts.now()

	var out *model.Invitation
	err := s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		inv, err := authorize(ctx, tx, identity, token)
		if err != nil {
			return err
		}
		plan, err := tx.Plan.GetPlanForUpdate(ctx, inv.PlanID)
		if err != nil {
			return err
		}

		switch {
		case plan.Status == statemachine.PlanCancelled:
			return common.LifecycleConflict("plan %d is cancelled", plan.ID)
		case plan.Status != statemachine.PlanConfirmed:
			return common.LifecycleConflict("plan %d is not confirmed yet", plan.ID)
		case !plan.DecisionOpen() || !now.Before(plan.DecisionWindowEnd(s.opts.GracePeriod)):
			return common.LifecycleConflict("decision window of plan %d is closed", plan.ID)
		case !inv.RespondedBefore(plan.Deadline):
			return common.LifecycleConflict("invitee did not vote before the deadline")
		}

		if inv.Status != status {
			if err := inv.Respond(status, now); err != nil {
				return common.Wrap(common.KindLifecycleConflict, err, "respond")
			}
		}
		if err := tx.Invitation.SaveInvitation(ctx, inv); err != nil {
			return err
		}
		out = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithContext(ctx).Infow("invitation responded", "invitation_id", out.ID, "plan_id", out.PlanID, "status", out.Status)
	return out, nil
}

// Lookup 公开的邀请检查：是否存在、是否需要登录、是否已过截止时间
func (s *InvitationService) Lookup(ctx context.Context, token string) (*InvitationLookup, error) {
	inv, err := s.repos.Invitation.GetByToken(ctx, token)
	if repo.IsNotFound(err) {
		return nil, common.NotFound("invitation not found")
	}
	if err != nil {
		return nil, err
	}
	plan, err := s.repos.Plan.GetPlanWithOptions(ctx, inv.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	out := &InvitationLookup{
		PlanID:         plan.ID,
		Title:          plan.Title,
		Time:           plan.Time,
		Deadline:       plan.Deadline,
		PlanStatus:     plan.Status,
		Email:          inv.Email,
		Status:         inv.Status,
		NeedsIdentity:  inv.InviteeID == nil,
		DeadlinePassed: plan.DeadlinePassed(now),
		DecisionOpen:   plan.DecisionOpen() && now.Before(plan.DecisionWindowEnd(s.opts.GracePeriod)),
		WinningDate:    plan.ConfirmedDate,
	}
	if plan.ConfirmedActivityID != nil {
		for i := range plan.Activities {
			if plan.Activities[i].ID == *plan.ConfirmedActivityID {
				out.WinningActivity = &plan.Activities[i]
				break
			}
		}
	}
	return out, nil
}

// Roster 按出席决定划分受邀者；截止前未投票的人不在确认或拒绝名单中
func (s *InvitationService) Roster(ctx context.Context, planID uint64) (*model.Roster, error) {
	plan, err := s.repos.Plan.GetPlan(ctx, planID)
	if repo.IsNotFound(err) {
		return nil, common.NotFound("plan %d not found", planID)
	}
	if err != nil {
		return nil, err
	}
	invitations, err := s.repos.Invitation.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	roster := model.BuildRoster(invitations, plan.Deadline)
	return &roster, nil
}
