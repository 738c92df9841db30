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
	"sort"
	"strings"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/service/tally"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/retry"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/pkg/errors"
)

const cancelAttempts = 3

var errCancelRaced = errors.New("plan status changed before cancel")

// CreatePlanReq 创建计划
type CreatePlanReq struct {
	Title      string          `json:"title"`
	Time       string          `json:"time"` // HH:MM
	ImageURL   string          `json:"image"`
	Deadline   time.Time       `json:"deadline"`
	Dates      []string        `json:"dates"` // YYYY-MM-DD
	Activities []ActivityInput `json:"activities"`
	Invites    []string        `json:"invites"`
	HostVote   bool            `json:"hostVote"`
}

// UpdatePlanReq 编辑计划，nil 字段保持不变；Invites 非 nil 时整体替换邀请
type UpdatePlanReq struct {
	Title    *string    `json:"title,omitempty"`
	Time     *string    `json:"time,omitempty"`
	ImageURL *string    `json:"image,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
	Invites  []string   `json:"invites,omitempty"`
}

// PlanView 计划详情，选项带派生票数
type PlanView struct {
	*model.Plan
	Invitations []model.Invitation `json:"invitations"`
	IsHost      bool               `json:"isHost"`
}

type PlanService struct {
	repos       *repo.Repositories
	invitations *InvitationService
	calculator  *tally.Calculator
	notifier    notify.Notifier
	opts        Options
}

func NewPlanService(repos *repo.Repositories, invitations *InvitationService, calculator *tally.Calculator, notifier notify.Notifier, opts Options) *PlanService {
	return &PlanService{
		repos:       repos,
		invitations: invitations,
		calculator:  calculator,
		notifier:    notifier,
		opts:        opts,
	}
}

func validTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil && len(s) == 5
}

func (req *CreatePlanReq) validate(now time.Time) ([]time.Time, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, common.Validation("title is required")
	}
	if !validTime(req.Time) {
		return nil, common.Validation("time must be HH:MM, got %q", req.Time)
	}
	if !req.Deadline.After(now) {
		return nil, common.Validation("deadline must be in the future")
	}

	dates := make([]time.Time, 0, len(req.Dates))
	seen := make(map[time.Time]struct{}, len(req.Dates))
	for _, raw := range req.Dates {
		d, err := time.Parse(time.DateOnly, strings.TrimSpace(raw))
		if err != nil {
			return nil, common.Validation("invalid date %q", raw)
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		dates = append(dates, d)
	}
	if len(dates) == 0 {
		return nil, common.Validation("at least one date is required")
	}

	if len(req.Activities) == 0 {
		return nil, common.Validation("at least one activity is required")
	}
	for _, a := range req.Activities {
		if !a.complete() {
			return nil, common.Validation("activity needs a name and a location")
		}
	}
	return dates, nil
}

// CreatePlan 创建计划、选项与邀请；hostVote 时发起人为全部选项投票
func (s *PlanService) CreatePlan(ctx context.Context, identity model.Identity, req CreatePlanReq) (*PlanView, error) {
	if !identity.Valid() {
		return nil, common.Unauthorized("missing identity")
	}
	now := s.opts.now()
	dates, err := req.validate(now)
	if err != nil {
		return nil, err
	}
	if _, err := NormalizeEmails(req.Invites); err != nil {
		return nil, err
	}

	plan := &model.Plan{
		HostID:    identity.UserID,
		HostEmail: model.NormalizeEmail(identity.Email),
		Title:     req.Title,
		Time:      req.Time,
		ImageURL:  strings.TrimSpace(req.ImageURL),
		Deadline:  req.Deadline.UTC(),
		Status:    statemachine.PlanPending,
	}
	for _, d := range dates {
		plan.Dates = append(plan.Dates, model.PlanDate{Date: d})
	}
	for _, a := range req.Activities {
		plan.Activities = append(plan.Activities, model.PlanActivity{
			Name:     strings.TrimSpace(a.Name),
			Location: strings.TrimSpace(a.Location),
		})
	}

	var intents []notify.Intent
	err = s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		if err := tx.Plan.CreatePlan(ctx, plan); err != nil {
			return err
		}
		if req.HostVote {
			if err := tx.Vote.ReplaceVotes(ctx, plan.ID, identity.UserID, dateIDs(plan.Dates), activityIDs(plan.Activities)); err != nil {
				return err
			}
		}
		var err error
		intents, err = s.invitations.Issue(ctx, tx, plan, req.Invites)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithContext(ctx).Infow("plan created",
		"plan_id", plan.ID,
		"host_id", plan.HostID,
		"dates", len(plan.Dates),
		"activities", len(plan.Activities),
		"invitations", len(intents),
	)
	s.notifier.Notify(ctx, intents...)
	return s.GetPlan(ctx, identity, plan.ID)
}

// UpdatePlan 仅发起人、仅 pending 状态可编辑
func (s *PlanService) UpdatePlan(ctx context.Context, identity model.Identity, planID uint64, req UpdatePlanReq) (*PlanView, error) {
	now := s.opts.now()
	updates := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, common.Validation("title cannot be empty")
		}
		updates["title"] = title
	}
	if req.Time != nil {
		if !validTime(*req.Time) {
			return nil, common.Validation("time must be HH:MM, got %q", *req.Time)
		}
		updates["time"] = *req.Time
	}
	if req.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*req.ImageURL)
	}
	if req.Deadline != nil {
		if !req.Deadline.After(now) {
			return nil, common.Validation("deadline must be in the future")
		}
		updates["deadline"] = req.Deadline.UTC()
	}
	if req.Invites != nil {
		if _, err := NormalizeEmails(req.Invites); err != nil {
			return nil, err
		}
	}

	var intents []notify.Intent
	err := s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		plan, err := tx.Plan.GetPlanForUpdate(ctx, planID)
		if repo.IsNotFound(err) {
			return common.NotFound("plan %d not found", planID)
		}
		if err != nil {
			return err
		}
		if !plan.IsHost(identity) {
			return common.Unauthorized("only the host can edit plan %d", planID)
		}
		if plan.Status != statemachine.PlanPending {
			return common.LifecycleConflict("plan %d is %s", planID, plan.Status)
		}

		if len(updates) > 0 {
			ok, err := tx.Plan.UpdatePendingPlan(ctx, planID, updates)
			if err != nil {
				return err
			}
			if !ok {
				return common.LifecycleConflict("plan %d is no longer pending", planID)
			}
			if plan, err = tx.Plan.GetPlan(ctx, planID); err != nil {
				return err
			}
		}
		if req.Invites != nil {
			intents, err = s.invitations.Reissue(ctx, tx, plan, req.Invites)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithContext(ctx).Infow("plan updated", "plan_id", planID, "fields", len(updates), "reissued", req.Invites != nil)
	s.notifier.Notify(ctx, intents...)
	return s.GetPlan(ctx, identity, planID)
}

// CancelPlan 取消计划，pending 与 confirmed 均可取消
func (s *PlanService) CancelPlan(ctx context.Context, identity model.Identity, planID uint64) error {
	var from statemachine.PlanStatus
	err := retry.Do(ctx, func(ctx context.Context) error {
		plan, err := s.repos.Plan.GetPlan(ctx, planID)
		if repo.IsNotFound(err) {
			return common.NotFound("plan %d not found", planID)
		}
		if err != nil {
			return err
		}
		if !plan.IsHost(identity) {
			return common.Unauthorized("only the host can cancel plan %d", planID)
		}

		from = plan.Status
		if err := plan.Cancel(); err != nil {
			return common.Wrap(common.KindLifecycleConflict, err, "cancel plan")
		}
		ok, err := s.repos.Plan.CancelPlan(ctx, planID, from)
		if err != nil {
			return err
		}
		if !ok {
			// 状态在读取后被确认任务改变，重新读取
			return errCancelRaced
		}
		return nil
	},
		retry.WithMaxAttempts(cancelAttempts),
		retry.WithBackoff(retry.Fixed(0)),
		retry.WithRetryIf(func(err error) bool { return errors.Is(err, errCancelRaced) }),
	)
	if errors.Is(err, errCancelRaced) {
		return common.LifecycleConflict("plan %d changed concurrently", planID)
	}
	if err != nil {
		return err
	}
	log.WithContext(ctx).Infow("plan cancelled", "plan_id", planID, "from", from)
	return nil
}

// GetPlan 发起人或受邀者查看计划详情
func (s *PlanService) GetPlan(ctx context.Context, identity model.Identity, planID uint64) (*PlanView, error) {
	plan, err := s.repos.Plan.GetPlanWithOptions(ctx, planID)
	if repo.IsNotFound(err) {
		return nil, common.NotFound("plan %d not found", planID)
	}
	if err != nil {
		return nil, err
	}
	ok, err := canAccess(ctx, s.repos, identity, plan)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.Unauthorized("no access to plan %d", planID)
	}

	result, err := s.calculator.Tally(ctx, planID)
	if err != nil {
		return nil, err
	}
	for i := range plan.Dates {
		plan.Dates[i].Votes = result.DateCounts[plan.Dates[i].ID]
	}
	for i := range plan.Activities {
		plan.Activities[i].Votes = result.ActivityCounts[plan.Activities[i].ID]
	}

	invitations, err := s.repos.Invitation.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	return &PlanView{Plan: plan, Invitations: invitations, IsHost: plan.IsHost(identity)}, nil
}

// ListPlans 用户发起或被邀请的计划，按截止时间排序
func (s *PlanService) ListPlans(ctx context.Context, identity model.Identity) ([]model.Plan, error) {
	if !identity.Valid() {
		return nil, common.Unauthorized("missing identity")
	}
	hosted, err := s.repos.Plan.ListPlansByHost(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}
	invitedIDs, err := s.repos.Invitation.ListPlanIDsForIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	invited, err := s.repos.Plan.ListPlansByIDs(ctx, invitedIDs)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint64]struct{}, len(hosted)+len(invited))
	plans := make([]model.Plan, 0, len(hosted)+len(invited))
	for _, p := range append(hosted, invited...) {
		if _, ok := seen[p.ID]; ok {
			continue
		}
		seen[p.ID] = struct{}{}
		plans = append(plans, p)
	}
	sort.SliceStable(plans, func(i, j int) bool {
		if !plans[i].Deadline.Equal(plans[j].Deadline) {
			return plans[i].Deadline.Before(plans[j].Deadline)
		}
		return plans[i].ID < plans[j].ID
	})
	return plans, nil
}

// PreviewTally 当前计票结果，不修改任何数据
func (s *PlanService) PreviewTally(ctx context.Context, identity model.Identity, planID uint64) (tally.Result, error) {
	plan, err := s.repos.Plan.GetPlan(ctx, planID)
	if repo.IsNotFound(err) {
		return tally.Result{}, common.NotFound("plan %d not found", planID)
	}
	if err != nil {
		return tally.Result{}, err
	}
	ok, err := canAccess(ctx, s.repos, identity, plan)
	if err != nil {
		return tally.Result{}, err
	}
	if !ok {
		return tally.Result{}, common.Unauthorized("no access to plan %d", planID)
	}
	return s.calculator.Tally(ctx, planID)
}

func dateIDs(dates []model.PlanDate) []uint64 {
	ids := make([]uint64, 0, len(dates))
	for _, d := range dates {
		ids = append(ids, d.ID)
	}
	return ids
}

func activityIDs(activities []model.PlanActivity) []uint64 {
	ids := make([]uint64, 0, len(activities))
	for _, a := range activities {
		ids = append(ids, a.ID)
	}
	return ids
}
