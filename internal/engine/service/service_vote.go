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
	"strings"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/metrics"
)

// ActivityInput 新活动：发起人创建或受邀者投票时建议
type ActivityInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (a ActivityInput) complete() bool {
	return strings.TrimSpace(a.Name) != "" && strings.TrimSpace(a.Location) != ""
}

// SubmitVotesReq 一次完整的投票提交，会替换该用户之前的全部选择
type SubmitVotesReq struct {
	Token       string          `json:"token"`
	DateIDs     []uint64        `json:"dateIds"`
	ActivityIDs []uint64        `json:"activityIds"`
	Suggestions []ActivityInput `json:"suggestions"`
}

type VoteService struct {
	repos *repo.Repositories
	opts  Options
}

func NewVoteService(repos *repo.Repositories, opts Options) *VoteService {
	return &VoteService{repos: repos, opts: opts}
}

// SubmitVotes validates and atomically replaces the caller's selections.
func (s *VoteService) SubmitVotes(ctx context.Context, identity model.Identity, req SubmitVotesReq) (*model.UserVotes, error) {
	out, err := s.submitVotes(ctx, identity, req)
	result := metrics.ResultOK
	if err != nil {
		result = metrics.ResultError
		if kind := common.KindOf(err); kind != 0 {
			result = kind.String()
		}
	}
	metrics.RecordVoteSubmission(result)
	return out, err
}

func (s *VoteService) submitVotes(ctx context.Context, identity model.Identity, req SubmitVotesReq) (*model.UserVotes, error) {
	dateIDs := dedupe(req.DateIDs)
	activityIDs := dedupe(req.ActivityIDs)
	suggestions := make([]ActivityInput, 0, len(req.Suggestions))
	for _, sg := range req.Suggestions {
		if sg.complete() {
			suggestions = append(suggestions, ActivityInput{Name: strings.TrimSpace(sg.Name), Location: strings.TrimSpace(sg.Location)})
		}
	}
	if len(dateIDs) == 0 {
		return nil, common.Validation("select at least one date")
	}
	if len(activityIDs)+len(suggestions) == 0 {
		return nil, common.Validation("select or suggest at least one activity")
	}

	now := s.opts.now()
	var out *model.UserVotes
	err := s.repos.Transaction(ctx, func(tx *repo.Repositories) error {
		inv, err := authorize(ctx, tx, identity, req.Token)
		if err != nil {
			return err
		}
		if inv.Status.IsDecided() {
			return common.LifecycleConflict("invitation already %s", inv.Status)
		}

		// 行锁后再检查状态，确认任务提交后的投票在这里被拒绝
		plan, err := tx.Plan.GetPlanForUpdate(ctx, inv.PlanID)
		if err != nil {
			return err
		}
		if !plan.Status.AcceptsVotes() {
			return common.LifecycleConflict("plan %d is %s", plan.ID, plan.Status)
		}

		if err := s.checkOptions(ctx, tx, plan.ID, dateIDs, activityIDs); err != nil {
			return err
		}

		if len(suggestions) > 0 {
			rows := make([]model.PlanActivity, 0, len(suggestions))
			for _, sg := range suggestions {
				suggestedBy := identity.UserID
				rows = append(rows, model.PlanActivity{
					PlanID:      plan.ID,
					Name:        sg.Name,
					Location:    sg.Location,
					SuggestedBy: &suggestedBy,
				})
			}
			created, err := tx.Plan.CreateActivities(ctx, rows)
			if err != nil {
				return err
			}
			for _, a := range created {
				activityIDs = append(activityIDs, a.ID)
			}
		}

		if err := tx.Vote.ReplaceVotes(ctx, plan.ID, identity.UserID, dateIDs, activityIDs); err != nil {
			return err
		}
		if err := inv.MarkResponded(now); err != nil {
			return common.Wrap(common.KindLifecycleConflict, err, "mark responded")
		}
		if err := tx.Invitation.SaveInvitation(ctx, inv); err != nil {
			return err
		}

		out, err = tx.Vote.GetUserVotes(ctx, plan.ID, identity.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.WithContext(ctx).Infow("votes submitted",
		"plan_id", out.PlanID,
		"user_id", identity.UserID,
		"dates", len(out.DateIDs),
		"activities", len(out.ActivityIDs),
	)
	return out, nil
}

func (s *VoteService) checkOptions(ctx context.Context, tx *repo.Repositories, planID uint64, dateIDs, activityIDs []uint64) error {
	dates, err := tx.Plan.ListDates(ctx, planID)
	if err != nil {
		return err
	}
	known := make(map[uint64]struct{}, len(dates))
	for _, d := range dates {
		known[d.ID] = struct{}{}
	}
	for _, id := range dateIDs {
		if _, ok := known[id]; !ok {
			return common.Validation("date %d does not belong to plan %d", id, planID)
		}
	}

	activities, err := tx.Plan.ListActivities(ctx, planID)
	if err != nil {
		return err
	}
	known = make(map[uint64]struct{}, len(activities))
	for _, a := range activities {
		known[a.ID] = struct{}{}
	}
	for _, id := range activityIDs {
		if _, ok := known[id]; !ok {
			return common.Validation("activity %d does not belong to plan %d", id, planID)
		}
	}
	return nil
}

// UserVotes returns the caller's current selections on a plan.
func (s *VoteService) UserVotes(ctx context.Context, identity model.Identity, planID uint64) (*model.UserVotes, error) {
	plan, err := s.repos.Plan.GetPlan(ctx, planID)
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
	return s.repos.Vote.GetUserVotes(ctx, planID, identity.UserID)
}

func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
