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

package repo

import (
	"context"

	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/pkg/errors"
)

type IVoteRepository interface {
	ListDateVotes(ctx context.Context, planID uint64) ([]model.DateVote, error)
	ListActivityVotes(ctx context.Context, planID uint64) ([]model.ActivityVote, error)
	ReplaceVotes(ctx context.Context, planID uint64, userID string, dateIDs, activityIDs []uint64) error
	GetUserVotes(ctx context.Context, planID uint64, userID string) (*model.UserVotes, error)
	ListVoterIDs(ctx context.Context, planID uint64) ([]string, error)
}

type VoteRepo struct {
	database.IDatabase
}

func NewVoteRepo(db database.IDatabase) IVoteRepository {
	return &VoteRepo{IDatabase: db}
}

func (r *VoteRepo) ListDateVotes(ctx context.Context, planID uint64) ([]model.DateVote, error) {
	var votes []model.DateVote
	err := r.Database().WithContext(ctx).Where("plan_id = ?", planID).Order("id ASC").Find(&votes).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list date votes of plan %d", planID)
	}
	return votes, nil
}

func (r *VoteRepo) ListActivityVotes(ctx context.Context, planID uint64) ([]model.ActivityVote, error) {
	var votes []model.ActivityVote
	err := r.Database().WithContext(ctx).Where("plan_id = ?", planID).Order("id ASC").Find(&votes).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list activity votes of plan %d", planID)
	}
	return votes, nil
}

// ReplaceVotes 删除该用户在计划下的全部投票后重新写入，调用方负责事务
func (r *VoteRepo) ReplaceVotes(ctx context.Context, planID uint64, userID string, dateIDs, activityIDs []uint64) error {
	db := r.Database().WithContext(ctx)
	if err := db.Where("plan_id = ? AND user_id = ?", planID, userID).Delete(&model.DateVote{}).Error; err != nil {
		return errors.Wrap(err, "delete date votes")
	}
	if err := db.Where("plan_id = ? AND user_id = ?", planID, userID).Delete(&model.ActivityVote{}).Error; err != nil {
		return errors.Wrap(err, "delete activity votes")
	}

	if len(dateIDs) > 0 {
		rows := make([]model.DateVote, 0, len(dateIDs))
		for _, id := range dateIDs {
			rows = append(rows, model.DateVote{PlanID: planID, PlanDateID: id, UserID: userID})
		}
		if err := db.Create(&rows).Error; err != nil {
			return errors.Wrap(err, "insert date votes")
		}
	}
	if len(activityIDs) > 0 {
		rows := make([]model.ActivityVote, 0, len(activityIDs))
		for _, id := range activityIDs {
			rows = append(rows, model.ActivityVote{PlanID: planID, ActivityID: id, UserID: userID})
		}
		if err := db.Create(&rows).Error; err != nil {
			return errors.Wrap(err, "insert activity votes")
		}
	}
	return nil
}

// GetUserVotes 获取用户在计划下的当前选择
func (r *VoteRepo) GetUserVotes(ctx context.Context, planID uint64, userID string) (*model.UserVotes, error) {
	db := r.Database().WithContext(ctx)
	out := &model.UserVotes{PlanID: planID, DateIDs: []uint64{}, ActivityIDs: []uint64{}}
	err := db.Model(&model.DateVote{}).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("plan_date_id ASC").Pluck("plan_date_id", &out.DateIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "get user date votes")
	}
	err = db.Model(&model.ActivityVote{}).
		Where("plan_id = ? AND user_id = ?", planID, userID).
		Order("activity_id ASC").Pluck("activity_id", &out.ActivityIDs).Error
	if err != nil {
		return nil, errors.Wrap(err, "get user activity votes")
	}
	return out, nil
}

// ListVoterIDs 列出在计划下投过日期票的用户
func (r *VoteRepo) ListVoterIDs(ctx context.Context, planID uint64) ([]string, error) {
	var ids []string
	err := r.Database().WithContext(ctx).Model(&model.DateVote{}).
		Where("plan_id = ?", planID).
		Distinct("user_id").Order("user_id ASC").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list voters of plan %d", planID)
	}
	return ids, nil
}
