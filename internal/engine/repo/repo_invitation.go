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
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type IInvitationRepository interface {
	CreateInvitations(ctx context.Context, invitations []*model.Invitation) error
	DeleteByPlan(ctx context.Context, planID uint64) error
	GetByToken(ctx context.Context, token string) (*model.Invitation, error)
	TokenExists(ctx context.Context, token string) (bool, error)
	ListByPlan(ctx context.Context, planID uint64) ([]model.Invitation, error)
	ListByPlanAndStatus(ctx context.Context, planID uint64, statuses ...statemachine.InvitationStatus) ([]model.Invitation, error)
	ListPlanIDsForIdentity(ctx context.Context, identity model.Identity) ([]uint64, error)
	SaveInvitation(ctx context.Context, inv *model.Invitation) error
	LinkByEmail(ctx context.Context, email, userID string) (int64, error)
}

type InvitationRepo struct {
	database.IDatabase
}

func NewInvitationRepo(db database.IDatabase) IInvitationRepository {
	return &InvitationRepo{IDatabase: db}
}

func (r *InvitationRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

// CreateInvitations 批量创建邀请
func (r *InvitationRepo) CreateInvitations(ctx context.Context, invitations []*model.Invitation) error {
	if len(invitations) == 0 {
		return nil
	}
	if err := r.db(ctx).Create(&invitations).Error; err != nil {
		return errors.Wrap(err, "create invitations")
	}
	return nil
}

// DeleteByPlan 删除计划下的全部邀请，用于编辑时整体替换
func (r *InvitationRepo) DeleteByPlan(ctx context.Context, planID uint64) error {
	if err := r.db(ctx).Where("plan_id = ?", planID).Delete(&model.Invitation{}).Error; err != nil {
		return errors.Wrapf(err, "delete invitations of plan %d", planID)
	}
	return nil
}

// GetByToken 根据邀请令牌获取邀请
func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*model.Invitation, error) {
	var inv model.Invitation
	if err := r.db(ctx).Where("invite_token = ?", token).First(&inv).Error; err != nil {
		return nil, errors.Wrap(err, "get invitation by token")
	}
	return &inv, nil
}

func (r *InvitationRepo) TokenExists(ctx context.Context, token string) (bool, error) {
	count, err := Count(r.db(ctx).Model(&model.Invitation{}).Where("invite_token = ?", token))
	if err != nil {
		return false, errors.Wrap(err, "check token")
	}
	return count > 0, nil
}

func (r *InvitationRepo) ListByPlan(ctx context.Context, planID uint64) ([]model.Invitation, error) {
	var list []model.Invitation
	if err := r.db(ctx).Where("plan_id = ?", planID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, errors.Wrapf(err, "list invitations of plan %d", planID)
	}
	return list, nil
}

func (r *InvitationRepo) ListByPlanAndStatus(ctx context.Context, planID uint64, statuses ...statemachine.InvitationStatus) ([]model.Invitation, error) {
	var list []model.Invitation
	err := r.db(ctx).Where("plan_id = ? AND status IN ?", planID, statuses).Order("id ASC").Find(&list).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list invitations of plan %d", planID)
	}
	return list, nil
}

// ListPlanIDsForIdentity 用户被邀请的计划，按关联ID或邮箱匹配
func (r *InvitationRepo) ListPlanIDsForIdentity(ctx context.Context, identity model.Identity) ([]uint64, error) {
	var ids []uint64
	err := r.db(ctx).Model(&model.Invitation{}).
		Where("invitee_id = ? OR email = ?", identity.UserID, model.NormalizeEmail(identity.Email)).
		Distinct("plan_id").Pluck("plan_id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "list invited plans")
	}
	return ids, nil
}

// SaveInvitation 写回状态相关字段
func (r *InvitationRepo) SaveInvitation(ctx context.Context, inv *model.Invitation) error {
	err := r.db(ctx).Model(inv).
		Select("invitee_id", "status", "responded_at", "last_voted_at", "decided_at", "updated_at").
		Updates(inv).Error
	if err != nil {
		return errors.Wrapf(err, "save invitation %d", inv.ID)
	}
	return nil
}

// LinkByEmail 将未关联的邀请绑定到用户
func (r *InvitationRepo) LinkByEmail(ctx context.Context, email, userID string) (int64, error) {
	res := r.db(ctx).Model(&model.Invitation{}).
		Where("email = ? AND invitee_id IS NULL", model.NormalizeEmail(email)).
		Update("invitee_id", userID)
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "link invitations")
	}
	return res.RowsAffected, nil
}
