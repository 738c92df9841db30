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
	"gorm.io/gorm/clause"
)

type IPlanRepository interface {
	CreatePlan(ctx context.Context, p *model.Plan) error
	GetPlan(ctx context.Context, planID uint64) (*model.Plan, error)
	GetPlanForUpdate(ctx context.Context, planID uint64) (*model.Plan, error)
	GetPlanWithOptions(ctx context.Context, planID uint64) (*model.Plan, error)
	ListPlansByStatus(ctx context.Context, status statemachine.PlanStatus) ([]model.Plan, error)
	ListUnclosedConfirmed(ctx context.Context) ([]model.Plan, error)
	ListPlansByIDs(ctx context.Context, planIDs []uint64) ([]model.Plan, error)
	ListPlansByHost(ctx context.Context, hostID string) ([]model.Plan, error)
	UpdatePendingPlan(ctx context.Context, planID uint64, updates map[string]any) (bool, error)
	ConfirmPlan(ctx context.Context, p *model.Plan) (bool, error)
	CancelPlan(ctx context.Context, planID uint64, from statemachine.PlanStatus) (bool, error)
	CloseDecision(ctx context.Context, planID uint64) (bool, error)
	ListDates(ctx context.Context, planID uint64) ([]model.PlanDate, error)
	ListActivities(ctx context.Context, planID uint64) ([]model.PlanActivity, error)
	CreateActivities(ctx context.Context, activities []model.PlanActivity) ([]model.PlanActivity, error)
}

type PlanRepo struct {
	database.IDatabase
}

func NewPlanRepo(db database.IDatabase) IPlanRepository {
	return &PlanRepo{IDatabase: db}
}

func (r *PlanRepo) db(ctx context.Context) *gorm.DB {
	return r.Database().WithContext(ctx)
}

// CreatePlan 创建计划，候选日期与活动随计划一并写入
func (r *PlanRepo) CreatePlan(ctx context.Context, p *model.Plan) error {
	if err := r.db(ctx).Create(p).Error; err != nil {
		return errors.Wrap(err, "create plan")
	}
	return nil
}

// GetPlan 根据ID获取计划（不含选项）
func (r *PlanRepo) GetPlan(ctx context.Context, planID uint64) (*model.Plan, error) {
	var p model.Plan
	if err := r.db(ctx).Where("id = ?", planID).First(&p).Error; err != nil {
		return nil, errors.Wrapf(err, "get plan %d", planID)
	}
	return &p, nil
}

// GetPlanForUpdate 加行锁读取计划，必须在事务内调用
func (r *PlanRepo) GetPlanForUpdate(ctx context.Context, planID uint64) (*model.Plan, error) {
	var p model.Plan
	err := r.db(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", planID).First(&p).Error
	if err != nil {
		return nil, errors.Wrapf(err, "lock plan %d", planID)
	}
	return &p, nil
}

// GetPlanWithOptions 获取计划及其候选日期、活动，按ID升序
func (r *PlanRepo) GetPlanWithOptions(ctx context.Context, planID uint64) (*model.Plan, error) {
	var p model.Plan
	err := r.db(ctx).
		Preload("Dates", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Activities", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("id = ?", planID).First(&p).Error
	if err != nil {
		return nil, errors.Wrapf(err, "get plan %d", planID)
	}
	return &p, nil
}

// ListPlansByStatus 按截止时间升序列出指定状态的计划
func (r *PlanRepo) ListPlansByStatus(ctx context.Context, status statemachine.PlanStatus) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db(ctx).Where("status = ?", status).Order("deadline ASC, id ASC").Find(&plans).Error
	if err != nil {
		return nil, errors.Wrapf(err, "list %s plans", status)
	}
	return plans, nil
}

// ListUnclosedConfirmed 列出已确认但决策窗口未关闭的计划
func (r *PlanRepo) ListUnclosedConfirmed(ctx context.Context) ([]model.Plan, error) {
	var plans []model.Plan
	err := r.db(ctx).
		Where("status = ? AND decision_over_email_sent = ?", statemachine.PlanConfirmed, false).
		Order("deadline ASC, id ASC").Find(&plans).Error
	if err != nil {
		return nil, errors.Wrap(err, "list unclosed plans")
	}
	return plans, nil
}

func (r *PlanRepo) ListPlansByIDs(ctx context.Context, planIDs []uint64) ([]model.Plan, error) {
	var plans []model.Plan
	if len(planIDs) == 0 {
		return plans, nil
	}
	if err := r.db(ctx).Where("id IN ?", planIDs).Order("deadline ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, errors.Wrap(err, "list plans by ids")
	}
	return plans, nil
}

func (r *PlanRepo) ListPlansByHost(ctx context.Context, hostID string) ([]model.Plan, error) {
	var plans []model.Plan
	if err := r.db(ctx).Where("host_id = ?", hostID).Order("deadline ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, errors.Wrapf(err, "list plans of host %s", hostID)
	}
	return plans, nil
}

// UpdatePendingPlan 仅在计划仍为 pending 时更新
func (r *PlanRepo) UpdatePendingPlan(ctx context.Context, planID uint64, updates map[string]any) (bool, error) {
	res := r.db(ctx).Model(&model.Plan{}).
		Where("id = ? AND status = ?", planID, statemachine.PlanPending).
		Updates(updates)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "update plan %d", planID)
	}
	return res.RowsAffected == 1, nil
}

// ConfirmPlan 写入最终结果并标记选项，状态条件更新保证只确认一次
func (r *PlanRepo) ConfirmPlan(ctx context.Context, p *model.Plan) (bool, error) {
	if p.ConfirmedDateID == nil {
		return false, errors.Errorf("plan %d has no confirmed date", p.ID)
	}
	db := r.db(ctx)
	res := db.Model(&model.Plan{}).
		Where("id = ? AND status = ?", p.ID, statemachine.PlanPending).
		Updates(map[string]any{
			"status":                p.Status,
			"confirmed_date":        p.ConfirmedDate,
			"confirmed_date_id":     p.ConfirmedDateID,
			"confirmed_activity_id": p.ConfirmedActivityID,
		})
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "confirm plan %d", p.ID)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	err := db.Model(&model.PlanDate{}).
		Where("id = ? AND plan_id = ?", *p.ConfirmedDateID, p.ID).
		Update("is_confirmed", true).Error
	if err != nil {
		return false, errors.Wrapf(err, "mark date %d", *p.ConfirmedDateID)
	}
	if p.ConfirmedActivityID != nil {
		err = db.Model(&model.PlanActivity{}).
			Where("id = ? AND plan_id = ?", *p.ConfirmedActivityID, p.ID).
			Update("is_confirmed", true).Error
		if err != nil {
			return false, errors.Wrapf(err, "mark activity %d", *p.ConfirmedActivityID)
		}
	}
	return true, nil
}

// CancelPlan 取消计划，from 为读取时的状态
func (r *PlanRepo) CancelPlan(ctx context.Context, planID uint64, from statemachine.PlanStatus) (bool, error) {
	res := r.db(ctx).Model(&model.Plan{}).
		Where("id = ? AND status = ?", planID, from).
		Update("status", statemachine.PlanCancelled)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "cancel plan %d", planID)
	}
	return res.RowsAffected == 1, nil
}

// CloseDecision 关闭决策窗口，标记位只会翻转一次
func (r *PlanRepo) CloseDecision(ctx context.Context, planID uint64) (bool, error) {
	res := r.db(ctx).Model(&model.Plan{}).
		Where("id = ? AND status = ? AND decision_over_email_sent = ?", planID, statemachine.PlanConfirmed, false).
		Update("decision_over_email_sent", true)
	if res.Error != nil {
		return false, errors.Wrapf(res.Error, "close decision of plan %d", planID)
	}
	return res.RowsAffected == 1, nil
}

func (r *PlanRepo) ListDates(ctx context.Context, planID uint64) ([]model.PlanDate, error) {
	var dates []model.PlanDate
	if err := r.db(ctx).Where("plan_id = ?", planID).Order("id ASC").Find(&dates).Error; err != nil {
		return nil, errors.Wrapf(err, "list dates of plan %d", planID)
	}
	return dates, nil
}

func (r *PlanRepo) ListActivities(ctx context.Context, planID uint64) ([]model.PlanActivity, error) {
	var activities []model.PlanActivity
	if err := r.db(ctx).Where("plan_id = ?", planID).Order("id ASC").Find(&activities).Error; err != nil {
		return nil, errors.Wrapf(err, "list activities of plan %d", planID)
	}
	return activities, nil
}

// CreateActivities 批量插入活动，返回带ID的记录
func (r *PlanRepo) CreateActivities(ctx context.Context, activities []model.PlanActivity) ([]model.PlanActivity, error) {
	if len(activities) == 0 {
		return activities, nil
	}
	if err := r.db(ctx).Create(&activities).Error; err != nil {
		return nil, errors.Wrap(err, "create activities")
	}
	return activities, nil
}
