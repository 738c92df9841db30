package model

import (
	"fmt"
	"time"

	"github.com/go-arcade/huddle/pkg/statemachine"
)

/**
 * @file: model_plan.go
 * @description: 计划、候选日期与候选活动
 */

// Plan 聚会计划
type Plan struct {
	BaseModel
	HostID                string                  `gorm:"column:host_id;size:64;not null;index" json:"hostId"`                      // 发起人
	HostEmail             string                  `gorm:"column:host_email;size:255;not null" json:"hostEmail"`                    // 发起人邮箱快照
	Title                 string                  `gorm:"column:title;size:255;not null" json:"title"`                             // 标题
	Time                  string                  `gorm:"column:time;size:5;not null" json:"time"`                                 // 时间，HH:MM
	ImageURL              string                  `gorm:"column:image_url;size:1024" json:"imageUrl,omitempty"`                    // 封面
	Deadline              time.Time               `gorm:"column:deadline;not null;index" json:"deadline"`                          // 投票截止时间（UTC）
	Status                statemachine.PlanStatus `gorm:"column:status;size:16;not null;index;default:pending" json:"status"`        // 状态
	ConfirmedDate         *time.Time              `gorm:"column:confirmed_date" json:"confirmedDate,omitempty"`                    // 最终日期
	ConfirmedDateID       *uint64                 `gorm:"column:confirmed_date_id" json:"confirmedDateId,omitempty"`               // 最终日期选项
	ConfirmedActivityID   *uint64                 `gorm:"column:confirmed_activity_id" json:"confirmedActivityId,omitempty"`       // 最终活动选项
	DecisionOverEmailSent bool                    `gorm:"column:decision_over_email_sent;not null;default:false" json:"decisionClosed"` // 决策窗口已关闭

	Dates      []PlanDate     `gorm:"foreignKey:PlanID" json:"dates,omitempty"`
	Activities []PlanActivity `gorm:"foreignKey:PlanID" json:"activities,omitempty"`
}

func (Plan) TableName() string {
	return "t_plan"
}

// PlanDate 候选日期，只存日历日（UTC 零点）
type PlanDate struct {
	BaseModel
	PlanID      uint64    `gorm:"column:plan_id;not null;index" json:"planId"`
	Date        time.Time `gorm:"column:date;not null" json:"date"`
	IsConfirmed bool      `gorm:"column:is_confirmed;not null;default:false" json:"isConfirmed"`

	Votes int64 `gorm:"-" json:"votes"` // 派生字段，不落库
}

func (PlanDate) TableName() string {
	return "t_plan_date"
}

// PlanActivity 候选活动
type PlanActivity struct {
	BaseModel
	PlanID      uint64  `gorm:"column:plan_id;not null;index" json:"planId"`
	Name        string  `gorm:"column:name;size:255;not null" json:"name"`
	Location    string  `gorm:"column:location;size:255;not null" json:"location"`
	SuggestedBy *string `gorm:"column:suggested_by;size:64" json:"suggestedBy,omitempty"` // 为空表示发起人创建
	IsConfirmed bool    `gorm:"column:is_confirmed;not null;default:false" json:"isConfirmed"`

	Votes int64 `gorm:"-" json:"votes"`
}

func (PlanActivity) TableName() string {
	return "t_plan_activity"
}

// IsHost reports whether the identity created the plan.
func (p *Plan) IsHost(identity Identity) bool {
	return identity.UserID != "" && p.HostID == identity.UserID
}

// DeadlinePassed reports whether voting has closed at now.
func (p *Plan) DeadlinePassed(now time.Time) bool {
	return !now.Before(p.Deadline)
}

// DecisionWindowEnd is the moment attendance decisions close.
func (p *Plan) DecisionWindowEnd(grace time.Duration) time.Time {
	return p.Deadline.Add(grace)
}

// DecisionOpen reports whether invitees may still accept or decline.
func (p *Plan) DecisionOpen() bool {
	return p.Status == statemachine.PlanConfirmed && !p.DecisionOverEmailSent
}

// Confirm moves a pending plan to confirmed with the chosen options.
func (p *Plan) Confirm(date PlanDate, activityID *uint64) error {
	if date.PlanID != p.ID {
		return fmt.Errorf("date %d does not belong to plan %d", date.ID, p.ID)
	}
	if err := statemachine.PlanTransition(p.Status, statemachine.PlanConfirmed); err != nil {
		return err
	}
	d := date.Date
	dateID := date.ID
	p.Status = statemachine.PlanConfirmed
	p.ConfirmedDate = &d
	p.ConfirmedDateID = &dateID
	p.ConfirmedActivityID = activityID
	return nil
}

// Cancel moves a pending or confirmed plan to cancelled.
func (p *Plan) Cancel() error {
	if err := statemachine.PlanTransition(p.Status, statemachine.PlanCancelled); err != nil {
		return err
	}
	p.Status = statemachine.PlanCancelled
	return nil
}

// CloseDecision flips the decision-window flag, once.
func (p *Plan) CloseDecision() error {
	if !p.DecisionOpen() {
		return fmt.Errorf("plan %d: decision window is not open (status %s)", p.ID, p.Status)
	}
	p.DecisionOverEmailSent = true
	return nil
}

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
