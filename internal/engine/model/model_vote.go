package model

/**
 * @file: model_vote.go
 * @description: 投票表模型
 */

// DateVote 日期投票，一人一个选项一票
type DateVote struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PlanID     uint64 `gorm:"column:plan_id;not null;index" json:"planId"`
	PlanDateID uint64 `gorm:"column:plan_date_id;not null;uniqueIndex:idx_date_vote_user" json:"planDateId"`
	UserID     string `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_date_vote_user" json:"userId"`
}

func (DateVote) TableName() string {
	return "t_date_vote"
}

// ActivityVote 活动投票
type ActivityVote struct {
	ID         uint64 `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PlanID     uint64 `gorm:"column:plan_id;not null;index" json:"planId"`
	ActivityID uint64 `gorm:"column:activity_id;not null;uniqueIndex:idx_activity_vote_user" json:"activityId"`
	UserID     string `gorm:"column:user_id;size:64;not null;uniqueIndex:idx_activity_vote_user" json:"userId"`
}

func (ActivityVote) TableName() string {
	return "t_activity_vote"
}

// UserVotes is one caller's current selection on a plan.
type UserVotes struct {
	PlanID      uint64   `json:"planId"`
	DateIDs     []uint64 `json:"dateIds"`
	ActivityIDs []uint64 `json:"activityIds"`
}
