package model

import (
	"time"

	"github.com/go-arcade/huddle/pkg/statemachine"
)

/**
 * @file: model_invitation.go
 * @description: 邀请表模型
 */

// Invitation 计划邀请，每个邮箱一条
type Invitation struct {
	BaseModel
	PlanID      uint64                        `gorm:"column:plan_id;not null;uniqueIndex:idx_invitation_plan_email" json:"planId"`
	Email       string                        `gorm:"column:email;size:255;not null;uniqueIndex:idx_invitation_plan_email" json:"email"`            // 小写
	InviteToken string                        `gorm:"column:invite_token;size:64;not null;uniqueIndex" json:"-"`                                 // 邀请链接令牌
	InviteeID   *string                       `gorm:"column:invitee_id;size:64;index" json:"inviteeId,omitempty"`                              // 注册后关联
	Status      statemachine.InvitationStatus `gorm:"column:status;size:16;not null;default:pending" json:"status"`
	RespondedAt *time.Time                    `gorm:"column:responded_at" json:"respondedAt,omitempty"` // 首次投票时间
	LastVotedAt *time.Time                    `gorm:"column:last_voted_at" json:"lastVotedAt,omitempty"`
	DecidedAt   *time.Time                    `gorm:"column:decided_at" json:"decidedAt,omitempty"`     // 确认/拒绝时间
}

func (Invitation) TableName() string {
	return "t_invitation"
}

// BelongsTo reports whether the invitation is linked to the identity.
func (i *Invitation) BelongsTo(identity Identity) bool {
	return i.InviteeID != nil && identity.UserID != "" && *i.InviteeID == identity.UserID
}

// Linkable reports whether an unlinked invitation was addressed to the identity's email.
func (i *Invitation) Linkable(identity Identity) bool {
	return i.InviteeID == nil && identity.Valid() && identity.SameEmail(i.Email)
}

// Link attaches the invitation to a registered identity.
func (i *Invitation) Link(identity Identity) {
	uid := identity.UserID
	i.InviteeID = &uid
}

// MarkResponded records a vote submission. RespondedAt keeps the first
// submission so a later re-vote cannot move the invitee past the deadline.
func (i *Invitation) MarkResponded(now time.Time) error {
	if err := statemachine.InvitationTransition(i.Status, statemachine.InvitationResponded); err != nil {
		return err
	}
	t := now.UTC()
	i.Status = statemachine.InvitationResponded
	if i.RespondedAt == nil {
		i.RespondedAt = &t
	}
	i.LastVotedAt = &t
	return nil
}

// Respond records an attendance decision, accepted or declined.
func (i *Invitation) Respond(status statemachine.InvitationStatus, now time.Time) error {
	if err := statemachine.InvitationTransition(i.Status, status); err != nil {
		return err
	}
	t := now.UTC()
	i.Status = status
	i.DecidedAt = &t
	return nil
}

// RespondedBefore reports whether the invitee voted strictly before t.
func (i *Invitation) RespondedBefore(t time.Time) bool {
	return i.RespondedAt != nil && i.RespondedAt.Before(t)
}

// Roster partitions a plan's invitations by attendance decision.
type Roster struct {
	Accepted  []Invitation `json:"accepted"`
	Declined  []Invitation `json:"declined"`
	Undecided []Invitation `json:"undecided"`
}

// BuildRoster partitions invitations. Only invitees that voted before the
// deadline take part in the decision window.
func BuildRoster(invitations []Invitation, deadline time.Time) Roster {
	var r Roster
	for _, inv := range invitations {
		if !inv.RespondedBefore(deadline) {
			continue
		}
		switch inv.Status {
		case statemachine.InvitationAccepted:
			r.Accepted = append(r.Accepted, inv)
		case statemachine.InvitationDeclined:
			r.Declined = append(r.Declined, inv)
		default:
			r.Undecided = append(r.Undecided, inv)
		}
	}
	return r
}
