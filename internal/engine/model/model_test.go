package model

import (
	"testing"
	"time"

	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlan_Confirm(t *testing.T) {
	p := &Plan{BaseModel: BaseModel{ID: 1}, Status: statemachine.PlanPending}
	date := PlanDate{BaseModel: BaseModel{ID: 7}, PlanID: 1, Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, p.Confirm(date, nil))
	assert.Equal(t, statemachine.PlanConfirmed, p.Status)
	require.NotNil(t, p.ConfirmedDateID)
	assert.EqualValues(t, 7, *p.ConfirmedDateID)
	assert.Nil(t, p.ConfirmedActivityID)

	assert.Error(t, p.Confirm(date, nil), "confirmed plan cannot be confirmed again")
}

func TestPlan_ConfirmRejectsForeignDate(t *testing.T) {
	p := &Plan{BaseModel: BaseModel{ID: 1}, Status: statemachine.PlanPending}
	assert.Error(t, p.Confirm(PlanDate{PlanID: 2}, nil))
	assert.Equal(t, statemachine.PlanPending, p.Status)
}

func TestPlan_CancelAndClose(t *testing.T) {
	p := &Plan{Status: statemachine.PlanPending}
	assert.Error(t, p.CloseDecision())

	p.Status = statemachine.PlanConfirmed
	assert.True(t, p.DecisionOpen())
	require.NoError(t, p.CloseDecision())
	assert.Error(t, p.CloseDecision())

	require.NoError(t, p.Cancel())
	assert.Error(t, p.Cancel())
	assert.False(t, p.DecisionOpen())
}

func TestPlan_Deadlines(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &Plan{Deadline: deadline, HostID: "h"}

	assert.False(t, p.DeadlinePassed(deadline.Add(-time.Second)))
	assert.True(t, p.DeadlinePassed(deadline))
	assert.Equal(t, deadline.Add(24*time.Hour), p.DecisionWindowEnd(24*time.Hour))
	assert.True(t, p.IsHost(Identity{UserID: "h"}))
	assert.False(t, p.IsHost(Identity{}))
}

func TestInvitation_Lifecycle(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	inv := &Invitation{Email: "a@example.com", Status: statemachine.InvitationPending}

	assert.Error(t, inv.Respond(statemachine.InvitationAccepted, now), "must vote first")
	require.NoError(t, inv.MarkResponded(now))
	require.NoError(t, inv.MarkResponded(now.Add(time.Minute)), "re-voting is allowed")
	assert.True(t, inv.RespondedAt.Equal(now), "first vote time is kept")
	assert.True(t, inv.LastVotedAt.Equal(now.Add(time.Minute)))
	require.NoError(t, inv.Respond(statemachine.InvitationAccepted, now))
	require.NoError(t, inv.Respond(statemachine.InvitationDeclined, now))
	assert.Error(t, inv.MarkResponded(now))
	assert.NotNil(t, inv.DecidedAt)
}

func TestInvitation_Identity(t *testing.T) {
	inv := &Invitation{Email: "guest@example.com"}
	me := Identity{UserID: "u1", Email: "Guest@Example.com "}

	assert.True(t, inv.Linkable(me))
	assert.False(t, inv.BelongsTo(me))
	inv.Link(me)
	assert.True(t, inv.BelongsTo(me))
	assert.False(t, inv.Linkable(me))
	assert.False(t, inv.BelongsTo(Identity{UserID: "u2", Email: "guest@example.com"}))
}

func TestBuildRoster(t *testing.T) {
	deadline := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	early := deadline.Add(-time.Hour)
	late := deadline.Add(time.Hour)

	roster := BuildRoster([]Invitation{
		{BaseModel: BaseModel{ID: 1}, Status: statemachine.InvitationAccepted, RespondedAt: &early},
		{BaseModel: BaseModel{ID: 2}, Status: statemachine.InvitationDeclined, RespondedAt: &early},
		{BaseModel: BaseModel{ID: 3}, Status: statemachine.InvitationResponded, RespondedAt: &early},
		{BaseModel: BaseModel{ID: 4}, Status: statemachine.InvitationPending},
		{BaseModel: BaseModel{ID: 5}, Status: statemachine.InvitationResponded, RespondedAt: &late},
	}, deadline)

	require.Len(t, roster.Accepted, 1)
	assert.EqualValues(t, 1, roster.Accepted[0].ID)
	require.Len(t, roster.Declined, 1)
	assert.EqualValues(t, 2, roster.Declined[0].ID)
	require.Len(t, roster.Undecided, 1)
	assert.EqualValues(t, 3, roster.Undecided[0].ID)
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2026, 5, 10, 23, 30, 0, 0, time.FixedZone("x", -3*3600))
	assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), DateOnly(in))
}
