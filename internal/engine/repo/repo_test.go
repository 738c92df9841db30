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

package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/repo/repotest"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var host = model.Identity{UserID: "u-host", Email: "host@example.com"}

func TestPlanRepo_CreateAndLoad(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	deadline := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: deadline}, []string{"2026-05-10", "2026-05-11"}, []string{"bowling"})
	require.NotZero(t, p.ID)

	got, err := repos.Plan.GetPlanWithOptions(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, statemachine.PlanPending, got.Status)
	assert.True(t, got.Deadline.Equal(deadline))
	require.Len(t, got.Dates, 2)
	assert.Less(t, got.Dates[0].ID, got.Dates[1].ID)
	require.Len(t, got.Activities, 1)
	assert.Nil(t, got.Activities[0].SuggestedBy)

	_, err = repos.Plan.GetPlan(ctx, p.ID+100)
	assert.True(t, repo.IsNotFound(err))
}

func TestPlanRepo_ConfirmIsGuarded(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: time.Now().UTC()}, []string{"2026-05-10"}, []string{"bowling"})

	require.NoError(t, p.Confirm(p.Dates[0], &p.Activities[0].ID))
	ok, err := repos.Plan.ConfirmPlan(ctx, p)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repos.Plan.ConfirmPlan(ctx, p)
	require.NoError(t, err)
	assert.False(t, ok, "second confirm must not match")

	dates, err := repos.Plan.ListDates(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, dates[0].IsConfirmed)
	activities, err := repos.Plan.ListActivities(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, activities[0].IsConfirmed)
}

func TestPlanRepo_CancelAndClose(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: time.Now().UTC()}, []string{"2026-05-10"}, []string{"bowling"})

	ok, err := repos.Plan.CloseDecision(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok, "pending plan has no decision window")

	ok, err = repos.Plan.CancelPlan(ctx, p.ID, statemachine.PlanConfirmed)
	require.NoError(t, err)
	assert.False(t, ok, "stale status must not match")

	ok, err = repos.Plan.CancelPlan(ctx, p.ID, statemachine.PlanPending)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err := repos.Plan.ListPlansByStatus(ctx, statemachine.PlanPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestVoteRepo_ReplaceVotes(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: time.Now().UTC()}, []string{"2026-05-10", "2026-05-11"}, []string{"a", "b"})
	d1, d2 := p.Dates[0].ID, p.Dates[1].ID
	a1, a2 := p.Activities[0].ID, p.Activities[1].ID

	require.NoError(t, repos.Vote.ReplaceVotes(ctx, p.ID, "u1", []uint64{d1, d2}, []uint64{a1}))
	require.NoError(t, repos.Vote.ReplaceVotes(ctx, p.ID, "u1", []uint64{d2}, []uint64{a2}))
	require.NoError(t, repos.Vote.ReplaceVotes(ctx, p.ID, "u1", []uint64{d2}, []uint64{a2}))

	mine, err := repos.Vote.GetUserVotes(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, []uint64{d2}, mine.DateIDs)
	assert.Equal(t, []uint64{a2}, mine.ActivityIDs)

	dateVotes, err := repos.Vote.ListDateVotes(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, dateVotes, 1)

	voters, err := repos.Vote.ListVoterIDs(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, voters)
}

func TestInvitationRepo_LinkAndSave(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: time.Now().UTC()}, []string{"2026-05-10"}, []string{"a"})
	repotest.SeedInvitation(t, repos, p.ID, "Guest@Example.com", "tok-1", nil, statemachine.InvitationPending, nil)

	exists, err := repos.Invitation.TokenExists(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, exists)

	n, err := repos.Invitation.LinkByEmail(ctx, "GUEST@example.com", "u-guest")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = repos.Invitation.LinkByEmail(ctx, "guest@example.com", "u-other")
	require.NoError(t, err)
	assert.Zero(t, n)

	inv, err := repos.Invitation.GetByToken(ctx, "tok-1")
	require.NoError(t, err)
	require.NotNil(t, inv.InviteeID)
	assert.Equal(t, "u-guest", *inv.InviteeID)

	require.NoError(t, inv.MarkResponded(time.Now()))
	require.NoError(t, repos.Invitation.SaveInvitation(ctx, inv))
	responded, err := repos.Invitation.ListByPlanAndStatus(ctx, p.ID, statemachine.InvitationResponded)
	require.NoError(t, err)
	require.Len(t, responded, 1)
	assert.NotNil(t, responded[0].RespondedAt)

	ids, err := repos.Invitation.ListPlanIDsForIdentity(ctx, model.Identity{UserID: "u-guest", Email: "guest@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []uint64{p.ID}, ids)
}

func TestRepositories_TransactionRollsBack(t *testing.T) {
	repos := repotest.Open(t)
	ctx := context.Background()
	p := repotest.SeedPlan(t, repos, host, model.Plan{Deadline: time.Now().UTC()}, []string{"2026-05-10"}, []string{"a"})

	boom := errors.New("boom")
	err := repos.Transaction(ctx, func(tx *repo.Repositories) error {
		if err := tx.Vote.ReplaceVotes(ctx, p.ID, "u1", []uint64{p.Dates[0].ID}, nil); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	votes, err := repos.Vote.ListDateVotes(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}
