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
	"fmt"
	"testing"
	"time"

	"github.com/go-arcade/huddle/internal/engine/common"
	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/service/job"
	"github.com/go-arcade/huddle/internal/engine/service/tally"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestVoteService_SubmitLinksAndResponds(t *testing.T) {
	f := newFixture(t)
	view := f.createPlan("alice@example.com")
	token := f.token(view.ID, "alice@example.com")

	votes, err := f.svc.Vote.SubmitVotes(ctx, alice, SubmitVotesReq{
		Token:       token,
		DateIDs:     []uint64{view.Dates[1].ID, view.Dates[0].ID, view.Dates[1].ID},
		ActivityIDs: []uint64{view.Activities[0].ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{view.Dates[0].ID, view.Dates[1].ID}, votes.DateIDs)

	inv := f.invitation(view.ID, "alice@example.com")
	require.NotNil(t, inv.InviteeID)
	assert.Equal(t, alice.UserID, *inv.InviteeID)
	assert.Equal(t, statemachine.InvitationResponded, inv.Status)
	require.NotNil(t, inv.RespondedAt)
	assert.True(t, inv.RespondedAt.Equal(f.now))
}

func TestVoteService_ResubmitReplaces(t *testing.T) {
	f := newFixture(t)
	view := f.createPlan("alice@example.com")
	req := SubmitVotesReq{
		Token:       f.token(view.ID, "alice@example.com"),
		DateIDs:     []uint64{view.Dates[0].ID},
		ActivityIDs: []uint64{view.Activities[1].ID},
	}

	_, err := f.svc.Vote.SubmitVotes(ctx, alice, req)
	require.NoError(t, err)
	_, err = f.svc.Vote.SubmitVotes(ctx, alice, req)
	require.NoError(t, err)

	dateVotes, err := f.repos.Vote.ListDateVotes(ctx, view.ID)
	require.NoError(t, err)
	assert.Len(t, dateVotes, 1, "same selection twice keeps one row per option")

	req.DateIDs = []uint64{view.Dates[1].ID}
	_, err = f.svc.Vote.SubmitVotes(ctx, alice, req)
	require.NoError(t, err)
	mine, err := f.svc.Vote.UserVotes(ctx, alice, view.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint64{view.Dates[1].ID}, mine.DateIDs)
	assert.Equal(t, []uint64{view.Activities[1].ID}, mine.ActivityIDs)
}

func TestVoteService_Suggestions(t *testing.T) {
	f := newFixture(t)
	view := f.createPlan("alice@example.com")
	token := f.token(view.ID, "alice@example.com")

	_, err := f.svc.Vote.SubmitVotes(ctx, alice, SubmitVotesReq{
		Token:       token,
		DateIDs:     []uint64{view.Dates[0].ID},
		Suggestions: []ActivityInput{{Name: "karaoke"}},
	})
	assert.ErrorIs(t, err, common.ErrValidation, "incomplete suggestions are ignored")

	votes, err := f.svc.Vote.SubmitVotes(ctx, alice, SubmitVotesReq{
		Token:   token,
		DateIDs: []uint64{view.Dates[0].ID},
		Suggestions: []ActivityInput{
			{Name: "karaoke", Location: "5th street"},
			{Name: "", Location: "nowhere"},
		},
	})
	require.NoError(t, err)
	require.Len(t, votes.ActivityIDs, 1)

	activities, err := f.repos.Plan.ListActivities(ctx, view.ID)
	require.NoError(t, err)
	require.Len(t, activities, 3)
	suggested := activities[2]
	assert.Equal(t, votes.ActivityIDs[0], suggested.ID)
	assert.Equal(t, "karaoke", suggested.Name)
	require.NotNil(t, suggested.SuggestedBy)
	assert.Equal(t, alice.UserID, *suggested.SuggestedBy)
}

func TestVoteService_Validation(t *testing.T) {
	f := newFixture(t)
	view := f.createPlan("alice@example.com")
	other := f.createPlan("alice@example.com")
	token := f.token(view.ID, "alice@example.com")

	tests := []struct {
		name string
		req  SubmitVotesReq
	}{
		{"no dates", SubmitVotesReq{Token: token, ActivityIDs: []uint64{view.Activities[0].ID}}},
		{"no activities", SubmitVotesReq{Token: token, DateIDs: []uint64{view.Dates[0].ID}}},
		{"foreign date", SubmitVotesReq{Token: token, DateIDs: []uint64{other.Dates[0].ID}, ActivityIDs: []uint64{view.Activities[0].ID}}},
		{"foreign activity", SubmitVotesReq{Token: token, DateIDs: []uint64{view.Dates[0].ID}, ActivityIDs: []uint64{other.Activities[0].ID}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Vote.SubmitVotes(ctx, alice, tt.req)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}

	inv := f.invitation(view.ID, "alice@example.com")
	assert.Equal(t, statemachine.InvitationPending, inv.Status)
	assert.Nil(t, inv.InviteeID, "rejected submissions do not link")
}

func TestVoteService_Authorization(t *testing.T) {
	f := newFixture(t)
	view := f.createPlan("alice@example.com")
	req := SubmitVotesReq{
		Token:       f.token(view.ID, "alice@example.com"),
		DateIDs:     []uint64{view.Dates[0].ID},
		ActivityIDs: []uint64{view.Activities[0].ID},
	}

	_, err := f.svc.Vote.SubmitVotes(ctx, bob, req)
	assert.ErrorIs(t, err, common.ErrUnauthorized)
	_, err = f.svc.Vote.SubmitVotes(ctx, model.Identity{}, req)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	_, err = f.svc.Vote.SubmitVotes(ctx, alice, req)
	require.NoError(t, err)
	// 关联后即使邮箱匹配，其他账号也不能使用该令牌
	_, err = f.svc.Vote.SubmitVotes(ctx, model.Identity{UserID: "u-alice-2", Email: "alice@example.com"}, req)
	assert.ErrorIs(t, err, common.ErrUnauthorized)

	req.Token = "missing"
	_, err = f.svc.Vote.SubmitVotes(ctx, alice, req)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestVoteService_LifecycleConflicts(t *testing.T) {
	t.Run("cancelled plan", func(t *testing.T) {
		f := newFixture(t)
		view := f.createPlan("alice@example.com", "bob@example.com")
		require.NoError(t, f.svc.Plan.CancelPlan(ctx, host, view.ID))

		for _, who := range []model.Identity{alice, bob} {
			_, err := f.svc.Vote.SubmitVotes(ctx, who, SubmitVotesReq{
				Token:       f.token(view.ID, who.Email),
				DateIDs:     []uint64{view.Dates[0].ID},
				ActivityIDs: []uint64{view.Activities[0].ID},
				Suggestions: []ActivityInput{{Name: "n", Location: "l"}},
			})
			assert.ErrorIs(t, err, common.ErrLifecycleConflict)
		}

		votes, err := f.repos.Vote.ListDateVotes(ctx, view.ID)
		require.NoError(t, err)
		assert.Empty(t, votes)
		activities, err := f.repos.Plan.ListActivities(ctx, view.ID)
		require.NoError(t, err)
		assert.Len(t, activities, 2, "suggestions roll back too")
		assert.Equal(t, statemachine.InvitationPending, f.invitation(view.ID, "alice@example.com").Status)
	})

	t.Run("confirmed plan", func(t *testing.T) {
		f := newFixture(t)
		view := f.createPlan("alice@example.com")
		f.vote(alice, view.ID)
		f.confirm(view.ID)

		_, err := f.svc.Vote.SubmitVotes(ctx, alice, SubmitVotesReq{
			Token:       f.token(view.ID, "alice@example.com"),
			DateIDs:     []uint64{view.Dates[1].ID},
			ActivityIDs: []uint64{view.Activities[1].ID},
		})
		assert.ErrorIs(t, err, common.ErrLifecycleConflict)

		mine, err := f.svc.Vote.UserVotes(ctx, alice, view.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint64{view.Dates[0].ID}, mine.DateIDs)
	})

	t.Run("decided invitation", func(t *testing.T) {
		f := newFixture(t)
		view := f.createPlan("alice@example.com")
		f.vote(alice, view.ID)
		f.confirm(view.ID)
		f.now = view.Deadline.Add(time.Hour)
		_, err := f.svc.Invitation.Respond(ctx, alice, f.token(view.ID, "alice@example.com"), statemachine.InvitationAccepted)
		require.NoError(t, err)

		_, err = f.svc.Vote.SubmitVotes(ctx, alice, SubmitVotesReq{
			Token:       f.token(view.ID, "alice@example.com"),
			DateIDs:     []uint64{view.Dates[0].ID},
			ActivityIDs: []uint64{view.Activities[0].ID},
		})
		assert.ErrorIs(t, err, common.ErrLifecycleConflict)
	})
}

func TestVoteService_RacesFinalizer(t *testing.T) {
	const voters = 8
	f := newFixture(t)

	emails := make([]string, voters)
	for i := range emails {
		emails[i] = fmt.Sprintf("voter%d@example.com", i)
	}
	view := f.createPlan(emails...)
	plan, err := f.repos.Plan.GetPlanWithOptions(ctx, view.ID)
	require.NoError(t, err)

	identities := make([]model.Identity, voters)
	tokens := make([]string, voters)
	for i, email := range emails {
		identities[i] = model.Identity{UserID: fmt.Sprintf("u-voter%d", i), Email: email}
		tokens[i] = f.token(view.ID, email)
	}

	// 截止后、确认前投票仍被接受，确认之后的投票必须被拒绝
	f.now = view.Deadline.Add(time.Minute)
	finalizer := job.NewFinalizer(f.repos, f.rec, common.FixedClock(f.now))

	errs := make([]error, voters)
	var g errgroup.Group
	for i := 0; i < voters; i++ {
		g.Go(func() error {
			_, errs[i] = f.svc.Vote.SubmitVotes(ctx, identities[i], SubmitVotesReq{
				Token:       tokens[i],
				DateIDs:     []uint64{plan.Dates[i%2].ID},
				ActivityIDs: []uint64{plan.Activities[i%2].ID},
			})
			return nil
		})
	}
	g.Go(func() error {
		_, err := finalizer.RunOnce(ctx)
		return err
	})
	require.NoError(t, g.Wait())

	for i, err := range errs {
		votes, verr := f.repos.Vote.GetUserVotes(ctx, view.ID, identities[i].UserID)
		require.NoError(t, verr)
		inv := f.invitation(view.ID, emails[i])
		if err == nil {
			assert.Equal(t, []uint64{plan.Dates[i%2].ID}, votes.DateIDs)
			assert.Equal(t, statemachine.InvitationResponded, inv.Status)
			continue
		}
		assert.ErrorIs(t, err, common.ErrLifecycleConflict, emails[i])
		assert.Empty(t, votes.DateIDs, emails[i])
		assert.Empty(t, votes.ActivityIDs, emails[i])
		assert.Equal(t, statemachine.InvitationPending, inv.Status)
		assert.Nil(t, inv.InviteeID)
	}

	got, err := f.repos.Plan.GetPlanWithOptions(ctx, view.ID)
	require.NoError(t, err)
	require.Equal(t, statemachine.PlanConfirmed, got.Status)

	confirmedDates, confirmedActivities := 0, 0
	for _, d := range got.Dates {
		if d.IsConfirmed {
			confirmedDates++
		}
	}
	for _, a := range got.Activities {
		if a.IsConfirmed {
			confirmedActivities++
		}
	}
	assert.Equal(t, 1, confirmedDates)
	assert.LessOrEqual(t, confirmedActivities, 1)

	// 被接受的票都在确认之前写入，确认结果必须与现存票数一致
	result, err := tally.NewCalculator(f.repos.Vote).Tally(ctx, view.ID)
	require.NoError(t, err)
	wantDate := got.Dates[0].ID
	if result.Date != nil {
		wantDate = *result.Date
	}
	require.NotNil(t, got.ConfirmedDateID)
	assert.Equal(t, wantDate, *got.ConfirmedDateID)
	assert.Equal(t, result.Activity, got.ConfirmedActivityID)

	_, err = f.svc.Vote.SubmitVotes(ctx, identities[0], SubmitVotesReq{
		Token:       tokens[0],
		DateIDs:     []uint64{plan.Dates[0].ID},
		ActivityIDs: []uint64{plan.Activities[0].ID},
	})
	assert.ErrorIs(t, err, common.ErrLifecycleConflict)
}
