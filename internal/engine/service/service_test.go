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
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/internal/engine/repo/repotest"
	"github.com/go-arcade/huddle/internal/pkg/notify"
	"github.com/stretchr/testify/require"
)

var (
	ctx   = context.Background()
	host  = model.Identity{UserID: "u-host", Email: "host@example.com"}
	alice = model.Identity{UserID: "u-alice", Email: "alice@example.com"}
	bob   = model.Identity{UserID: "u-bob", Email: "bob@example.com"}
	carol = model.Identity{UserID: "u-carol", Email: "carol@example.com"}
)

type recorder struct {
	mu      sync.Mutex
	intents []notify.Intent
}

func (r *recorder) Notify(_ context.Context, intents ...notify.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intents...)
}

func (r *recorder) ofKind(kind notify.Kind) []notify.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Intent
	for _, i := range r.intents {
		if i.Kind == kind {
			out = append(out, i)
		}
	}
	return out
}

type fixture struct {
	t     *testing.T
	svc   *Services
	repos *repo.Repositories
	rec   *recorder
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:     t,
		repos: repotest.Open(t),
		rec:   &recorder{},
		now:   time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewServices(f.repos, f.rec, Options{
		GracePeriod: 24 * time.Hour,
		Now:         func() time.Time { return f.now },
	})
	return f
}

func (f *fixture) createPlan(invites ...string) *PlanView {
	f.t.Helper()
	view, err := f.svc.Plan.CreatePlan(ctx, host, CreatePlanReq{
		Title:    "Friday dinner",
		Time:     "19:30",
		Deadline: f.now.Add(48 * time.Hour),
		Dates:    []string{"2026-05-10", "2026-05-11"},
		Activities: []ActivityInput{
			{Name: "ramen", Location: "downtown"},
			{Name: "bowling", Location: "mall"},
		},
		Invites: invites,
	})
	require.NoError(f.t, err)
	return view
}

func (f *fixture) token(planID uint64, email string) string {
	f.t.Helper()
	invitations, err := f.repos.Invitation.ListByPlan(ctx, planID)
	require.NoError(f.t, err)
	for _, inv := range invitations {
		if inv.Email == email {
			return inv.InviteToken
		}
	}
	f.t.Fatalf("no invitation for %s on plan %d", email, planID)
	return ""
}

func (f *fixture) invitation(planID uint64, email string) model.Invitation {
	f.t.Helper()
	inv, err := f.repos.Invitation.GetByToken(ctx, f.token(planID, email))
	require.NoError(f.t, err)
	return *inv
}

func (f *fixture) vote(identity model.Identity, planID uint64) {
	f.t.Helper()
	plan, err := f.repos.Plan.GetPlanWithOptions(ctx, planID)
	require.NoError(f.t, err)
	_, err = f.svc.Vote.SubmitVotes(ctx, identity, SubmitVotesReq{
		Token:       f.token(planID, identity.Email),
		DateIDs:     []uint64{plan.Dates[0].ID},
		ActivityIDs: []uint64{plan.Activities[0].ID},
	})
	require.NoError(f.t, err)
}

func (f *fixture) confirm(planID uint64) *model.Plan {
	f.t.Helper()
	plan, err := f.repos.Plan.GetPlanWithOptions(ctx, planID)
	require.NoError(f.t, err)
	require.NoError(f.t, plan.Confirm(plan.Dates[0], &plan.Activities[0].ID))
	ok, err := f.repos.Plan.ConfirmPlan(ctx, plan)
	require.NoError(f.t, err)
	require.True(f.t, ok)
	return plan
}
