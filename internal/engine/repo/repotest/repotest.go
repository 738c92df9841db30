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

// Package repotest opens throwaway SQLite stores for package tests.
package repotest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-arcade/huddle/internal/engine/model"
	"github.com/go-arcade/huddle/internal/engine/repo"
	"github.com/go-arcade/huddle/pkg/database"
	"github.com/go-arcade/huddle/pkg/statemachine"
	"github.com/stretchr/testify/require"
)

// Open returns repositories over a migrated SQLite file in t.TempDir.
func Open(t testing.TB) *repo.Repositories {
	t.Helper()
	manager, err := database.NewManager(database.Database{
		Driver:          database.DriverSQLite,
		ConnectAttempts: 1,
		SQLite:          database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "huddle.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })
	require.NoError(t, database.AutoMigrate(manager.DB()))
	return repo.NewRepositories(database.NewDatabaseAdapter(manager))
}

// SeedPlan inserts a pending plan with the given date and activity options.
func SeedPlan(t testing.TB, repos *repo.Repositories, host model.Identity, p model.Plan, dates []string, activities []string) *model.Plan {
	t.Helper()
	p.HostID = host.UserID
	p.HostEmail = host.Email
	if p.Title == "" {
		p.Title = "dinner"
	}
	if p.Time == "" {
		p.Time = "19:00"
	}
	if p.Status == "" {
		p.Status = statemachine.PlanPending
	}
	for _, d := range dates {
		day, err := time.Parse(time.DateOnly, d)
		require.NoError(t, err)
		p.Dates = append(p.Dates, model.PlanDate{Date: day})
	}
	for _, a := range activities {
		p.Activities = append(p.Activities, model.PlanActivity{Name: a, Location: a + " place"})
	}
	require.NoError(t, repos.Plan.CreatePlan(context.Background(), &p))
	return &p
}

// SeedInvitation inserts an invitation in the given state.
func SeedInvitation(t testing.TB, repos *repo.Repositories, planID uint64, email, token string, inviteeID *string, status statemachine.InvitationStatus, respondedAt *time.Time) *model.Invitation {
	t.Helper()
	inv := &model.Invitation{
		PlanID:      planID,
		Email:       model.NormalizeEmail(email),
		InviteToken: token,
		InviteeID:   inviteeID,
		Status:      status,
		RespondedAt: respondedAt,
	}
	require.NoError(t, repos.Invitation.CreateInvitations(context.Background(), []*model.Invitation{inv}))
	return inv
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
