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

	"github.com/go-arcade/huddle/pkg/database"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Repositories 统一管理所有 repository
type Repositories struct {
	Plan       IPlanRepository
	Vote       IVoteRepository
	Invitation IInvitationRepository

	db database.IDatabase
}

// NewRepositories 初始化所有 repository
func NewRepositories(db database.IDatabase) *Repositories {
	return &Repositories{
		Plan:       NewPlanRepo(db),
		Vote:       NewVoteRepo(db),
		Invitation: NewInvitationRepo(db),
		db:         db,
	}
}

// GetDB 返回数据库实例
func (r *Repositories) GetDB() database.IDatabase {
	return r.db
}

// Transaction runs fn with repositories bound to a single transaction.
// fn must only use the repositories it is given; the outer ones are not part
// of the transaction.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(database.NewGormDB(tx)))
	})
}

// IsNotFound reports whether err is a missing-row error from gorm.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func Count(tx *gorm.DB) (int64, error) {
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
