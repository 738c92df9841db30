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

package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string
}

func TestDatabase_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Database
		wantErr bool
	}{
		{"mysql ok", Database{Driver: DriverMySQL, MySQL: MySQLConfig{Host: "db", User: "u", DBName: "huddle"}}, false},
		{"mysql default driver", Database{MySQL: MySQLConfig{Host: "db", User: "u", DBName: "huddle"}}, false},
		{"mysql missing host", Database{Driver: DriverMySQL, MySQL: MySQLConfig{User: "u", DBName: "huddle"}}, true},
		{"sqlite ok", Database{Driver: DriverSQLite, SQLite: SQLiteConfig{Path: "x.db"}}, false},
		{"sqlite missing path", Database{Driver: DriverSQLite}, true},
		{"unknown", Database{Driver: "oracle"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn := buildMySQLDSN(MySQLConfig{Host: "db", User: "u", Password: "p", DBName: "huddle"})
	assert.Equal(t, "u:p@tcp(db:3306)/huddle?charset=utf8mb4&parseTime=True&loc=UTC", dsn)
}

func TestNewManager_SQLite(t *testing.T) {
	cfg := Database{
		Driver: DriverSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, DriverSQLite, m.Driver())

	db := NewDatabaseAdapter(m).Database()
	require.NoError(t, db.AutoMigrate(&sample{}))
	require.NoError(t, db.Create(&sample{Name: "a"}).Error)

	// 表名带前缀且为单数
	assert.True(t, db.Migrator().HasTable("t_sample"))
}
