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
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/huddle/pkg/log"
	"github.com/go-arcade/huddle/pkg/retry"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Manager owns the relational connection used by the plan store
type Manager interface {
	// DB returns the primary database connection
	DB() *gorm.DB

	// Driver returns the configured driver name
	Driver() string

	// Close closes the connection pool
	Close() error
}

// managerImpl implements the Manager interface
type managerImpl struct {
	db     *gorm.DB
	driver string
}

func (m *managerImpl) DB() *gorm.DB {
	return m.db
}

func (m *managerImpl) Driver() string {
	return m.driver
}

// Close closes the connection pool
func (m *managerImpl) Close() error {
	if m.db == nil {
		return nil
	}
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", m.driver, err)
	}
	return nil
}

// NewManager opens the configured database, retrying the initial ping
func NewManager(cfg Database) (Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMySQL
	}

	attempts := cfg.ConnectAttempts
	if attempts <= 0 {
		attempts = 5
	}

	var db *gorm.DB
	err := retry.Do(context.Background(), func(ctx context.Context) error {
		var err error
		db, err = open(driver, cfg)
		if err != nil {
			log.Warnw("database not ready, retrying", "driver", driver, "error", err)
		}
		return err
	}, retry.WithMaxAttempts(attempts), retry.WithBackoff(retry.Exponential(500*time.Millisecond, 10*time.Second)))
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", driver, err)
	}

	log.Infow("database connected successfully", "driver", driver)
	return &managerImpl{db: db, driver: driver}, nil
}

func open(driver string, cfg Database) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(buildMySQLDSN(cfg.MySQL))
	case DriverSQLite:
		dialector = sqlite.Open(buildSQLiteDSN(cfg.SQLite))
	}

	logConfig := gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  gormlogger.Info,
		Colorful:                  false,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      true,
	}

	var gormLogger gormlogger.Interface
	if cfg.OutPut {
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Info)
	} else {
		gormLogger = NewGormLoggerAdapter(logConfig, gormlogger.Warn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dataTablePrefix,
			SingularTable: true,
		},
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite 只允许单写者
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
	sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}
	return db, nil
}
