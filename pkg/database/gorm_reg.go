package database

import (
	"sync"

	"gorm.io/gorm"
)

var (
	regMu            sync.Mutex
	registeredModels []any
)

// RegisterModels registers the given models for AutoMigrate.
func RegisterModels(models ...any) {
	regMu.Lock()
	defer regMu.Unlock()
	registeredModels = append(registeredModels, models...)
}

// AutoMigrate creates or updates the tables of every registered model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(GetRegisteredModels()...)
}

// GetRegisteredModels returns the registered models for Gorm.
func GetRegisteredModels() []any {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]any, len(registeredModels))
	copy(out, registeredModels)
	return out
}
