package model

import (
	"strings"
	"time"
)

/**
 * @file: model.go
 * @description: base model and caller identity
 */

type BaseModel struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}

// Identity is the authenticated caller, supplied by the API layer.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// NormalizeEmail lower-cases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SameEmail compares two addresses ignoring case.
func (i Identity) SameEmail(email string) bool {
	return i.Email != "" && NormalizeEmail(i.Email) == NormalizeEmail(email)
}

// Valid reports whether the identity carries a user id.
func (i Identity) Valid() bool {
	return i.UserID != ""
}
