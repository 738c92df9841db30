package id

import (
	"strings"

	"github.com/google/uuid"
)

/**
 * @file: uuid.go
 * @description: random tokens
 */

func GetUUID() string {
	return uuid.NewString()
}

// GetUUIDWithoutDashes returns 32 hex characters of a random v4 uuid.
// Used for invitation tokens, which travel in links.
func GetUUIDWithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
