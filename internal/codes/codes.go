// Package codes issues one-time codes sent by email and hashes them for storage.
package codes

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"
)

// Generator produces unguessable one-time codes.
type Generator func() (string, error)

// NewRandom returns codes backed by random (v4) UUIDs.
func NewRandom() Generator {
	return func() (string, error) {
		id, err := uuid.NewRandom()
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		return id.String(), nil
	}
}

// Hash returns the storage form of a code.
func Hash(code string) string {
	h := sha256.Sum256([]byte(code))
	return hex.EncodeToString(h[:])
}
