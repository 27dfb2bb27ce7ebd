package entities

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID generates a time-ordered UUIDv7 identifier
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// ParseID validates and normalizes a UUID string
func ParseID(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid ID format: %w", err)
	}
	return id.String(), nil
}
