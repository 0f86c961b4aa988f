package domain

import "github.com/google/uuid"

// NewID returns a random identifier for a new entity.
func NewID() string {
	return uuid.NewString()
}
