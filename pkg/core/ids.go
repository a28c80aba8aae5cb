package core

import "github.com/google/uuid"

// NewID returns a time-ordered unique note id (UUIDv7).
// Two notes created within the same millisecond still get distinct ids.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
