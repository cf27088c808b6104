package chart

import "github.com/google/uuid"

// IDGenerator produces entity and chart ids.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates time-sortable UUIDv7 ids.
//
// Ids sort by creation time, which keeps encoded edge lists in creation
// order.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// NewID returns a new hyphenated UUIDv7.
// Panics if the random source fails.
func (UUIDGenerator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
