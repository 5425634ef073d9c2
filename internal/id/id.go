// Package id generates record identifiers. UUIDv7 keeps ids unique and
// roughly time-ordered, which keeps index pages warm on append-heavy tables.
package id

import "github.com/google/uuid"

// NewUUIDv7 returns a new UUIDv7 string. Falls back to v4 only if the
// system clock is unusable, which uuid surfaces as an error.
func NewUUIDv7() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return v7.String()
}
