package platform

import "github.com/google/uuid"

// NewID returns a random UUIDv4 string for a new row.
func NewID() string {
	return uuid.New().String()
}

// IsID reports whether s is a well-formed row ID. Lookups short-circuit
// to not-found on anything else instead of reaching the database.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
