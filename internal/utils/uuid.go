package utils

import "github.com/google/uuid"

// UUIDGenerator produces operation identifiers. Version-7 UUIDs are
// preferred because they sort by creation time, which keeps persisted queue
// rows roughly chronological; the random v4 fallback only triggers when the
// system clock is unusable.
type UUIDGenerator struct {
}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) Generate() string {
	v7, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return v7.String()
}
