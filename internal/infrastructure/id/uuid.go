package id

import "github.com/google/uuid"

// UUIDGenerator hands out random (v4) UUID strings for order ids.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}
