package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors surfaced by repositories so services can map race-safe
// constraint violations onto business errors.
var (
	// ErrDuplicate is returned when an insert trips a unique constraint.
	ErrDuplicate = errors.New("duplicate row")
	// ErrNoSeat is returned when a conditional seat reservation matches no row.
	ErrNoSeat = errors.New("no seat available")
)

// SeatAdjustment tells a status update how the transition affects the group
// seat counter. The adjustment runs in the same transaction as the update.
type SeatAdjustment int

const (
	SeatKeep SeatAdjustment = iota
	SeatRelease
	SeatReserve
)

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	return false
}
