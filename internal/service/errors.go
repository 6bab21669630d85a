package service

import "errors"

var (
	// ErrConflict is returned when a requested interval overlaps an existing
	// reservation on the same equipment.
	ErrConflict = errors.New("time slot already reserved")

	// ErrNotFound is returned when a reservation does not exist or belongs to
	// someone else. The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("reservation not found")
)
