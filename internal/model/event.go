package model

import (
	"time"
)

// EventType represents the type of reservation event.
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeCancelled EventType = "cancelled"
)

// ReservationEvent records a committed change to the reservation set. Sequence
// numbers the store's commits from 1; events are published in that order.
type ReservationEvent struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	Reservation Reservation `json:"reservation"`
	OccurredAt  time.Time   `json:"occurred_at"`
	Sequence    uint64      `json:"sequence,omitempty"`
}
