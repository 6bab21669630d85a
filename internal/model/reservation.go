// Package model defines data structures for the equipment booking service.
package model

import (
	"time"
)

// Reservation holds one equipment unit for the half-open interval [Start, End).
type Reservation struct {
	ID          int64     `json:"id"`
	OwnerID     string    `json:"owner_id"`
	EquipmentID int       `json:"equipment_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	CreatedAt   time.Time `json:"created_at"`
}

// Overlaps reports whether the reservation's interval intersects [start, end).
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.Start.Before(end) && start.Before(r.End)
}

// ActiveAt reports whether the reservation has not yet ended at now.
func (r *Reservation) ActiveAt(now time.Time) bool {
	return r.End.After(now)
}

// ListReservationsResponse is the response for listing reservations.
type ListReservationsResponse struct {
	Reservations []Reservation `json:"reservations"`
	Total        int           `json:"total"`
}

// ScheduleResponse is the response for an equipment schedule.
type ScheduleResponse struct {
	EquipmentID  int           `json:"equipment_id"`
	Reservations []Reservation `json:"reservations"`
}
