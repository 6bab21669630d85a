// Package service provides business logic for the equipment booking service.
package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
	"github.com/capitalize-ai/equipment-booking/pkg/metrics"
)

// ReservationService owns every reservation of every equipment unit. Check and
// insert happen under one write lock, so overlapping requests racing on the same
// equipment cannot both succeed.
type ReservationService struct {
	clock     Clock
	publisher EventPublisher
	logger    *logger.Logger

	// reservations is kept in insertion order.
	reservations []model.Reservation
	nextID       int64
	// commits numbers every create and cancel in lock order.
	commits uint64
	mu      sync.RWMutex

	order eventOrder
}

// eventOrder lets publishers go one at a time in commit order without holding
// the store lock during I/O.
type eventOrder struct {
	mu   sync.Mutex
	cond *sync.Cond
	next uint64
}

func (o *eventOrder) wait(seq uint64) {
	o.mu.Lock()
	for o.next != seq {
		o.cond.Wait()
	}
	o.mu.Unlock()
}

func (o *eventOrder) done() {
	o.mu.Lock()
	o.next++
	o.cond.Broadcast()
	o.mu.Unlock()
}

// NewReservationService creates an empty store. publisher may be nil.
func NewReservationService(clock Clock, publisher EventPublisher, log *logger.Logger) *ReservationService {
	s := &ReservationService{
		clock:     clock,
		publisher: publisher,
		logger:    log,
		nextID:    1,
	}
	s.order.cond = sync.NewCond(&s.order.mu)
	s.order.next = 1
	return s
}

// Create books equipmentID for [start, end). The caller has already checked the
// equipment range and that start is before end.
func (s *ReservationService) Create(ctx context.Context, ownerID string, equipmentID int, start, end time.Time) (*model.Reservation, error) {
	s.mu.Lock()
	for i := range s.reservations {
		existing := &s.reservations[i]
		if existing.EquipmentID == equipmentID && existing.Overlaps(start, end) {
			s.mu.Unlock()
			metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
			s.logger.Debug("reservation conflict",
				zap.Int("equipment_id", equipmentID),
				zap.Int64("conflicts_with", existing.ID),
			)
			return nil, ErrConflict
		}
	}

	r := model.Reservation{
		ID:          s.nextID,
		OwnerID:     ownerID,
		EquipmentID: equipmentID,
		Start:       start,
		End:         end,
		CreatedAt:   s.clock.Now(),
	}
	s.nextID++
	s.reservations = append(s.reservations, r)
	stored := len(s.reservations)
	s.commits++
	seq := s.commits
	s.mu.Unlock()

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	metrics.ReservationsStored.Set(float64(stored))
	s.logger.Info("reservation created",
		zap.Int64("reservation_id", r.ID),
		zap.String("owner_id", ownerID),
		zap.Int("equipment_id", equipmentID),
		zap.Time("start", start),
		zap.Time("end", end),
	)
	s.publish(ctx, seq, model.EventTypeCreated, r)

	return &r, nil
}

// Cancel removes reservationID if ownerID owns it.
func (s *ReservationService) Cancel(ctx context.Context, ownerID string, reservationID int64) (*model.Reservation, error) {
	s.mu.Lock()
	idx := -1
	for i := range s.reservations {
		if s.reservations[i].ID == reservationID && s.reservations[i].OwnerID == ownerID {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		metrics.CancellationsTotal.WithLabelValues("not_found").Inc()
		return nil, ErrNotFound
	}

	r := s.reservations[idx]
	s.reservations = append(s.reservations[:idx], s.reservations[idx+1:]...)
	stored := len(s.reservations)
	s.commits++
	seq := s.commits
	s.mu.Unlock()

	metrics.CancellationsTotal.WithLabelValues("cancelled").Inc()
	metrics.ReservationsStored.Set(float64(stored))
	s.logger.Info("reservation cancelled",
		zap.Int64("reservation_id", r.ID),
		zap.String("owner_id", ownerID),
		zap.Int("equipment_id", r.EquipmentID),
	)
	s.publish(ctx, seq, model.EventTypeCancelled, r)

	return &r, nil
}

// ListActive returns reservations that have not ended, by start then id.
func (s *ReservationService) ListActive(ctx context.Context) []model.Reservation {
	active, _ := s.ActiveSnapshot(ctx)
	return active
}

// ActiveSnapshot returns ListActive together with Count, both read under the
// same lock.
func (s *ReservationService) ActiveSnapshot(ctx context.Context) ([]model.Reservation, int) {
	now := s.clock.Now()

	s.mu.RLock()
	var active []model.Reservation
	for _, r := range s.reservations {
		if r.ActiveAt(now) {
			active = append(active, r)
		}
	}
	stored := len(s.reservations)
	s.mu.RUnlock()

	sortByStart(active)
	return active, stored
}

// ListForOwner returns every reservation of ownerID, past ones included, in
// creation order.
func (s *ReservationService) ListForOwner(ctx context.Context, ownerID string) []model.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []model.Reservation
	for _, r := range s.reservations {
		if r.OwnerID == ownerID {
			owned = append(owned, r)
		}
	}
	return owned
}

// ScheduleFor returns the not yet ended reservations of one equipment unit.
func (s *ReservationService) ScheduleFor(ctx context.Context, equipmentID int) []model.Reservation {
	now := s.clock.Now()

	s.mu.RLock()
	var schedule []model.Reservation
	for _, r := range s.reservations {
		if r.EquipmentID == equipmentID && r.ActiveAt(now) {
			schedule = append(schedule, r)
		}
	}
	s.mu.RUnlock()

	sortByStart(schedule)
	return schedule
}

// Count returns the number of stored reservations, past ones included.
func (s *ReservationService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reservations)
}

// publish hands the event for commit seq to the publisher once every earlier
// commit has been handed over, so the stream sees changes in commit order.
func (s *ReservationService) publish(ctx context.Context, seq uint64, eventType model.EventType, r model.Reservation) {
	if s.publisher == nil {
		return
	}

	s.order.wait(seq)
	defer s.order.done()

	event := &model.ReservationEvent{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Type:        eventType,
		Reservation: r,
		OccurredAt:  s.clock.Now(),
		Sequence:    seq,
	}
	if _, err := s.publisher.PublishReservationEvent(ctx, event); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "error").Inc()
		s.logger.Warn("failed to publish reservation event",
			zap.String("event_type", string(eventType)),
			zap.Int64("reservation_id", r.ID),
			zap.Uint64("sequence", seq),
			zap.Error(err),
		)
		return
	}
	metrics.EventsPublishedTotal.WithLabelValues(string(eventType), "ok").Inc()
}

func sortByStart(rs []model.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		if !rs[i].Start.Equal(rs[j].Start) {
			return rs[i].Start.Before(rs[j].Start)
		}
		return rs[i].ID < rs[j].ID
	})
}
