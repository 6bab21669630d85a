package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/internal/service"
	"github.com/capitalize-ai/equipment-booking/internal/timeparse"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
)

// testClock is a settable clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.ReservationEvent
	err    error
}

func (p *recordingPublisher) PublishReservationEvent(ctx context.Context, event *model.ReservationEvent) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.events = append(p.events, *event)
	return uint64(len(p.events)), nil
}

func (p *recordingPublisher) Events() []model.ReservationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]model.ReservationEvent(nil), p.events...)
}

func at(month time.Month, day, hour, minute int) time.Time {
	return time.Date(2024, month, day, hour, minute, 0, 0, time.UTC)
}

// epoch is the default "now" of the tests, before every booked interval.
var epoch = at(12, 1, 9, 0)

func newStore(clock service.Clock, pub service.EventPublisher) *service.ReservationService {
	return service.NewReservationService(clock, pub, logger.NewNop())
}

func newSessions(store *service.ReservationService, clock service.Clock, equipmentCount int) *service.SessionManager {
	parser := timeparse.New(clock, time.UTC)
	return service.NewSessionManager(store, parser, clock, equipmentCount, logger.NewNop())
}
