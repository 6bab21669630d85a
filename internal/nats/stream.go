package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/capitalize-ai/equipment-booking/internal/model"
)

const (
	// StreamName is the name of the reservation events stream.
	StreamName = "RESERVATIONS"

	// SubjectPrefix is the prefix for all reservation subjects.
	SubjectPrefix = "booking"
)

// StreamManager handles JetStream stream operations.
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream creates the reservation events stream if it does not exist.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err == nil {
		return nil
	}

	_, err := js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      90 * 24 * time.Hour,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Duplicates:  10 * time.Minute,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Reservation created and cancelled events",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// EventSubject returns the subject for an event on one equipment unit.
func EventSubject(equipmentID int, eventType model.EventType) string {
	return fmt.Sprintf("%s.equipment.%d.%s", SubjectPrefix, equipmentID, eventType)
}

// EquipmentFilter returns the filter subject for all events of one equipment unit.
func EquipmentFilter(equipmentID int) string {
	return fmt.Sprintf("%s.equipment.%d.>", SubjectPrefix, equipmentID)
}

// PublishReservationEvent publishes an event, deduplicated by its id.
func (m *StreamManager) PublishReservationEvent(ctx context.Context, event *model.ReservationEvent) (uint64, error) {
	subject := EventSubject(event.Reservation.EquipmentID, event.Type)

	data, err := json.Marshal(event)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data, jetstream.WithMsgID(event.ID))
	if err != nil {
		return 0, fmt.Errorf("failed to publish event: %w", err)
	}

	return ack.Sequence, nil
}
