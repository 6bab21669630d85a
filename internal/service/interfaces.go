package service

import (
	"context"
	"time"

	"github.com/capitalize-ai/equipment-booking/internal/model"
)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// DateTimeParser turns user text into an instant.
type DateTimeParser interface {
	Parse(text string) (time.Time, error)
}

// EventPublisher receives committed reservation changes.
type EventPublisher interface {
	PublishReservationEvent(ctx context.Context, event *model.ReservationEvent) (uint64, error)
}

// CommandRecognizer maps message text to a top-level command, or
// model.CommandNone when the text is input for step.
type CommandRecognizer interface {
	Recognize(ctx context.Context, text string, step model.Step) model.Command
}

// ReplyFormatter renders a step outcome as the single reply text.
type ReplyFormatter interface {
	Format(reply *model.Reply) string
}
