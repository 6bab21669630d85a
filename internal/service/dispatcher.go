package service

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/text/width"

	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
	"github.com/capitalize-ai/equipment-booking/pkg/metrics"
)

const tracerName = "github.com/capitalize-ai/equipment-booking/internal/service"

// Dispatcher turns each inbound message into exactly one reply text.
type Dispatcher struct {
	sessions   *SessionManager
	recognizer CommandRecognizer
	formatter  ReplyFormatter
	logger     *logger.Logger
}

// NewDispatcher creates a new dispatcher.
func NewDispatcher(
	sessions *SessionManager,
	recognizer CommandRecognizer,
	formatter ReplyFormatter,
	log *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		sessions:   sessions,
		recognizer: recognizer,
		formatter:  formatter,
		logger:     log,
	}
}

// Handle routes msg to a top-level command or to the sender's current step and
// returns the reply text.
func (d *Dispatcher) Handle(ctx context.Context, msg model.InboundMessage) string {
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "dispatch")
	defer span.End()

	text := normalize(msg.Text)
	cmd, reply := d.sessions.HandleMessage(ctx, msg.OwnerID, text, d.recognizer)

	out := d.formatter.Format(reply)
	if strings.TrimSpace(out) == "" {
		d.logger.Warn("formatter produced empty reply", zap.String("reply", string(reply.Kind)))
		out = d.formatter.Format(&model.Reply{Kind: model.ReplyHelp, EquipmentCount: d.sessions.EquipmentCount()})
	}

	commandLabel := string(cmd)
	if cmd == model.CommandNone {
		commandLabel = "step"
	}
	span.SetAttributes(
		attribute.String("chat.transport", msg.Transport),
		attribute.String("chat.command", commandLabel),
		attribute.String("chat.reply", string(reply.Kind)),
	)
	metrics.RecordDispatch(msg.Transport, commandLabel, time.Since(start).Seconds())

	d.logger.Info("message handled",
		zap.String("transport", msg.Transport),
		zap.String("owner_id", msg.OwnerID),
		zap.String("command", commandLabel),
		zap.String("reply", string(reply.Kind)),
		zap.Duration("duration", time.Since(start)),
	)

	return out
}

// normalize trims the text and folds full-width digits and punctuation, as typed
// on Japanese keyboards, to their ASCII forms.
func normalize(text string) string {
	return strings.TrimSpace(width.Fold.String(text))
}
