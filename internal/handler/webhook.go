// Package handler provides HTTP handlers for the API.
package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/line"
	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
)

// TransportLINE labels messages that arrived through the webhook.
const TransportLINE = "line"

const maxWebhookBody = 1 << 20

// MessageDispatcher turns one inbound message into its reply text.
type MessageDispatcher interface {
	Handle(ctx context.Context, msg model.InboundMessage) string
}

// Replier delivers a reply for a webhook event.
type Replier interface {
	Reply(ctx context.Context, replyToken, text string) error
}

// WebhookHandler receives LINE webhook calls.
type WebhookHandler struct {
	channelSecret string
	dispatcher    MessageDispatcher
	replier       Replier
	logger        *logger.Logger
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(channelSecret string, dispatcher MessageDispatcher, replier Replier, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		channelSecret: channelSecret,
		dispatcher:    dispatcher,
		replier:       replier,
		logger:        log,
	}
}

// Receive handles POST /webhook
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)

	messages, ignored, err := line.ParseTextMessages(h.channelSecret, r)
	if err != nil {
		if errors.Is(err, line.ErrInvalidSignature) {
			h.logger.Warn("webhook signature rejected", zap.String("remote_addr", r.RemoteAddr))
			writeError(w, http.StatusUnauthorized, "invalid signature")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if ignored > 0 {
		h.logger.Debug("webhook events ignored", zap.Int("count", ignored))
	}

	// Each event gets a reply before the next one is dispatched, so a user's
	// messages within one call keep their order.
	for _, msg := range messages {
		text := h.dispatcher.Handle(r.Context(), model.InboundMessage{
			Transport: TransportLINE,
			OwnerID:   msg.UserID,
			Text:      msg.Text,
		})

		if err := h.replier.Reply(r.Context(), msg.ReplyToken, text); err != nil {
			h.logger.Error("failed to deliver reply",
				zap.String("owner_id", msg.UserID),
				zap.Error(err),
			)
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{})
}
