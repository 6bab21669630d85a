package handler

import (
	"encoding/json"
	"net/http"

	"github.com/capitalize-ai/equipment-booking/internal/middleware"
	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
)

// TransportAPI labels messages posted to the JSON API.
const TransportAPI = "api"

// MessageHandler handles the chat endpoint.
type MessageHandler struct {
	dispatcher MessageDispatcher
	logger     *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(dispatcher MessageDispatcher, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		dispatcher: dispatcher,
		logger:     log,
	}
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetUserID(ctx)

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateMessageText(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply := h.dispatcher.Handle(ctx, model.InboundMessage{
		Transport: TransportAPI,
		OwnerID:   ownerID,
		Text:      req.Text,
	})

	writeJSON(w, http.StatusOK, &model.SendMessageResponse{Reply: reply})
}
