package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/capitalize-ai/equipment-booking/internal/middleware"
	"github.com/capitalize-ai/equipment-booking/internal/model"
	"github.com/capitalize-ai/equipment-booking/internal/service"
	"github.com/capitalize-ai/equipment-booking/pkg/logger"
)

// ReservationHandler exposes the reservation store read and cancel operations.
type ReservationHandler struct {
	service        *service.ReservationService
	equipmentCount int
	logger         *logger.Logger
}

// NewReservationHandler creates a new reservation handler.
func NewReservationHandler(svc *service.ReservationService, equipmentCount int, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:        svc,
		equipmentCount: equipmentCount,
		logger:         log,
	}
}

// ListActive handles GET /api/v1/reservations
func (h *ReservationHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listResponse(h.service.ListActive(r.Context())))
}

// ListMine handles GET /api/v1/reservations/mine
func (h *ReservationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	writeJSON(w, http.StatusOK, listResponse(h.service.ListForOwner(ctx, middleware.GetUserID(ctx))))
}

// Cancel handles DELETE /api/v1/reservations/:id
func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetUserID(ctx)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid reservation ID format")
		return
	}

	res, err := h.service.Cancel(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		h.logger.Error("failed to cancel reservation", zap.Int64("reservation_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to cancel reservation")
		return
	}

	writeJSON(w, http.StatusOK, &model.CancelReservationResponse{Reservation: *res})
}

// Schedule handles GET /api/v1/equipment/:id/schedule
func (h *ReservationHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 || id > h.equipmentCount {
		writeError(w, http.StatusBadRequest, "equipment ID must be between 1 and "+strconv.Itoa(h.equipmentCount))
		return
	}

	schedule := h.service.ScheduleFor(r.Context(), id)
	if schedule == nil {
		schedule = []model.Reservation{}
	}
	writeJSON(w, http.StatusOK, &model.ScheduleResponse{
		EquipmentID:  id,
		Reservations: schedule,
	})
}

func listResponse(rs []model.Reservation) *model.ListReservationsResponse {
	if rs == nil {
		rs = []model.Reservation{}
	}
	return &model.ListReservationsResponse{
		Reservations: rs,
		Total:        len(rs),
	}
}
