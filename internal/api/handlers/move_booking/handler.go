package move_booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	moveBooking "github.com/cerberus-crm/booking-service/internal/usecase/move_booking"
)

const (
	msgInvalidBookingID = "некорректный ID бронирования"
	msgInvalidBody      = "некорректное тело запроса"
	msgInvalidWindow    = "некорректное окно, ожидается RFC3339"
	msgNotFound         = "бронирование не найдено"
	msgNotMoveable      = "бронирование нельзя перенести в текущем состоянии"
	msgSlotOverlaps     = "окно пересекается с занятым слотом"
	msgSlotRejects      = "слот не вмещает бронирование"
)

// MoveBookingRequest HTTP request model
type MoveBookingRequest struct {
	Start string  `json:"start"`         // RFC3339
	End   *string `json:"end,omitempty"` // RFC3339, nil = сохранить длительность
}

// BookingResponse HTTP response model
type BookingResponse struct {
	ID         int64  `json:"id"`
	CustomerID int64  `json:"customerId"`
	ServiceID  int64  `json:"serviceId"`
	SlotID     *int64 `json:"slotId,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	State      string `json:"state"`
	UpdatedAt  string `json:"updatedAt"`
}

type Handler struct {
	useCase MoveBookingUseCase
	logger  Logger
}

func NewHandler(useCase MoveBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/move
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/move - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	var req MoveBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/move - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/move - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}
	var end *time.Time
	if req.End != nil {
		parsed, err := time.Parse(time.RFC3339, *req.End)
		if err != nil {
			h.logger.Warn("PATCH /bookings/{id}/move - Invalid end: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindow)
			return
		}
		end = &parsed
	}

	result, err := h.useCase.Execute(r.Context(), &moveBooking.Request{
		BookingID: bookingID,
		Start:     start,
		End:       end,
	})
	if err != nil {
		switch {
		case errors.Is(err, moveBooking.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/move - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, moveBooking.ErrInvalidInput):
			h.logger.Warn("PATCH /bookings/{id}/move - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, domain.ErrNotMoveable):
			h.logger.Warn("PATCH /bookings/{id}/move - Not moveable: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgNotMoveable)

		case errors.Is(err, domain.ErrSlotOverlaps):
			h.logger.Warn("PATCH /bookings/{id}/move - Slot overlaps: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgSlotOverlaps)

		case errors.Is(err, domain.ErrIncorrectService),
			errors.Is(err, domain.ErrMaxPets),
			errors.Is(err, domain.ErrMaxCustomers):
			h.logger.Warn("PATCH /bookings/{id}/move - Slot rejects booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgSlotRejects)

		default:
			h.logger.Error("PATCH /bookings/{id}/move - Failed: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/move - Booking moved: booking_id=%d", bookingID)
	handlers.RespondJSON(w, http.StatusOK, &BookingResponse{
		ID:         result.ID,
		CustomerID: result.CustomerID,
		ServiceID:  result.ServiceID,
		SlotID:     result.SlotID,
		Start:      result.Start.Format(time.RFC3339),
		End:        result.End.Format(time.RFC3339),
		State:      result.State,
		UpdatedAt:  result.UpdatedAt.Format(time.RFC3339),
	})
}
