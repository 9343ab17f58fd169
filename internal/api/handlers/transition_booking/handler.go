package transition_booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	transitionBooking "github.com/cerberus-crm/booking-service/internal/usecase/transition_booking"
)

const (
	msgInvalidBookingID     = "некорректный ID бронирования"
	msgNotFound             = "бронирование не найдено"
	msgUnknownAction        = "неизвестное действие"
	msgTransitionNotAllowed = "переход недоступен из текущего состояния"
	msgBookingNotEnded      = "бронирование еще не закончилось"
	msgSlotOverlaps         = "окно пересекается с занятым слотом"
	msgSlotRejects          = "слот не вмещает бронирование"
)

// BookingResponse HTTP response model
type BookingResponse struct {
	ID                 int64   `json:"id"`
	CustomerID         int64   `json:"customerId"`
	ServiceID          int64   `json:"serviceId"`
	SlotID             *int64  `json:"slotId,omitempty"`
	PetIDs             []int64 `json:"petIds"`
	Start              string  `json:"start"`
	End                string  `json:"end"`
	State              string  `json:"state"`
	AvailableActions   []string `json:"availableActions"`
	GeneratedChargeIDs []int64  `json:"generatedChargeIds,omitempty"`
	UpdatedAt          string   `json:"updatedAt"`
}

type Handler struct {
	useCase TransitionBookingUseCase
	logger  Logger
}

func NewHandler(useCase TransitionBookingUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings/{bookingId}/transitions/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bookingID, err := strconv.ParseInt(vars["bookingId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /bookings/{id}/transitions - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}
	action := vars["action"]

	result, err := h.useCase.Execute(r.Context(), &transitionBooking.Request{
		BookingID: bookingID,
		Action:    action,
	})
	if err != nil {
		switch {
		case errors.Is(err, transitionBooking.ErrBookingNotFound):
			h.logger.Warn("POST /bookings/{id}/transitions - Booking not found: booking_id=%d", bookingID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, transitionBooking.ErrUnknownAction):
			h.logger.Warn("POST /bookings/{id}/transitions - Unknown action: booking_id=%d, action=%s", bookingID, action)
			handlers.RespondBadRequest(w, msgUnknownAction)

		case errors.Is(err, domain.ErrTransitionNotAllowed):
			h.logger.Warn("POST /bookings/{id}/transitions - Transition not allowed: booking_id=%d, action=%s", bookingID, action)
			handlers.RespondConflict(w, msgTransitionNotAllowed)

		case errors.Is(err, transitionBooking.ErrBookingNotEnded):
			h.logger.Warn("POST /bookings/{id}/transitions - Booking not ended: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgBookingNotEnded)

		case errors.Is(err, domain.ErrSlotOverlaps):
			h.logger.Warn("POST /bookings/{id}/transitions - Slot overlaps on reopen: booking_id=%d", bookingID)
			handlers.RespondConflict(w, msgSlotOverlaps)

		case errors.Is(err, domain.ErrIncorrectService),
			errors.Is(err, domain.ErrMaxPets),
			errors.Is(err, domain.ErrMaxCustomers):
			h.logger.Warn("POST /bookings/{id}/transitions - Slot rejects booking: booking_id=%d, error=%v", bookingID, err)
			handlers.RespondConflict(w, msgSlotRejects)

		default:
			h.logger.Error("POST /bookings/{id}/transitions - Failed: booking_id=%d, action=%s, error=%v",
				bookingID, action, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /bookings/{id}/transitions - Transition applied: booking_id=%d, action=%s, state=%s",
		bookingID, action, result.State)
	handlers.RespondJSON(w, http.StatusOK, fromUseCaseResponse(result))
}

func fromUseCaseResponse(resp *transitionBooking.Response) *BookingResponse {
	return &BookingResponse{
		ID:                 resp.ID,
		CustomerID:         resp.CustomerID,
		ServiceID:          resp.ServiceID,
		SlotID:             resp.SlotID,
		PetIDs:             resp.PetIDs,
		Start:              resp.Start.Format(time.RFC3339),
		End:                resp.End.Format(time.RFC3339),
		State:              resp.State,
		AvailableActions:   resp.AvailableActions,
		GeneratedChargeIDs: resp.GeneratedChargeIDs,
		UpdatedAt:          resp.UpdatedAt.Format(time.RFC3339),
	}
}
