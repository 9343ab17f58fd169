package move_slot

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	moveSlot "github.com/cerberus-crm/booking-service/internal/usecase/move_slot"
)

const (
	msgInvalidSlotID = "некорректный ID слота"
	msgInvalidBody   = "некорректное тело запроса"
	msgInvalidWindow = "некорректное окно, ожидается RFC3339"
	msgNotFound      = "слот не найден"
	msgNotMoveable   = "слот содержит непереносимые бронирования"
	msgSlotOverlaps  = "окно пересекается с занятым слотом"
)

// MoveSlotRequest HTTP request model
type MoveSlotRequest struct {
	Start string  `json:"start"`         // RFC3339
	End   *string `json:"end,omitempty"` // RFC3339, nil = сохранить длительность
}

// SlotResponse HTTP response model
type SlotResponse struct {
	ID    int64  `json:"id"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type Handler struct {
	useCase MoveSlotUseCase
	logger  Logger
}

func NewHandler(useCase MoveSlotUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/slots/{slotId}/move
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	slotID, err := strconv.ParseInt(vars["slotId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /slots/{id}/move - Invalid slot ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	var req MoveSlotRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /slots/{id}/move - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		h.logger.Warn("PATCH /slots/{id}/move - Invalid start: %v", err)
		handlers.RespondBadRequest(w, msgInvalidWindow)
		return
	}
	var end *time.Time
	if req.End != nil {
		parsed, err := time.Parse(time.RFC3339, *req.End)
		if err != nil {
			h.logger.Warn("PATCH /slots/{id}/move - Invalid end: %v", err)
			handlers.RespondBadRequest(w, msgInvalidWindow)
			return
		}
		end = &parsed
	}

	result, err := h.useCase.Execute(r.Context(), &moveSlot.Request{
		SlotID: slotID,
		Start:  start,
		End:    end,
	})
	if err != nil {
		switch {
		case errors.Is(err, moveSlot.ErrSlotNotFound):
			h.logger.Warn("PATCH /slots/{id}/move - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, moveSlot.ErrInvalidInput):
			h.logger.Warn("PATCH /slots/{id}/move - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, domain.ErrNotMoveable):
			h.logger.Warn("PATCH /slots/{id}/move - Not moveable: slot_id=%d", slotID)
			handlers.RespondConflict(w, msgNotMoveable)

		case errors.Is(err, domain.ErrSlotOverlaps):
			h.logger.Warn("PATCH /slots/{id}/move - Slot overlaps: slot_id=%d", slotID)
			handlers.RespondConflict(w, msgSlotOverlaps)

		default:
			h.logger.Error("PATCH /slots/{id}/move - Failed: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /slots/{id}/move - Slot moved: slot_id=%d", slotID)
	handlers.RespondJSON(w, http.StatusOK, &SlotResponse{
		ID:    result.ID,
		Start: result.Start.Format(time.RFC3339),
		End:   result.End.Format(time.RFC3339),
	})
}
