package update_charge

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/service/charges"
	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
)

const (
	msgInvalidChargeID = "некорректный ID начисления"
	msgInvalidBody     = "некорректное тело запроса"
	msgNotFound        = "начисление не найдено"
	msgNotEditable     = "начисление на выставленном счете нельзя менять"
)

// UpdateChargeRequest HTTP request model
type UpdateChargeRequest struct {
	Name     *string `json:"name,omitempty"`
	Line     *string `json:"line,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

type Handler struct {
	service ChargeService
	logger  Logger
}

func NewHandler(service ChargeService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/charges/{chargeId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chargeID, err := strconv.ParseInt(vars["chargeId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /charges/{id} - Invalid charge ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidChargeID)
		return
	}

	var req UpdateChargeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /charges/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	result, err := h.service.Update(r.Context(), chargeID, &models.UpdateChargeRequest{
		Name:     req.Name,
		Line:     req.Line,
		Quantity: req.Quantity,
	})
	if err != nil {
		switch {
		case errors.Is(err, charges.ErrChargeNotFound):
			h.logger.Warn("PATCH /charges/{id} - Charge not found: charge_id=%d", chargeID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, charges.ErrInvalidUpdate):
			h.logger.Warn("PATCH /charges/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, charges.ErrChargeNotEditable):
			h.logger.Warn("PATCH /charges/{id} - Charge frozen: charge_id=%d", chargeID)
			handlers.RespondConflict(w, msgNotEditable)

		default:
			h.logger.Error("PATCH /charges/{id} - Failed to update charge: charge_id=%d, error=%v", chargeID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /charges/{id} - Charge updated: charge_id=%d", chargeID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
