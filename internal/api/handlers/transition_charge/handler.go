package transition_charge

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/charges"
	"github.com/cerberus-crm/booking-service/internal/service/charges/models"
)

const (
	msgInvalidChargeID      = "некорректный ID начисления"
	msgInvalidBody          = "некорректное тело запроса"
	msgUnknownAction        = "неизвестное действие"
	msgNotFound             = "начисление не найдено"
	msgTransitionNotAllowed = "переход недоступен из текущего состояния"
	msgRefundRejected       = "возврат невозможен"
	msgInvalidAmount        = "некорректная сумма возврата"
)

// TransitionChargeRequest HTTP request model (тело опционально,
// используется только действием refund)
type TransitionChargeRequest struct {
	Amount *string `json:"amount,omitempty"`
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

// Handle POST /api/v1/charges/{chargeId}/transitions/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	chargeID, err := strconv.ParseInt(vars["chargeId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /charges/{id}/transitions - Invalid charge ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidChargeID)
		return
	}
	action := vars["action"]

	var req TransitionChargeRequest
	if decodeErr := handlers.DecodeJSON(r, &req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		h.logger.Warn("POST /charges/{id}/transitions - Invalid request body: %v", decodeErr)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	var result *models.ChargeResponse
	switch domain.ChargeAction(action) {
	case domain.ChargeActionPay:
		result, err = h.service.Pay(r.Context(), chargeID)
	case domain.ChargeActionVoid:
		result, err = h.service.Void(r.Context(), chargeID)
	case domain.ChargeActionRefund:
		result, err = h.service.Refund(r.Context(), chargeID, req.Amount)
	default:
		h.logger.Warn("POST /charges/{id}/transitions - Unknown action: charge_id=%d, action=%s", chargeID, action)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, charges.ErrChargeNotFound):
			h.logger.Warn("POST /charges/{id}/transitions - Charge not found: charge_id=%d", chargeID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrTransitionNotAllowed):
			h.logger.Warn("POST /charges/{id}/transitions - Transition not allowed: charge_id=%d, action=%s", chargeID, action)
			handlers.RespondConflict(w, msgTransitionNotAllowed)

		case errors.Is(err, domain.ErrChargeRefund):
			h.logger.Warn("POST /charges/{id}/transitions - Refund rejected: charge_id=%d, error=%v", chargeID, err)
			handlers.RespondConflict(w, msgRefundRejected)

		case errors.Is(err, charges.ErrInvalidAmount):
			h.logger.Warn("POST /charges/{id}/transitions - Invalid amount: charge_id=%d", chargeID)
			handlers.RespondBadRequest(w, msgInvalidAmount)

		default:
			h.logger.Error("POST /charges/{id}/transitions - Failed: charge_id=%d, action=%s, error=%v",
				chargeID, action, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /charges/{id}/transitions - Transition applied: charge_id=%d, action=%s", chargeID, action)
	handlers.RespondJSON(w, http.StatusOK, result)
}
