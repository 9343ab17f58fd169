package transition_invoice

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/invoices"
	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

const (
	actionResend = "resend"

	msgInvalidInvoiceID     = "некорректный ID счета"
	msgInvalidBody          = "некорректное тело запроса"
	msgUnknownAction        = "неизвестное действие"
	msgNotFound             = "счет не найден"
	msgTransitionNotAllowed = "переход недоступен из текущего состояния"
	msgCustomerNotSet       = "у счета нет клиента"
	msgCustomerDataIssues   = "у клиента есть проблемы с данными для выставления счета"
	msgNotSent              = "счет еще не отправлялся"
)

// TransitionInvoiceRequest HTTP request model (тело опционально,
// используется только действием send)
type TransitionInvoiceRequest struct {
	To        *string `json:"to,omitempty"`
	SendEmail *bool   `json:"sendEmail,omitempty"`
	Notes     *string `json:"notes,omitempty"`
}

type Handler struct {
	service InvoiceService
	logger  Logger
}

func NewHandler(service InvoiceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/invoices/{invoiceId}/transitions/{action}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /invoices/{id}/transitions - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}
	action := vars["action"]

	var req TransitionInvoiceRequest
	if decodeErr := handlers.DecodeJSON(r, &req); decodeErr != nil && !errors.Is(decodeErr, io.EOF) {
		h.logger.Warn("POST /invoices/{id}/transitions - Invalid request body: %v", decodeErr)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	var result *models.InvoiceResponse
	switch {
	case action == string(domain.InvoiceActionSend):
		result, err = h.service.Send(r.Context(), invoiceID, &models.SendInvoiceRequest{
			To:        req.To,
			SendEmail: req.SendEmail,
			Notes:     req.Notes,
		})
	case action == actionResend:
		result, err = h.service.Resend(r.Context(), invoiceID)
	case action == string(domain.InvoiceActionPay):
		result, err = h.service.Pay(r.Context(), invoiceID)
	case action == string(domain.InvoiceActionVoid):
		result, err = h.service.Void(r.Context(), invoiceID)
	default:
		h.logger.Warn("POST /invoices/{id}/transitions - Unknown action: invoice_id=%d, action=%s", invoiceID, action)
		handlers.RespondBadRequest(w, msgUnknownAction)
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("POST /invoices/{id}/transitions - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrTransitionNotAllowed):
			h.logger.Warn("POST /invoices/{id}/transitions - Transition not allowed: invoice_id=%d, action=%s", invoiceID, action)
			handlers.RespondConflict(w, msgTransitionNotAllowed)

		case errors.Is(err, invoices.ErrCustomerNotSet):
			h.logger.Warn("POST /invoices/{id}/transitions - Customer not set: invoice_id=%d", invoiceID)
			handlers.RespondConflict(w, msgCustomerNotSet)

		case errors.Is(err, domain.ErrCustomerDataIssues):
			h.logger.Warn("POST /invoices/{id}/transitions - Customer data issues: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondConflict(w, msgCustomerDataIssues)

		case errors.Is(err, invoices.ErrNotSent):
			h.logger.Warn("POST /invoices/{id}/transitions - Not sent yet: invoice_id=%d", invoiceID)
			handlers.RespondConflict(w, msgNotSent)

		default:
			h.logger.Error("POST /invoices/{id}/transitions - Failed: invoice_id=%d, action=%s, error=%v",
				invoiceID, action, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices/{id}/transitions - Transition applied: invoice_id=%d, action=%s, state=%s",
		invoiceID, action, result.State)
	handlers.RespondJSON(w, http.StatusOK, result)
}
