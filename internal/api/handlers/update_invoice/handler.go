package update_invoice

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/invoices"
	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

const (
	msgInvalidInvoiceID = "некорректный ID счета"
	msgInvalidBody      = "некорректное тело запроса"
	msgInvalidDue       = "некорректный срок оплаты, ожидается YYYY-MM-DD"
	msgNotFound         = "счет не найден"
	msgNotEditable      = "счет уже нельзя редактировать"
)

// UpdateInvoiceRequest HTTP request model
type UpdateInvoiceRequest struct {
	Details    *string `json:"details,omitempty"`
	Adjustment *string `json:"adjustment,omitempty"`
	Due        *string `json:"due,omitempty"` // YYYY-MM-DD
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

// Handle PATCH /api/v1/invoices/{invoiceId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /invoices/{id} - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	var req UpdateInvoiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /invoices/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	var due *time.Time
	if req.Due != nil {
		parsed, err := time.Parse(domain.DateFormat, *req.Due)
		if err != nil {
			h.logger.Warn("PATCH /invoices/{id} - Invalid due date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDue)
			return
		}
		due = &parsed
	}

	result, err := h.service.Update(r.Context(), invoiceID, &models.UpdateInvoiceRequest{
		Details:    req.Details,
		Adjustment: req.Adjustment,
		Due:        due,
	})
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("PATCH /invoices/{id} - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, invoices.ErrInvalidInput):
			h.logger.Warn("PATCH /invoices/{id} - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, domain.ErrTransitionNotAllowed):
			h.logger.Warn("PATCH /invoices/{id} - Not editable: invoice_id=%d", invoiceID)
			handlers.RespondConflict(w, msgNotEditable)

		default:
			h.logger.Error("PATCH /invoices/{id} - Failed to update invoice: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /invoices/{id} - Invoice updated: invoice_id=%d", invoiceID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
