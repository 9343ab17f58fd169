package create_invoice

import (
	"errors"
	"net/http"
	"time"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/invoices"
	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

const (
	msgInvalidBody    = "некорректное тело запроса"
	msgInvalidDue     = "некорректный срок оплаты, ожидается YYYY-MM-DD"
	msgChargeNotFound = "начисление не найдено"
	msgChargeAttached = "начисление уже привязано к другому счету"
)

// CreateInvoiceRequest HTTP request model
type CreateInvoiceRequest struct {
	CustomerID int64   `json:"customerId"`
	Details    string  `json:"details,omitempty"`
	Adjustment *string `json:"adjustment,omitempty"`
	Due        *string `json:"due,omitempty"` // YYYY-MM-DD
	ChargeIDs  []int64 `json:"chargeIds,omitempty"`
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

// Handle POST /api/v1/invoices
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateInvoiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /invoices - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBody)
		return
	}

	var due *time.Time
	if req.Due != nil {
		parsed, err := time.Parse(domain.DateFormat, *req.Due)
		if err != nil {
			h.logger.Warn("POST /invoices - Invalid due date: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDue)
			return
		}
		due = &parsed
	}

	result, err := h.service.Create(r.Context(), &models.CreateInvoiceRequest{
		CustomerID: req.CustomerID,
		Details:    req.Details,
		Adjustment: req.Adjustment,
		Due:        due,
		ChargeIDs:  req.ChargeIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvalidInput):
			h.logger.Warn("POST /invoices - Invalid input: %v", err)
			handlers.RespondBadRequest(w, err.Error())

		case errors.Is(err, invoices.ErrChargeNotFound):
			h.logger.Warn("POST /invoices - Charge not found: customer_id=%d", req.CustomerID)
			handlers.RespondNotFound(w, msgChargeNotFound)

		case errors.Is(err, invoices.ErrChargeAttached):
			h.logger.Warn("POST /invoices - Charge already attached: customer_id=%d", req.CustomerID)
			handlers.RespondConflict(w, msgChargeAttached)

		default:
			h.logger.Error("POST /invoices - Failed to create invoice: customer_id=%d, error=%v", req.CustomerID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /invoices - Invoice created: invoice_id=%d, customer_id=%d", result.ID, req.CustomerID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
