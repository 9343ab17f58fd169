package delete_invoice

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/service/invoices"
)

const (
	msgInvalidInvoiceID = "некорректный ID счета"
	msgNotFound         = "счет не найден"
	msgNotDeletable     = "счет уже оплачен или аннулирован"
)

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

// Handle DELETE /api/v1/invoices/{invoiceId}
// Черновик удаляется физически (204), отправленный счет аннулируется
// и возвращается в теле ответа (200)
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("DELETE /invoices/{id} - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	result, err := h.service.Delete(r.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("DELETE /invoices/{id} - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, domain.ErrTransitionNotAllowed):
			h.logger.Warn("DELETE /invoices/{id} - Already finalized: invoice_id=%d", invoiceID)
			handlers.RespondConflict(w, msgNotDeletable)

		default:
			h.logger.Error("DELETE /invoices/{id} - Failed to delete invoice: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	if result == nil {
		h.logger.Info("DELETE /invoices/{id} - Draft invoice deleted: invoice_id=%d", invoiceID)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Info("DELETE /invoices/{id} - Invoice voided: invoice_id=%d", invoiceID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
