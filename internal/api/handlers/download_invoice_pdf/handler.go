package download_invoice_pdf

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/cerberus-crm/booking-service/internal/api/handlers"
	"github.com/cerberus-crm/booking-service/internal/service/invoices"
)

const (
	msgInvalidInvoiceID = "некорректный ID счета"
	msgNotFound         = "счет не найден"
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

// Handle GET /api/v1/invoices/{invoiceId}/pdf
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	invoiceID, err := strconv.ParseInt(vars["invoiceId"], 10, 64)
	if err != nil {
		h.logger.Warn("GET /invoices/{id}/pdf - Invalid invoice ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidInvoiceID)
		return
	}

	pdf, filename, err := h.service.DownloadPDF(r.Context(), invoiceID)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrInvoiceNotFound):
			h.logger.Warn("GET /invoices/{id}/pdf - Invoice not found: invoice_id=%d", invoiceID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /invoices/{id}/pdf - Failed to render: invoice_id=%d, error=%v", invoiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /invoices/{id}/pdf - PDF rendered: invoice_id=%d, size=%d", invoiceID, len(pdf))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
