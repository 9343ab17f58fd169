package update_invoice

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

type InvoiceService interface {
	Update(ctx context.Context, invoiceID int64, req *models.UpdateInvoiceRequest) (*models.InvoiceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
