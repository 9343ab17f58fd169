package delete_invoice

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/service/invoices/models"
)

type InvoiceService interface {
	Delete(ctx context.Context, invoiceID int64) (*models.InvoiceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
