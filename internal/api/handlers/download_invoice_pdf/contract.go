package download_invoice_pdf

import "context"

type InvoiceService interface {
	DownloadPDF(ctx context.Context, invoiceID int64) ([]byte, string, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
