package invoices

import (
	"context"
	"time"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/internal/integrations/mailer"
	"github.com/cerberus-crm/booking-service/internal/integrations/pdfrender"
)

// InvoiceRepository интерфейс репозитория счетов
type InvoiceRepository interface {
	Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error)
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
	UpdateState(ctx context.Context, id int64, state domain.InvoiceState) error
	UpdateSnapshot(ctx context.Context, inv *domain.Invoice) error
	UpdateDraft(ctx context.Context, inv *domain.Invoice) error
	Delete(ctx context.Context, id int64) error
}

// ChargeRepository интерфейс репозитория начислений
type ChargeRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Charge, error)
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*domain.Charge, error)
	UpdateState(ctx context.Context, id int64, state domain.ChargeState) error
	SetInvoice(ctx context.Context, id int64, invoiceID *int64) error
	SetCustomer(ctx context.Context, id int64, customerID *int64) error
}

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error)
	GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*domain.Payment, error)
}

// CustomerRepository интерфейс репозитория клиентов
type CustomerRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
}

// MailerClient интерфейс клиента сервиса рассылки
type MailerClient interface {
	SendInvoiceEmailWithGracefulDegradation(ctx context.Context, req *mailer.SendInvoiceEmailRequest) error
}

// PDFRenderClient интерфейс клиента сервиса отрисовки PDF
type PDFRenderClient interface {
	RenderInvoice(ctx context.Context, req *pdfrender.RenderInvoiceRequest) ([]byte, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
