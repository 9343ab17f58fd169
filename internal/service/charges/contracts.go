package charges

import (
	"context"

	"github.com/cerberus-crm/booking-service/internal/domain"
)

// ChargeRepository интерфейс репозитория начислений
type ChargeRepository interface {
	Create(ctx context.Context, charge *domain.Charge) (*domain.Charge, error)
	GetByID(ctx context.Context, id int64) (*domain.Charge, error)
	GetRefunds(ctx context.Context, parentChargeID int64) ([]*domain.Charge, error)
	Update(ctx context.Context, charge *domain.Charge, frozen bool) error
	UpdateState(ctx context.Context, id int64, state domain.ChargeState) error
	SetInvoice(ctx context.Context, id int64, invoiceID *int64) error
}

// InvoiceRepository интерфейс репозитория счетов.
// Нужен для проверки заморозки начисления на выставленном счете
type InvoiceRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Invoice, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
