package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/psqlbuilder"
)

// Repository репозиторий для работы с оплатами счетов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория оплат
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую оплату
// Сумма не может быть отрицательной (check constraint в БД)
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns("invoice_id", "customer_id", "amount", "amount_currency").
		Values(p.InvoiceID, p.CustomerID, p.Amount.Amount, p.Amount.Currency).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time

	return p, nil
}

// GetByInvoiceID получает оплаты счета в порядке создания
func (r *Repository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"invoice_id",
		"customer_id",
		"amount",
		"amount_currency",
		"created_at",
		"updated_at",
	).
		From("payments").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByInvoiceID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByInvoiceID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		var amount decimal.Decimal
		var currency string
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(&p.ID, &p.InvoiceID, &p.CustomerID, &amount, &currency, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: GetByInvoiceID - scan row: %v", ErrScanRow, err)
		}

		p.Amount = domain.NewMoney(amount, currency)
		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time

		payments = append(payments, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetByInvoiceID - rows error: %v", ErrScanRow, err)
	}

	return payments, nil
}
