package invoice

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

var invoiceColumns = []string{
	"id",
	"customer_id",
	"details",
	"due",
	"adjustment",
	"adjustment_currency",
	"state",
	"customer_name",
	"invoice_address",
	"sent_to",
	"send_notes",
	"paid_on",
	"sent_on",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы со счетами
// Производные суммы (subtotal, total, paid, unpaid) не хранятся:
// они пересчитываются из платежей и оплат при каждом чтении
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория счетов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый счет в состоянии draft
func (r *Repository) Create(ctx context.Context, inv *domain.Invoice) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("invoices").
		Columns(
			"customer_id",
			"details",
			"due",
			"adjustment",
			"adjustment_currency",
			"state",
			"customer_name",
			"invoice_address",
		).
		Values(
			inv.CustomerID,
			inv.Details,
			inv.Due,
			inv.Adjustment.Amount,
			inv.Adjustment.Currency,
			inv.State,
			inv.CustomerName,
			inv.InvoiceAddress,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&inv.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return inv, nil
}

// GetByID получает счет по ID
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Invoice, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(invoiceColumns...).
		From("invoices").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var inv domain.Invoice
	var adjustment decimal.Decimal
	var adjustmentCurrency string
	var due, paidOn, sentOn sql.NullTime
	var sendNotes sql.NullString
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&inv.ID,
		&inv.CustomerID,
		&inv.Details,
		&due,
		&adjustment,
		&adjustmentCurrency,
		&inv.State,
		&inv.CustomerName,
		&inv.InvoiceAddress,
		&inv.SentTo,
		&sendNotes,
		&paidOn,
		&sentOn,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan invoice: %v", ErrScanRow, err)
	}

	inv.Adjustment = domain.NewMoney(adjustment, adjustmentCurrency)
	if due.Valid {
		inv.Due = &due.Time
	}
	if paidOn.Valid {
		inv.PaidOn = &paidOn.Time
	}
	if sentOn.Valid {
		inv.SentOn = &sentOn.Time
	}
	inv.SendNotes = sendNotes.String
	inv.CreatedAt = createdAt.Time
	inv.UpdatedAt = updatedAt.Time

	return &inv, nil
}

// UpdateState обновляет состояние счета
// Переход в unpaid фиксирует sent_on, переход в paid - paid_on
func (r *Repository) UpdateState(ctx context.Context, id int64, state domain.InvoiceState) error {
	values := map[string]interface{}{"state": state}
	switch state {
	case domain.InvoiceStateUnpaid:
		values["sent_on"] = squirrel.Expr("NOW()")
	case domain.InvoiceStatePaid:
		values["paid_on"] = squirrel.Expr("NOW()")
	}
	return r.update(ctx, id, values)
}

// UpdateSnapshot записывает снимок данных клиента и параметры отправки
// Вызывается только переходом send: после отправки счет не редактируется
func (r *Repository) UpdateSnapshot(ctx context.Context, inv *domain.Invoice) error {
	return r.update(ctx, inv.ID, map[string]interface{}{
		"customer_name":   inv.CustomerName,
		"invoice_address": inv.InvoiceAddress,
		"sent_to":         inv.SentTo,
		"send_notes":      inv.SendNotes,
		"due":             inv.Due,
	})
}

// UpdateDraft обновляет редактируемые поля черновика
func (r *Repository) UpdateDraft(ctx context.Context, inv *domain.Invoice) error {
	return r.update(ctx, inv.ID, map[string]interface{}{
		"details":             inv.Details,
		"due":                 inv.Due,
		"adjustment":          inv.Adjustment.Amount,
		"adjustment_currency": inv.Adjustment.Currency,
	})
}

// Delete физически удаляет счет
// Использовать только для черновиков, иначе счет должен быть аннулирован
func (r *Repository) Delete(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("invoices").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Delete - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrInvoiceNotFound
	}

	return nil
}

func (r *Repository) update(ctx context.Context, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("invoices").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})
	for column, value := range values {
		updateBuilder = updateBuilder.Set(column, value)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: update - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrInvoiceNotFound
	}

	return nil
}
