package charge

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

var chargeColumns = []string{
	"id",
	"name",
	"line",
	"line_currency",
	"quantity",
	"state",
	"parent_charge_id",
	"customer_id",
	"invoice_id",
	"booking_id",
	"paid_on",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с платежами (charges)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый платеж
// Платеж без клиента наследует клиента своего счета
func (r *Repository) Create(ctx context.Context, c *domain.Charge) (*domain.Charge, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("charges").
		Columns(
			"name",
			"line",
			"line_currency",
			"quantity",
			"state",
			"parent_charge_id",
			"customer_id",
			"invoice_id",
			"booking_id",
		).
		Values(
			c.Name,
			c.Line.Amount,
			c.Line.Currency,
			c.Quantity,
			c.State,
			c.ParentChargeID,
			c.CustomerID,
			c.InvoiceID,
			c.BookingID,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&c.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return c, nil
}

// GetByID получает платеж по ID
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Charge, error) {
	charges, err := r.getWhere(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return nil, err
	}
	if len(charges) == 0 {
		return nil, ErrChargeNotFound
	}
	return charges[0], nil
}

// GetByInvoiceID получает платежи счета в порядке создания
func (r *Repository) GetByInvoiceID(ctx context.Context, invoiceID int64) ([]*domain.Charge, error) {
	return r.getWhere(ctx, squirrel.Eq{"invoice_id": invoiceID})
}

// GetByBookingID получает платежи, порожденные бронированием
func (r *Repository) GetByBookingID(ctx context.Context, bookingID int64) ([]*domain.Charge, error) {
	return r.getWhere(ctx, squirrel.Eq{"booking_id": bookingID})
}

// GetRefunds получает дочерние возвраты платежа
func (r *Repository) GetRefunds(ctx context.Context, parentChargeID int64) ([]*domain.Charge, error) {
	return r.getWhere(ctx, squirrel.Eq{
		"parent_charge_id": parentChargeID,
		"state":            domain.ChargeStateRefund,
	})
}

// UpdateState обновляет состояние платежа
// При переходе в paid фиксирует paid_on
func (r *Repository) UpdateState(ctx context.Context, id int64, state domain.ChargeState) error {
	values := map[string]interface{}{"state": state}
	if state == domain.ChargeStatePaid {
		values["paid_on"] = squirrel.Expr("NOW()")
	}
	return r.update(ctx, id, values)
}

// SetInvoice привязывает платеж к счету (nil = отвязать)
func (r *Repository) SetInvoice(ctx context.Context, id int64, invoiceID *int64) error {
	return r.update(ctx, id, map[string]interface{}{"invoice_id": invoiceID})
}

// SetCustomer проставляет клиента платежа
// Используется при привязке к счету, когда клиент платежа не задан
func (r *Repository) SetCustomer(ctx context.Context, id int64, customerID *int64) error {
	return r.update(ctx, id, map[string]interface{}{"customer_id": customerID})
}

// Update обновляет платеж
// frozen исключает финансовые поля (name, line, quantity, customer_id):
// платеж на отправленном счете не должен менять исторические суммы
func (r *Repository) Update(ctx context.Context, c *domain.Charge, frozen bool) error {
	values := map[string]interface{}{
		"invoice_id": c.InvoiceID,
	}

	if !frozen {
		values["name"] = c.Name
		values["line"] = c.Line.Amount
		values["line_currency"] = c.Line.Currency
		values["quantity"] = c.Quantity
		values["customer_id"] = c.CustomerID
	}

	return r.update(ctx, c.ID, values)
}

func (r *Repository) update(ctx context.Context, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("charges").
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
		return ErrChargeNotFound
	}

	return nil
}

func (r *Repository) getWhere(ctx context.Context, where interface{}) ([]*domain.Charge, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(chargeColumns...).
		From("charges").
		Where(where).
		OrderBy("created_at ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getWhere - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getWhere - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	charges := make([]*domain.Charge, 0)
	for rows.Next() {
		var c domain.Charge
		var line decimal.Decimal
		var currency string
		var paidOn sql.NullTime
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&c.ID,
			&c.Name,
			&line,
			&currency,
			&c.Quantity,
			&c.State,
			&c.ParentChargeID,
			&c.CustomerID,
			&c.InvoiceID,
			&c.BookingID,
			&paidOn,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: getWhere - scan row: %v", ErrScanRow, err)
		}

		c.Line = domain.NewMoney(line, currency)
		if paidOn.Valid {
			c.PaidOn = &paidOn.Time
		}
		c.CreatedAt = createdAt.Time
		c.UpdatedAt = updatedAt.Time

		charges = append(charges, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getWhere - rows error: %v", ErrScanRow, err)
	}

	return charges, nil
}
