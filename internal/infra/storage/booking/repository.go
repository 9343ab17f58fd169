package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/psqlbuilder"
)

var bookingColumns = []string{
	"id",
	"customer_id",
	"service_id",
	"slot_id",
	"start_at",
	"end_at",
	"state",
	"cost",
	"cost_per_additional",
	"cost_currency",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
// Связь бронирование-питомцы хранится в таблице booking_pets
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование вместе со связями на питомцев
// Должен вызываться внутри транзакции вместе с созданием слота:
// бронирование и слот сохраняются атомарно
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var costPerAdditional decimal.NullDecimal
	if b.CostPerAdditional != nil {
		costPerAdditional = decimal.NullDecimal{Decimal: b.CostPerAdditional.Amount, Valid: true}
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"customer_id",
			"service_id",
			"slot_id",
			"start_at",
			"end_at",
			"state",
			"cost",
			"cost_per_additional",
			"cost_currency",
		).
		Values(
			b.CustomerID,
			b.ServiceID,
			b.SlotID,
			b.Start,
			b.End,
			b.State,
			b.Cost.Amount,
			costPerAdditional,
			b.Cost.Currency,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&b.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	if err := r.insertPets(ctx, b.ID, b.PetIDs); err != nil {
		return nil, err
	}

	return b, nil
}

// GetByID получает бронирование по ID вместе со списком питомцев
// Внутри транзакции блокирует строку бронирования (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	bookings, err := r.getWhere(ctx, squirrel.Eq{"id": id}, "")
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrBookingNotFound
	}
	return bookings[0], nil
}

// GetBySlotID получает бронирования слота
// activeOnly исключает отмененные бронирования
// Внутри транзакции блокирует строки (FOR UPDATE) - это точка сериализации
// конкурентных проверок вместимости слота
func (r *Repository) GetBySlotID(ctx context.Context, slotID int64, activeOnly bool) ([]*domain.Booking, error) {
	where := squirrel.And{squirrel.Eq{"slot_id": slotID}}
	if activeOnly {
		where = append(where, squirrel.NotEq{"state": domain.BookingStateCanceled})
	}
	return r.getWhere(ctx, where, "start_at ASC")
}

// GetByCustomerID получает бронирования клиента, новые сначала
func (r *Repository) GetByCustomerID(ctx context.Context, customerID int64) ([]*domain.Booking, error) {
	return r.getWhere(ctx, squirrel.Eq{"customer_id": customerID}, "start_at DESC")
}

// CountBySlotIDs подсчитывает активные бронирования в каждом из слотов
// Используется проверкой пересечений: пересечение с пустым слотом допустимо
func (r *Repository) CountBySlotIDs(ctx context.Context, slotIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(slotIDs))
	if len(slotIDs) == 0 {
		return counts, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("slot_id", "COUNT(*)").
		From("bookings").
		Where(squirrel.Expr("slot_id = ANY(?)", pq.Array(slotIDs))).
		Where(squirrel.NotEq{"state": domain.BookingStateCanceled}).
		GroupBy("slot_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CountBySlotIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: CountBySlotIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var slotID int64
		var count int
		if err := rows.Scan(&slotID, &count); err != nil {
			return nil, fmt.Errorf("%w: CountBySlotIDs - scan row: %v", ErrScanRow, err)
		}
		counts[slotID] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: CountBySlotIDs - rows error: %v", ErrScanRow, err)
	}

	return counts, nil
}

// UpdateState обновляет состояние бронирования
func (r *Repository) UpdateState(ctx context.Context, id int64, state domain.BookingState) error {
	return r.update(ctx, id, map[string]interface{}{"state": state})
}

// UpdateStateAndSlot меняет состояние и слот одним UPDATE.
// CHECK-ограничение консистентности state/slot_id проверяется Postgres на
// каждом операторе: раздельные UPDATE при отмене/восстановлении падали бы
// на промежуточном состоянии
func (r *Repository) UpdateStateAndSlot(ctx context.Context, id int64, state domain.BookingState, slotID *int64) error {
	return r.update(ctx, id, map[string]interface{}{
		"state":   state,
		"slot_id": slotID,
	})
}

// UpdateSlot переводит бронирование на другой слот (nil = отвязать)
// вместе с новым окном. Вызывается переходами cancel/reopen и переносами
func (r *Repository) UpdateSlot(ctx context.Context, id int64, slotID *int64, start, end *time.Time) error {
	values := map[string]interface{}{"slot_id": slotID}
	if start != nil {
		values["start_at"] = *start
	}
	if end != nil {
		values["end_at"] = *end
	}
	return r.update(ctx, id, values)
}

// UpdateWindow переносит окно бронирования без смены слота
// Используется при переносе слота целиком
func (r *Repository) UpdateWindow(ctx context.Context, id int64, start, end time.Time) error {
	return r.update(ctx, id, map[string]interface{}{"start_at": start, "end_at": end})
}

func (r *Repository) update(ctx context.Context, id int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
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
		return ErrBookingNotFound
	}

	return nil
}

func (r *Repository) getWhere(ctx context.Context, where interface{}, orderBy string) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(where)

	if orderBy != "" {
		selectBuilder = selectBuilder.OrderBy(orderBy)
	}

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

	bookings, err := r.scanBookings(rows)
	if err != nil {
		return nil, err
	}

	if err := r.loadPets(ctx, bookings); err != nil {
		return nil, err
	}

	return bookings, nil
}

func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		var b domain.Booking
		var cost decimal.Decimal
		var costPerAdditional decimal.NullDecimal
		var currency string
		var createdAt, updatedAt sql.NullTime

		err := rows.Scan(
			&b.ID,
			&b.CustomerID,
			&b.ServiceID,
			&b.SlotID,
			&b.Start,
			&b.End,
			&b.State,
			&cost,
			&costPerAdditional,
			&currency,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}

		b.Cost = domain.NewMoney(cost, currency)
		if costPerAdditional.Valid {
			perAdditional := domain.NewMoney(costPerAdditional.Decimal, currency)
			b.CostPerAdditional = &perAdditional
		}
		b.CreatedAt = createdAt.Time
		b.UpdatedAt = updatedAt.Time

		bookings = append(bookings, &b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// loadPets загружает питомцев для набора бронирований одним запросом
func (r *Repository) loadPets(ctx context.Context, bookings []*domain.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	byID := make(map[int64]*domain.Booking, len(bookings))
	ids := make([]int64, 0, len(bookings))
	for _, b := range bookings {
		byID[b.ID] = b
		ids = append(ids, b.ID)
	}

	query, args, err := psqlbuilder.Select("booking_id", "pet_id").
		From("booking_pets").
		Where(squirrel.Expr("booking_id = ANY(?)", pq.Array(ids))).
		OrderBy("pet_id ASC").
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: loadPets - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: loadPets - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var bookingID, petID int64
		if err := rows.Scan(&bookingID, &petID); err != nil {
			return fmt.Errorf("%w: loadPets - scan row: %v", ErrScanRow, err)
		}
		if b, ok := byID[bookingID]; ok {
			b.PetIDs = append(b.PetIDs, petID)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: loadPets - rows error: %v", ErrScanRow, err)
	}

	return nil
}

func (r *Repository) insertPets(ctx context.Context, bookingID int64, petIDs []int64) error {
	if len(petIDs) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	insertBuilder := psqlbuilder.Insert("booking_pets").Columns("booking_id", "pet_id")
	for _, petID := range petIDs {
		insertBuilder = insertBuilder.Values(bookingID, petID)
	}

	query, args, err := insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: insertPets - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: insertPets - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}
