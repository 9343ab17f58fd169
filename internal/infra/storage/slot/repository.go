package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/psqlbuilder"
)

// Код ошибки PostgreSQL при нарушении уникального ограничения
const pgUniqueViolation = "23505"

// Repository репозиторий для работы со слотами бронирований
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый слот
// При гонке вставки одного и того же окна (start, end) возвращает
// ErrDuplicateWindow: уникальный индекс сериализует конкурентные попытки,
// проигравший перечитывает слот через GetByWindow
func (r *Repository) Create(ctx context.Context, s *domain.Slot) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_slots").
		Columns("start_at", "end_at").
		Values(s.Start, s.End).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateWindow
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

// GetByID получает слот по ID
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Slot, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByWindow получает слот по точному окну (start, end)
// Внутри транзакции блокирует строку (FOR UPDATE)
func (r *Repository) GetByWindow(ctx context.Context, start, end time.Time) (*domain.Slot, error) {
	return r.getOne(ctx, squirrel.Eq{"start_at": start, "end_at": end})
}

func (r *Repository) getOne(ctx context.Context, where squirrel.Eq) (*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("id", "start_at", "end_at", "created_at", "updated_at").
		From("booking_slots").
		Where(where)

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Slot
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.Start, &s.End, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: getOne - scan slot: %v", ErrScanRow, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}

// GetOverlapping получает слоты, окна которых пересекаются с [start, end),
// содержат его, содержатся в нем или совпадают с ним, исключая excludeID
// Внутри транзакции блокирует строки (FOR UPDATE), чтобы конкурентные
// аллокации перепроверяли пересечения сериализованно
func (r *Repository) GetOverlapping(ctx context.Context, start, end time.Time, excludeID int64) ([]*domain.Slot, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	overlap := squirrel.Or{
		squirrel.And{squirrel.Lt{"start_at": start}, squirrel.Gt{"end_at": start}},
		squirrel.And{squirrel.Lt{"start_at": end}, squirrel.Gt{"end_at": end}},
		squirrel.And{squirrel.Eq{"start_at": start}, squirrel.Eq{"end_at": end}},
		squirrel.And{squirrel.Gt{"start_at": start}, squirrel.Lt{"end_at": end}},
	}

	selectBuilder := psqlbuilder.Select("id", "start_at", "end_at", "created_at", "updated_at").
		From("booking_slots").
		Where(overlap).
		Where(squirrel.NotEq{"id": excludeID}).
		OrderBy("start_at ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.Slot, 0)
	for rows.Next() {
		var s domain.Slot
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(&s.ID, &s.Start, &s.End, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetOverlapping - scan row: %v", ErrScanRow, err)
		}

		s.CreatedAt = createdAt.Time
		s.UpdatedAt = updatedAt.Time
		slots = append(slots, &s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetOverlapping - rows error: %v", ErrScanRow, err)
	}

	return slots, nil
}

// UpdateWindow переносит окно слота
func (r *Repository) UpdateWindow(ctx context.Context, id int64, start, end time.Time) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("booking_slots").
		Set("start_at", start).
		Set("end_at", end).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateWindow - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return ErrDuplicateWindow
		}
		return fmt.Errorf("%w: UpdateWindow - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateWindow - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrSlotNotFound
	}

	return nil
}

// DeleteIfEmpty удаляет слот, если на него больше не ссылается ни одно
// бронирование. Возвращает true, если слот был удален
func (r *Repository) DeleteIfEmpty(ctx context.Context, id int64) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_slots").
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Expr("NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.slot_id = booking_slots.id)")).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: DeleteIfEmpty - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: DeleteIfEmpty - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: DeleteIfEmpty - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected > 0, nil
}

// DeleteEmpty удаляет все пустые слоты (фоновая чистка)
// Возвращает количество удаленных слотов
func (r *Repository) DeleteEmpty(ctx context.Context) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("booking_slots").
		Where(squirrel.Expr("NOT EXISTS (SELECT 1 FROM bookings WHERE bookings.slot_id = booking_slots.id)")).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteEmpty - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteEmpty - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteEmpty - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}
