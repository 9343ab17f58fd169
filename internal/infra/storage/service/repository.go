package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/psqlbuilder"
)

var serviceColumns = []string{
	"id",
	"name",
	"length_minutes",
	"booked_length_minutes",
	"cost",
	"cost_per_additional",
	"cost_currency",
	"max_pets",
	"max_customers",
	"created_at",
	"updated_at",
}

// Repository репозиторий каталога услуг
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория услуг
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую услугу
func (r *Repository) Create(ctx context.Context, s *domain.Service) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var costPerAdditional decimal.NullDecimal
	if s.CostPerAdditional != nil {
		costPerAdditional = decimal.NullDecimal{Decimal: s.CostPerAdditional.Amount, Valid: true}
	}

	query, args, err := psqlbuilder.Insert("services").
		Columns(
			"name",
			"length_minutes",
			"booked_length_minutes",
			"cost",
			"cost_per_additional",
			"cost_currency",
			"max_pets",
			"max_customers",
		).
		Values(
			s.Name,
			int(s.Length/time.Minute),
			int(s.BookedLength/time.Minute),
			s.Cost.Amount,
			costPerAdditional,
			s.Cost.Currency,
			s.MaxPets,
			s.MaxCustomers,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&s.ID, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return s, nil
}

// GetByID получает услугу по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(serviceColumns...).
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var s domain.Service
	var lengthMinutes, bookedLengthMinutes int
	var cost decimal.Decimal
	var costPerAdditional decimal.NullDecimal
	var currency string
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&s.ID,
		&s.Name,
		&lengthMinutes,
		&bookedLengthMinutes,
		&cost,
		&costPerAdditional,
		&currency,
		&s.MaxPets,
		&s.MaxCustomers,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan service: %v", ErrScanRow, err)
	}

	s.Length = time.Duration(lengthMinutes) * time.Minute
	s.BookedLength = time.Duration(bookedLengthMinutes) * time.Minute
	s.Cost = domain.NewMoney(cost, currency)
	if costPerAdditional.Valid {
		perAdditional := domain.NewMoney(costPerAdditional.Decimal, currency)
		s.CostPerAdditional = &perAdditional
	}
	s.CreatedAt = createdAt.Time
	s.UpdatedAt = updatedAt.Time

	return &s, nil
}
