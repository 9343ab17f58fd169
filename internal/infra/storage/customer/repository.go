package customer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/cerberus-crm/booking-service/internal/domain"
	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
	"github.com/cerberus-crm/booking-service/pkg/psqlbuilder"
)

// Repository репозиторий клиентов и их питомцев
// CRUD клиентов живет во внешней CRM; ядру достаточно чтения
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория клиентов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает клиента по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"invoice_address",
		"invoice_email",
		"created_at",
		"updated_at",
	).
		From("customers").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var c domain.Customer
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&c.ID,
		&c.Name,
		&c.InvoiceAddress,
		&c.InvoiceEmail,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan customer: %v", ErrScanRow, err)
	}

	c.CreatedAt = createdAt.Time
	c.UpdatedAt = updatedAt.Time

	return &c, nil
}

// GetPetsByIDs получает питомцев по списку ID
// Возвращает ErrPetNotFound, если хотя бы один из питомцев не найден
func (r *Repository) GetPetsByIDs(ctx context.Context, ids []int64) ([]*domain.Pet, error) {
	if len(ids) == 0 {
		return []*domain.Pet{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "customer_id", "created_at", "updated_at").
		From("pets").
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetPetsByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetPetsByIDs - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	pets := make([]*domain.Pet, 0, len(ids))
	for rows.Next() {
		var p domain.Pet
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(&p.ID, &p.Name, &p.CustomerID, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: GetPetsByIDs - scan row: %v", ErrScanRow, err)
		}

		p.CreatedAt = createdAt.Time
		p.UpdatedAt = updatedAt.Time
		pets = append(pets, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetPetsByIDs - rows error: %v", ErrScanRow, err)
	}

	if len(pets) != len(uniqueIDs(ids)) {
		return nil, ErrPetNotFound
	}

	return pets, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
