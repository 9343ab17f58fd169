package simpletxmanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cerberus-crm/booking-service/pkg/dbmetrics"
)

// TransactionManager менеджер транзакций поверх *sql.DB без сбора метрик
// Используется, когда метрики выключены в конфигурации
type TransactionManager struct {
	db *sql.DB
}

// NewTransactionManager создает новый менеджер транзакций
func NewTransactionManager(db *sql.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.do(ctx, nil, fn)
}

// DoSerializable выполняет fn в сериализуемой транзакции
func (m *TransactionManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.do(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable}, fn)
}

// DoReadOnly выполняет fn в транзакции только для чтения
func (m *TransactionManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.do(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (m *TransactionManager) do(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	if dbmetrics.IsInTransaction(ctx) {
		return fn(ctx)
	}

	tx, err := m.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("simpletxmanager: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTransaction(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("simpletxmanager: rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("simpletxmanager: commit transaction: %w", err)
	}

	return nil
}
