package dbmetrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/cerberus-crm/booking-service/pkg/metrics"
)

// DBExecutor общий интерфейс выполнения запросов
// Реализуется *sql.DB, *sql.Tx, *DB и *Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxExecutor интерфейс транзакции
type TxExecutor interface {
	DBExecutor
	Commit() error
	Rollback() error
}

type ctxKey int

const txKey ctxKey = iota

// WithTransaction кладет транзакцию в контекст
// Репозитории достают её через GetExecutor
func WithTransaction(ctx context.Context, tx TxExecutor) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetExecutor возвращает активную транзакцию из контекста, если она есть,
// иначе переданный по умолчанию executor
func GetExecutor(ctx context.Context, fallback DBExecutor) DBExecutor {
	if tx, ok := ctx.Value(txKey).(TxExecutor); ok {
		return tx
	}
	return fallback
}

// IsInTransaction сообщает, выполняется ли запрос внутри транзакции
func IsInTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey).(TxExecutor)
	return ok
}

// DB обертка над *sql.DB, записывающая метрики каждого запроса
type DB struct {
	db        *sql.DB
	collector *metrics.Metrics
}

// Wrap оборачивает *sql.DB сборщиком метрик
func Wrap(db *sql.DB, collector *metrics.Metrics) *DB {
	return &DB{db: db, collector: collector}
}

// WrapWithDefault оборачивает *sql.DB и запускает сбор метрик connection pool
// Сбор останавливается закрытием stopCh
func WrapWithDefault(db *sql.DB, collector *metrics.Metrics, dbName string, stopCh <-chan struct{}) *DB {
	wrapped := Wrap(db, collector)
	go wrapped.collectPoolStats(dbName, stopCh)
	return wrapped
}

// ExecContext выполняет запрос с записью метрик
func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.collector.ObserveDBQuery("exec", time.Since(start).Seconds(), err)
	return res, err
}

// QueryContext выполняет запрос с записью метрик
func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.collector.ObserveDBQuery("query", time.Since(start).Seconds(), err)
	return rows, err
}

// QueryRowContext выполняет запрос с записью метрик
// Ошибка выполнения доступна только при Scan, поэтому фиксируется без статуса ошибки
func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.collector.ObserveDBQuery("query_row", time.Since(start).Seconds(), nil)
	return row
}

// BeginTx начинает транзакцию, обернутую метриками
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, opts)
	d.collector.ObserveDBQuery("begin", time.Since(start).Seconds(), err)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, collector: d.collector}, nil
}

func (d *DB) collectPoolStats(dbName string, stopCh <-chan struct{}) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			stats := d.db.Stats()
			d.collector.DBPoolOpenConns.WithLabelValues(dbName).Set(float64(stats.OpenConnections))
			d.collector.DBPoolInUseConns.WithLabelValues(dbName).Set(float64(stats.InUse))
			d.collector.DBPoolIdleConns.WithLabelValues(dbName).Set(float64(stats.Idle))
		}
	}
}

// Tx транзакция с записью метрик
type Tx struct {
	tx        *sql.Tx
	collector *metrics.Metrics
}

// ExecContext выполняет запрос внутри транзакции с записью метрик
func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.collector.ObserveDBQuery("tx_exec", time.Since(start).Seconds(), err)
	return res, err
}

// QueryContext выполняет запрос внутри транзакции с записью метрик
func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.collector.ObserveDBQuery("tx_query", time.Since(start).Seconds(), err)
	return rows, err
}

// QueryRowContext выполняет запрос внутри транзакции с записью метрик
func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.collector.ObserveDBQuery("tx_query_row", time.Since(start).Seconds(), nil)
	return row
}

// Commit фиксирует транзакцию
func (t *Tx) Commit() error {
	start := time.Now()
	err := t.tx.Commit()
	t.collector.ObserveDBQuery("commit", time.Since(start).Seconds(), err)
	return err
}

// Rollback откатывает транзакцию
func (t *Tx) Rollback() error {
	return t.tx.Rollback()
}
