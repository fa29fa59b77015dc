// Package dbmetrics обёртка над *sql.DB, которая пишет длительность запросов и состояние пула в метрики
package dbmetrics

import (
	"context"
	"database/sql"
	"time"
)

// Recorder получатель метрик БД (реализуется *metrics.Metrics)
type Recorder interface {
	ObserveDBQuery(operation string, duration time.Duration, err error)
	SetDBConnections(state string, value int)
}

const defaultStatsInterval = 15 * time.Second

// DB обёртка над *sql.DB с метриками
type DB struct {
	db      *sql.DB
	metrics Recorder
}

// Wrap оборачивает соединение без фонового сбора статистики пула
// metrics может быть nil
func Wrap(db *sql.DB, metrics Recorder) *DB {
	return &DB{db: db, metrics: metrics}
}

// WrapWithDefault оборачивает соединение и запускает сбор статистики пула до закрытия stopCh
func WrapWithDefault(db *sql.DB, metrics Recorder, stopCh <-chan struct{}) *DB {
	wrapped := Wrap(db, metrics)
	if metrics != nil {
		go wrapped.collectPoolStats(defaultStatsInterval, stopCh)
	}
	return wrapped
}

// Unwrap возвращает исходное соединение
func (d *DB) Unwrap() *sql.DB {
	return d.db
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := d.db.ExecContext(ctx, query, args...)
	d.observe("exec", start, err)
	return res, err
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := d.db.QueryContext(ctx, query, args...)
	d.observe("query", start, err)
	return rows, err
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := d.db.QueryRowContext(ctx, query, args...)
	d.observe("query_row", start, row.Err())
	return row
}

// BeginTx начинает транзакцию, запросы внутри которой тоже попадают в метрики
func (d *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (TxExecutor, error) {
	start := time.Now()
	tx, err := d.db.BeginTx(ctx, opts)
	d.observe("begin", start, err)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, metrics: d.metrics}, nil
}

// PingContext проверяет соединение
func (d *DB) PingContext(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DB) observe(operation string, start time.Time, err error) {
	if d.metrics == nil {
		return
	}
	if err == sql.ErrNoRows {
		err = nil
	}
	d.metrics.ObserveDBQuery(operation, time.Since(start), err)
}

func (d *DB) collectPoolStats(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	d.recordPoolStats()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.recordPoolStats()
		}
	}
}

func (d *DB) recordPoolStats() {
	stats := d.db.Stats()
	d.metrics.SetDBConnections("open", stats.OpenConnections)
	d.metrics.SetDBConnections("in_use", stats.InUse)
	d.metrics.SetDBConnections("idle", stats.Idle)
	d.metrics.SetDBConnections("wait_count", int(stats.WaitCount))
}

// Tx транзакция с метриками
type Tx struct {
	tx      *sql.Tx
	metrics Recorder
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	res, err := t.tx.ExecContext(ctx, query, args...)
	t.observe("tx_exec", start, err)
	return res, err
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := t.tx.QueryContext(ctx, query, args...)
	t.observe("tx_query", start, err)
	return rows, err
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := t.tx.QueryRowContext(ctx, query, args...)
	t.observe("tx_query_row", start, row.Err())
	return row
}

func (t *Tx) Commit() error {
	start := time.Now()
	err := t.tx.Commit()
	t.observe("commit", start, err)
	return err
}

func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return err
	}
	t.observe("rollback", time.Now(), err)
	return err
}

func (t *Tx) observe(operation string, start time.Time, err error) {
	if t.metrics == nil {
		return
	}
	if err == sql.ErrNoRows {
		err = nil
	}
	t.metrics.ObserveDBQuery(operation, time.Since(start), err)
}
