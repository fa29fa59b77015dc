package dbmetrics

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeTx struct{ DBExecutor }

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }

type fakeDB struct{ DBExecutor }

func TestGetExecutor(t *testing.T) {
	db := &fakeDB{}
	ctx := context.Background()

	assert.False(t, IsInTransaction(ctx))
	assert.Same(t, db, GetExecutor(ctx, db))

	tx := &fakeTx{}
	txCtx := WithTx(ctx, tx)

	assert.True(t, IsInTransaction(txCtx))
	assert.Same(t, tx, GetExecutor(txCtx, db))
}

func TestWrap_NilMetricsObserve(t *testing.T) {
	wrapped := Wrap(nil, nil)
	assert.NotPanics(t, func() { wrapped.observe("exec", time.Now(), sql.ErrNoRows) })
}
