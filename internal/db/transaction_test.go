package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWithRetry_RetriesOnBusy(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		if attempts < 3 {
			return errors.New("database is locked")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)
}

func TestWithRetry_StopsOnNonBusy(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 3, time.Millisecond, func() error {
		attempts++
		return errors.New("boom")
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
}

func TestWithRetry_StopsAfterMaxAttempts(t *testing.T) {
	attempts := 0
	err := withRetry(context.Background(), 2, time.Millisecond, func() error {
		attempts++
		return errors.New("database is busy")
	})
	require.Error(t, err)
	require.Equal(t, 2, attempts)
}

func TestWithRetry_HonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := withRetry(ctx, 3, time.Millisecond, func() error { return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, isBusyError(context.Canceled))
}

func TestTransactionRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.TransactionWithRetry(ctx, 0, 0, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO captures (id, name, created_at) VALUES ('c1', 'n', 'now')`); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.EqualError(t, err, "abort")

	var count int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(1) FROM captures`).Scan(&count))
	require.Equal(t, 0, count)
}
