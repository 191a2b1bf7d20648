package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/workflow-reconciler/internal/testutil"
)

func countDepartments(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM departments").Scan(&n))
	return n
}

func insertDepartment(ctx context.Context, db *sql.DB, code string) error {
	_, err := ExecutorFrom(ctx, db).ExecContext(ctx,
		"INSERT INTO departments (company_id, code, name, active) VALUES (1, ?, ?, 1)", code, code)
	return err
}

func TestWithTransaction_CommitAndRollback(t *testing.T) {
	sqlDB := testutil.NewDB(t)
	db := NewDB(sqlDB, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, db.WithTransaction(ctx, func(ctx context.Context) error {
		return insertDepartment(ctx, sqlDB, "ENG")
	}))
	assert.Equal(t, 1, countDepartments(t, sqlDB))

	boom := errors.New("boom")
	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, insertDepartment(ctx, sqlDB, "FIN"))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, countDepartments(t, sqlDB))
}

func TestWithTransaction_NestedCallsShareTransaction(t *testing.T) {
	sqlDB := testutil.NewDB(t)
	db := NewDB(sqlDB, zap.NewNop())

	err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
		outer := extractTx(ctx)
		require.NotNil(t, outer)
		if err := insertDepartment(ctx, sqlDB, "ENG"); err != nil {
			return err
		}
		return db.WithTransaction(ctx, func(inner context.Context) error {
			assert.Same(t, outer, extractTx(inner))
			if err := insertDepartment(inner, sqlDB, "OPS"); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
	})
	require.Error(t, err)
	assert.Zero(t, countDepartments(t, sqlDB), "inner failure rolls back the outer work")
}

func TestWithTransaction_PanicRollsBack(t *testing.T) {
	sqlDB := testutil.NewDB(t)
	db := NewDB(sqlDB, zap.NewNop())

	assert.Panics(t, func() {
		_ = db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_ = insertDepartment(ctx, sqlDB, "ENG")
			panic("row exploded")
		})
	})
	assert.Zero(t, countDepartments(t, sqlDB))
}

func TestExecutorFrom(t *testing.T) {
	sqlDB := testutil.NewDB(t)
	assert.Equal(t, Executor(sqlDB), ExecutorFrom(context.Background(), sqlDB))
}

func TestIsTransientError(t *testing.T) {
	assert.True(t, IsTransientError(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsTransientError(fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrLocked})))
	assert.False(t, IsTransientError(sqlite3.Error{Code: sqlite3.ErrConstraint}))
	assert.False(t, IsTransientError(errors.New("database is locked")))
	assert.False(t, IsTransientError(nil))
}
