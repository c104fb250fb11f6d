package postgres_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "tasks",
		ColumnName:     "title",
		ConstraintName: "tasks_owner_id_fkey",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "no rows", err: sql.ErrNoRows, sentinel: store.ErrNotFound},
		{name: "unique violation", err: newPgError("23505"), sentinel: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError("23503"), sentinel: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError("23514"), sentinel: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError("23502"), sentinel: store.ErrInvalidEntity},
		{name: "wrapped unique violation", err: fmt.Errorf("exec: %w", newPgError("23505")), sentinel: store.ErrDuplicate},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := postgres.MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.sentinel)
			assert.ErrorIs(t, mapped, tt.err)
		})
	}

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, postgres.MapError(nil))
	})

	t.Run("unmapped errors pass through", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Equal(t, plain, postgres.MapError(plain))

		other := newPgError("42P01")
		assert.Equal(t, error(other), postgres.MapError(other))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, postgres.IsUniqueViolation(newPgError("23505")))
	assert.True(t, postgres.IsUniqueViolation(fmt.Errorf("wrapped: %w", newPgError("23505"))))
	assert.False(t, postgres.IsUniqueViolation(newPgError("23503")))
	assert.False(t, postgres.IsUniqueViolation(errors.New("generic")))
	assert.False(t, postgres.IsUniqueViolation(nil))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	require.NoError(t, postgres.CheckRowsAffected(sqlmock.NewResult(0, 1), store.ErrTaskNotFound))
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(sqlmock.NewResult(0, 0), store.ErrTaskNotFound),
		store.ErrTaskNotFound)

	resultErr := errors.New("driver does not support RowsAffected")
	assert.ErrorIs(t,
		postgres.CheckRowsAffected(sqlmock.NewErrorResult(resultErr), store.ErrTaskNotFound),
		resultErr)

	assert.Error(t, postgres.CheckRowsAffected(nil, store.ErrTaskNotFound))
}
