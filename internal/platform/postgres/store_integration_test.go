//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/postgres"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/phrazzld/taskmanager-api/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(t *testing.T, owner uuid.UUID, title string, created time.Time, due *time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, domain.TaskRequest{Title: title, DueDate: due}, created)
	require.NoError(t, err)
	return task
}

func TestPostgresTaskStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	owner := testdb.CreateTestUser(t, db)
	ts := postgres.NewPostgresTaskStore(db, nil)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	soon := base.Add(time.Hour)
	later := base.Add(72 * time.Hour)

	first := newTask(t, owner, "first", base, &later)
	second := newTask(t, owner, "second", base.Add(time.Second), nil)
	third := newTask(t, owner, "third", base.Add(2*time.Second), &soon)
	for _, task := range []*domain.Task{first, second, third} {
		require.NoError(t, ts.Create(ctx, task))
	}

	t.Run("get round trip", func(t *testing.T) {
		got, err := ts.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first.Title, got.Title)
		assert.Equal(t, first.OwnerID, got.OwnerID)
		require.NotNil(t, got.DueDate)
		assert.True(t, later.Equal(*got.DueDate))
		assert.True(t, first.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("list orders", func(t *testing.T) {
		byCreated, err := ts.ListByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, byCreated, 3)
		assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID},
			[]uuid.UUID{byCreated[0].ID, byCreated[1].ID, byCreated[2].ID})

		byDue, err := ts.ListByOwnerOrderByDueDate(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{third.ID, first.ID, second.ID},
			[]uuid.UUID{byDue[0].ID, byDue[1].ID, byDue[2].ID})
	})

	t.Run("update and filter by status", func(t *testing.T) {
		require.NoError(t, second.TransitionTo(domain.TaskStatusInProgress, base.Add(time.Minute)))
		require.NoError(t, ts.Update(ctx, second))

		inProgress, err := ts.ListByOwnerAndStatus(ctx, owner, domain.TaskStatusInProgress)
		require.NoError(t, err)
		require.Len(t, inProgress, 1)
		assert.Equal(t, second.ID, inProgress[0].ID)
	})

	t.Run("transaction rolls back", func(t *testing.T) {
		sentinel := errors.New("abort")
		err := ts.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
			if err := tx.Delete(ctx, first.ID); err != nil {
				return err
			}
			return sentinel
		})
		require.ErrorIs(t, err, sentinel)

		_, err = ts.GetByID(ctx, first.ID)
		assert.NoError(t, err, "delete must be rolled back")
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, ts.Delete(ctx, third.ID))
		_, err := ts.GetByID(ctx, third.ID)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
		assert.ErrorIs(t, ts.Delete(ctx, third.ID), store.ErrTaskNotFound)
	})

	t.Run("unknown owner violates foreign key", func(t *testing.T) {
		orphan := newTask(t, uuid.New(), "orphan", base, nil)
		assert.ErrorIs(t, ts.Create(ctx, orphan), store.ErrInvalidEntity)
	})
}

func TestPostgresUserStore_Integration(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		us := postgres.NewPostgresUserStore(tx, nil)
		ctx := context.Background()

		user, err := domain.NewUser("integration-"+uuid.NewString()+"@example.com", "hashed")
		require.NoError(t, err)
		require.NoError(t, us.Create(ctx, user))

		byEmail, err := us.GetByEmail(ctx, user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)

		byID, err := us.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, byID.Email)

		_, err = us.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrUserNotFound)
	})
}
