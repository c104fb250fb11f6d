package sqlite_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/sqlite"
	"github.com/phrazzld/taskmanager-api/internal/service"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := sqlite.Open(sqlite.MemoryPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close(db) })
	return db
}

func mustTask(t *testing.T, owner uuid.UUID, title string, created time.Time, due *time.Time) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, domain.TaskRequest{Title: title, DueDate: due}, created)
	require.NoError(t, err)
	return task
}

func ids(tasks []*domain.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestTaskStore_CRUD(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	ctx := context.Background()
	owner := uuid.New()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(24 * time.Hour)

	task := mustTask(t, owner, "Write report", now, &due)
	require.NoError(t, ts.Create(ctx, task))

	got, err := ts.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, got.Title)
	assert.Equal(t, task.OwnerID, got.OwnerID)
	assert.Equal(t, domain.TaskStatusPending, got.Status)
	require.NotNil(t, got.DueDate)
	assert.True(t, due.Equal(*got.DueDate))
	assert.True(t, now.Equal(got.CreatedAt))

	got.Title = "Renamed"
	got.DueDate = nil
	got.Priority = domain.TaskPriorityHigh
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, ts.Update(ctx, got))

	updated, err := ts.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Nil(t, updated.DueDate, "due date cleared")
	assert.Equal(t, domain.TaskPriorityHigh, updated.Priority)

	require.NoError(t, ts.Delete(ctx, task.ID))
	_, err = ts.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskStore_MissingRows(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	ctx := context.Background()
	ghost := mustTask(t, uuid.New(), "ghost", time.Now(), nil)

	assert.ErrorIs(t, ts.Update(ctx, ghost), store.ErrTaskNotFound)
	assert.ErrorIs(t, ts.Delete(ctx, ghost.ID), store.ErrTaskNotFound)
	_, err := ts.GetByID(ctx, ghost.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestTaskStore_DuplicateID(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	task := mustTask(t, uuid.New(), "once", time.Now(), nil)

	require.NoError(t, ts.Create(context.Background(), task))
	assert.ErrorIs(t, ts.Create(context.Background(), task), store.ErrDuplicate)
}

func TestTaskStore_Lists(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	ctx := context.Background()
	owner := uuid.New()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	soon := base.Add(time.Hour)
	later := base.Add(48 * time.Hour)

	first := mustTask(t, owner, "first", base, &later)
	second := mustTask(t, owner, "second", base.Add(time.Second), nil)
	third := mustTask(t, owner, "third", base.Add(2*time.Second), &soon)
	other := mustTask(t, uuid.New(), "other", base, nil)
	for _, task := range []*domain.Task{first, second, third, other} {
		require.NoError(t, ts.Create(ctx, task))
	}

	byCreated, err := ts.ListByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{third.ID, second.ID, first.ID}, ids(byCreated))

	byDue, err := ts.ListByOwnerOrderByDueDate(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{third.ID, first.ID, second.ID}, ids(byDue))

	require.NoError(t, second.TransitionTo(domain.TaskStatusInProgress, base.Add(time.Minute)))
	require.NoError(t, ts.Update(ctx, second))

	inProgress, err := ts.ListByOwnerAndStatus(ctx, owner, domain.TaskStatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{second.ID}, ids(inProgress))

	completed, err := ts.ListByOwnerAndStatus(ctx, owner, domain.TaskStatusCompleted)
	require.NoError(t, err)
	assert.NotNil(t, completed)
	assert.Empty(t, completed)

	none, err := ts.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestTaskStore_WithinTx(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	ctx := context.Background()
	task := mustTask(t, uuid.New(), "keep me", time.Now(), nil)
	require.NoError(t, ts.Create(ctx, task))

	abort := errors.New("abort")
	err := ts.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		require.NoError(t, tx.Delete(ctx, task.ID))
		return tx.WithinTx(ctx, func(context.Context, store.TaskStore) error { return abort })
	})
	require.ErrorIs(t, err, abort)

	_, err = ts.GetByID(ctx, task.ID)
	assert.NoError(t, err, "delete rolled back")

	err = ts.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		return tx.Delete(ctx, task.ID)
	})
	require.NoError(t, err)
	_, err = ts.GetByID(ctx, task.ID)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestUserStore(t *testing.T) {
	us := sqlite.NewUserStore(setupTestDB(t), nil)
	ctx := context.Background()

	user, err := domain.NewUser("ada@example.com", "hashed")
	require.NoError(t, err)
	require.NoError(t, us.Create(ctx, user))

	byEmail, err := us.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "hashed", byEmail.HashedPassword)

	byID, err := us.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	dup, err := domain.NewUser("ada@example.com", "other")
	require.NoError(t, err)
	assert.ErrorIs(t, us.Create(ctx, dup), store.ErrEmailExists)

	_, err = us.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestTaskService_OnSQLite(t *testing.T) {
	ts := sqlite.NewTaskStore(setupTestDB(t), nil)
	svc, err := service.NewTaskService(ts, nil)
	require.NoError(t, err)
	ctx := context.Background()
	owner := uuid.New()

	task, err := svc.Create(ctx, domain.TaskRequest{Title: "Write report"}, owner)
	require.NoError(t, err)

	_, err = svc.ChangeStatus(ctx, task.ID, domain.TaskStatusInProgress)
	require.NoError(t, err)

	inProgress := domain.TaskStatusInProgress
	pending := domain.TaskStatusPending
	_, err = svc.Update(ctx, task.ID, domain.TaskRequest{Title: "Backwards", Status: &pending}, owner)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	stored, err := ts.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", stored.Title)
	assert.Equal(t, inProgress, stored.Status)

	_, err = svc.Update(ctx, task.ID, domain.TaskRequest{Title: "Hijack"}, uuid.New())
	assert.ErrorIs(t, err, service.ErrNotOwned)

	require.NoError(t, svc.Delete(ctx, task.ID, owner))
	_, err = svc.GetTask(ctx, task.ID, owner)
	assert.ErrorIs(t, err, service.ErrTaskNotFound)
}
