package cache

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

func taskKey(id uuid.UUID) string {
	return "task:" + id.String()
}

func ownerListKey(ownerID uuid.UUID) string {
	return "tasks:owner:" + ownerID.String()
}

// TaskStore is a cache-aside store.TaskStore. GetByID and ListByOwner are
// served from the cache when possible. Writes invalidate the affected keys
// once they are durable: immediately outside a transaction, after commit
// inside WithinTx.
type TaskStore struct {
	inner  store.TaskStore
	cache  Backend
	logger *slog.Logger

	// pending collects keys to invalidate when the enclosing transaction
	// commits. It is nil outside WithinTx.
	pending *[]string
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore wraps inner with the given cache backend.
func NewTaskStore(inner store.TaskStore, cache Backend, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		inner:  inner,
		cache:  cache,
		logger: logger.With(slog.String("component", "task_cache")),
	}
}

func (s *TaskStore) inTx() bool {
	return s.pending != nil
}

// invalidate drops keys now, or after commit when inside a transaction.
func (s *TaskStore) invalidate(ctx context.Context, keys ...string) {
	if s.inTx() {
		*s.pending = append(*s.pending, keys...)
		return
	}
	s.drop(ctx, keys)
}

func (s *TaskStore) drop(ctx context.Context, keys []string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache invalidation failed",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}

func (s *TaskStore) get(ctx context.Context, key string, dest any) bool {
	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache read failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}
	return found
}

func (s *TaskStore) set(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
	}
}

// WithinTx implements store.TaskStore. Reads inside the transaction bypass
// the cache so uncommitted rows are never cached.
func (s *TaskStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.TaskStore) error) error {
	if s.inTx() {
		return fn(ctx, s)
	}

	var pending []string
	err := s.inner.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		return fn(ctx, &TaskStore{inner: tx, cache: s.cache, logger: s.logger, pending: &pending})
	})
	if err != nil {
		return err
	}
	if len(pending) > 0 {
		s.drop(ctx, pending)
	}
	return nil
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := s.inner.Create(ctx, task); err != nil {
		return err
	}
	s.invalidate(ctx, ownerListKey(task.OwnerID))
	return nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := s.inner.Update(ctx, task); err != nil {
		return err
	}
	s.invalidate(ctx, taskKey(task.ID), ownerListKey(task.OwnerID))
	return nil
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	keys := []string{taskKey(id)}
	if task, err := s.inner.GetByID(ctx, id); err == nil {
		keys = append(keys, ownerListKey(task.OwnerID))
	}
	if err := s.inner.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, keys...)
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	if s.inTx() {
		return s.inner.GetByID(ctx, id)
	}

	key := taskKey(id)
	var cached domain.Task
	if s.get(ctx, key, &cached) {
		return &cached, nil
	}

	task, err := s.inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, task)
	return task, nil
}

// ListByOwner implements store.TaskStore.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	if s.inTx() {
		return s.inner.ListByOwner(ctx, ownerID)
	}

	key := ownerListKey(ownerID)
	var cached []*domain.Task
	if s.get(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	tasks, err := s.inner.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.set(ctx, key, tasks)
	return tasks, nil
}

// ListByOwnerAndStatus implements store.TaskStore. It is not cached.
func (s *TaskStore) ListByOwnerAndStatus(
	ctx context.Context,
	ownerID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	return s.inner.ListByOwnerAndStatus(ctx, ownerID, status)
}

// ListByOwnerOrderByDueDate implements store.TaskStore. It is not cached.
func (s *TaskStore) ListByOwnerOrderByDueDate(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.inner.ListByOwnerOrderByDueDate(ctx, ownerID)
}
