package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
	"gorm.io/gorm"
)

// TaskStore implements store.TaskStore with GORM.
type TaskStore struct {
	db     *gorm.DB
	inTx   bool
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a task store on db.
func NewTaskStore(db *gorm.DB, logger *slog.Logger) *TaskStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// WithinTx implements store.TaskStore.
func (s *TaskStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.TaskStore) error) error {
	if s.inTx {
		return fn(ctx, s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &TaskStore{db: tx, inTx: true, logger: s.logger})
	})
}

// Create implements store.TaskStore.
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(taskFromDomain(task)).Error; err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapError(err)
	}
	return nil
}

// Update implements store.TaskStore.
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	m := taskFromDomain(task)
	result := s.db.WithContext(ctx).
		Model(&taskModel{}).
		Where("id = ?", m.ID).
		Updates(map[string]any{
			"title":       m.Title,
			"description": m.Description,
			"status":      m.Status,
			"priority":    m.Priority,
			"due_date":    m.DueDate,
			"updated_at":  m.UpdatedAt,
		})
	if err := result.Error; err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return mapError(err)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var m taskModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id.String()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return m.toDomain()
}

// Delete implements store.TaskStore.
func (s *TaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&taskModel{})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if result.RowsAffected == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// ListByOwner implements store.TaskStore.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.find(s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("created_at DESC").Order("id"))
}

// ListByOwnerAndStatus implements store.TaskStore.
func (s *TaskStore) ListByOwnerAndStatus(
	ctx context.Context,
	ownerID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	return s.find(s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", ownerID.String(), string(status)).
		Order("created_at DESC").Order("id"))
}

// ListByOwnerOrderByDueDate implements store.TaskStore.
func (s *TaskStore) ListByOwnerOrderByDueDate(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	return s.find(s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID.String()).
		Order("due_date IS NULL").Order("due_date ASC").Order("created_at DESC"))
}

func (s *TaskStore) find(query *gorm.DB) ([]*domain.Task, error) {
	var models []taskModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(models))
	for i := range models {
		task, err := models[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("corrupt task row %s: %w", models[i].ID, err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// mapError translates GORM errors into store sentinels.
func mapError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %w", store.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", store.ErrDuplicate, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	default:
		return err
	}
}
