package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/events"
	"github.com/phrazzld/taskmanager-api/internal/platform/logger"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// TaskService is the task lifecycle manager. Every task mutation goes
// through it.
type TaskService interface {
	// Validate checks a creation request, fills in default status and
	// priority and sanitizes free text. The input is never modified.
	Validate(ctx context.Context, req domain.TaskRequest) (domain.TaskRequest, error)

	// Create validates req and persists a new task owned by ownerID.
	Create(ctx context.Context, req domain.TaskRequest, ownerID uuid.UUID) (*domain.Task, error)

	// Update overwrites title and description and, when present, status,
	// priority and due date. Omitted optional fields keep their values.
	// Returns ErrTaskNotFound or ErrNotOwned.
	Update(
		ctx context.Context,
		id uuid.UUID,
		req domain.TaskRequest,
		ownerID uuid.UUID,
	) (*domain.Task, error)

	// Delete removes a task. Returns ErrTaskNotFound or ErrNotOwned.
	Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error

	// ChangeStatus moves a task to newStatus if the state machine allows it.
	// Ownership is not checked here; callers must authorize first.
	ChangeStatus(ctx context.Context, id uuid.UUID, newStatus domain.TaskStatus) (*domain.Task, error)

	// GetTask returns a single task. Returns ErrTaskNotFound or ErrNotOwned.
	GetTask(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) (*domain.Task, error)

	// ListTasks returns the owner's tasks, newest first.
	ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// ListTasksByStatus returns the owner's tasks in the given status.
	ListTasksByStatus(
		ctx context.Context,
		ownerID uuid.UUID,
		status domain.TaskStatus,
	) ([]*domain.Task, error)

	// ListTasksByDueDate returns the owner's tasks by ascending due date,
	// tasks without a due date last.
	ListTasksByDueDate(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
}

// TaskServiceOption configures optional TaskService collaborators.
type TaskServiceOption func(*taskServiceImpl)

// WithEventEmitter publishes lifecycle events after each successful mutation.
func WithEventEmitter(emitter events.EventEmitter) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.emitter = emitter
	}
}

// WithClock overrides the time source used for timestamps and due date checks.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.now = now
	}
}

// WithTaskRules overrides the default input length limits.
func WithTaskRules(rules domain.TaskRules) TaskServiceOption {
	return func(s *taskServiceImpl) {
		s.rules = rules
	}
}

type taskServiceImpl struct {
	tasks   store.TaskStore
	emitter events.EventEmitter
	rules   domain.TaskRules
	now     func() time.Time
	logger  *slog.Logger
}

// NewTaskService creates a TaskService backed by taskStore.
// It returns an error if taskStore is nil.
func NewTaskService(
	taskStore store.TaskStore,
	logger *slog.Logger,
	opts ...TaskServiceOption,
) (TaskService, error) {
	if taskStore == nil {
		return nil, domain.NewValidationError("taskStore", "cannot be nil", domain.ErrValidation)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &taskServiceImpl{
		tasks:  taskStore,
		rules:  domain.DefaultTaskRules(),
		now:    time.Now,
		logger: logger.With(slog.String("component", "task_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *taskServiceImpl) Validate(
	ctx context.Context,
	req domain.TaskRequest,
) (domain.TaskRequest, error) {
	if err := req.Check(s.now(), s.rules); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).
			Debug("task request rejected", slog.String("reason", err.Error()))
		return domain.TaskRequest{}, err
	}
	return req.WithDefaults().Sanitized()
}

// validateUpdate applies the same rules as Validate without defaulting.
func (s *taskServiceImpl) validateUpdate(req domain.TaskRequest) (domain.TaskRequest, error) {
	if err := req.Check(s.now(), s.rules); err != nil {
		return domain.TaskRequest{}, err
	}
	return req.Sanitized()
}

func (s *taskServiceImpl) Create(
	ctx context.Context,
	req domain.TaskRequest,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	normalized, err := s.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	task, err := domain.NewTask(ownerID, normalized, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		log.Error("failed to save task",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, NewTaskServiceError("create", "failed to save task", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("owner_id", ownerID.String()))
	s.emit(ctx, events.TaskCreated, task, task)
	return task, nil
}

func (s *taskServiceImpl) Update(
	ctx context.Context,
	id uuid.UUID,
	req domain.TaskRequest,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		updated    *domain.Task
		prevStatus domain.TaskStatus
	)
	// Existence and ownership are checked before the payload.
	err := s.tasks.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		task, err := s.loadOwned(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}

		normalized, err := s.validateUpdate(req)
		if err != nil {
			return err
		}

		prevStatus = task.Status
		if err := task.ApplyUpdate(normalized, s.now()); err != nil {
			return err
		}
		if err := tx.Update(ctx, task); err != nil {
			return s.storeError("update", "failed to save task", err)
		}
		updated = task
		return nil
	})
	if err != nil {
		s.logFailure(log, "update", id, err)
		return nil, s.storeError("update", "transaction failed", err)
	}

	log.Info("task updated", slog.String("task_id", id.String()))
	s.emit(ctx, events.TaskUpdated, updated, updated)
	if updated.Status != prevStatus {
		s.emit(ctx, events.TaskStatusChanged, updated, events.StatusChange{
			From: string(prevStatus),
			To:   string(updated.Status),
		})
	}
	return updated, nil
}

func (s *taskServiceImpl) Delete(ctx context.Context, id uuid.UUID, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var deleted *domain.Task
	err := s.tasks.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		task, err := s.loadOwned(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Delete(ctx, id); err != nil {
			return s.storeError("delete", "failed to delete task", err)
		}
		deleted = task
		return nil
	})
	if err != nil {
		s.logFailure(log, "delete", id, err)
		return s.storeError("delete", "transaction failed", err)
	}

	log.Info("task deleted", slog.String("task_id", id.String()))
	s.emit(ctx, events.TaskDeleted, deleted, nil)
	return nil
}

func (s *taskServiceImpl) ChangeStatus(
	ctx context.Context,
	id uuid.UUID,
	newStatus domain.TaskStatus,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !newStatus.IsValid() {
		return nil, domain.NewValidationError("status", domain.MsgInvalidStatus, nil)
	}

	var (
		result     *domain.Task
		prevStatus domain.TaskStatus
	)
	err := s.tasks.WithinTx(ctx, func(ctx context.Context, tx store.TaskStore) error {
		task, err := tx.GetByID(ctx, id)
		if err != nil {
			return s.storeError("change_status", "failed to load task", err)
		}

		prevStatus = task.Status
		if err := task.TransitionTo(newStatus, s.now()); err != nil {
			return err
		}
		result = task
		if prevStatus == newStatus {
			return nil
		}
		if err := tx.Update(ctx, task); err != nil {
			return s.storeError("change_status", "failed to save task", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(log, "change_status", id, err)
		return nil, s.storeError("change_status", "transaction failed", err)
	}

	if prevStatus != newStatus {
		log.Info("task status changed",
			slog.String("task_id", id.String()),
			slog.String("from", string(prevStatus)),
			slog.String("to", string(newStatus)))
		s.emit(ctx, events.TaskStatusChanged, result, events.StatusChange{
			From: string(prevStatus),
			To:   string(newStatus),
		})
	}
	return result, nil
}

func (s *taskServiceImpl) GetTask(
	ctx context.Context,
	id uuid.UUID,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.loadOwned(ctx, s.tasks, id, ownerID)
	if err != nil {
		s.logFailure(logger.FromContextOrDefault(ctx, s.logger), "get", id, err)
		return nil, err
	}
	return task, nil
}

func (s *taskServiceImpl) ListTasks(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.listError(ctx, "list", ownerID, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) ListTasksByStatus(
	ctx context.Context,
	ownerID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", domain.MsgInvalidStatus, nil)
	}

	tasks, err := s.tasks.ListByOwnerAndStatus(ctx, ownerID, status)
	if err != nil {
		return nil, s.listError(ctx, "list_by_status", ownerID, err)
	}
	return tasks, nil
}

func (s *taskServiceImpl) ListTasksByDueDate(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Task, error) {
	tasks, err := s.tasks.ListByOwnerOrderByDueDate(ctx, ownerID)
	if err != nil {
		return nil, s.listError(ctx, "list_by_due_date", ownerID, err)
	}
	return tasks, nil
}

// loadOwned fetches a task through ts and checks that ownerID owns it.
func (s *taskServiceImpl) loadOwned(
	ctx context.Context,
	ts store.TaskStore,
	id uuid.UUID,
	ownerID uuid.UUID,
) (*domain.Task, error) {
	task, err := ts.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeError("get", "failed to load task", err)
	}
	if !task.IsOwnedBy(ownerID) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("task access denied",
			slog.String("task_id", id.String()),
			slog.String("owner_id", task.OwnerID.String()),
			slog.String("requested_by", ownerID.String()))
		return nil, ErrNotOwned
	}
	return task, nil
}

// storeError passes known lifecycle errors through, turns a store not-found
// into ErrTaskNotFound and wraps everything else in a TaskServiceError.
func (s *taskServiceImpl) storeError(op, msg string, err error) error {
	var svcErr *TaskServiceError
	switch {
	case errors.Is(err, ErrTaskNotFound),
		errors.Is(err, ErrNotOwned),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.As(err, &svcErr):
		return err
	case store.IsNotFoundError(err):
		return ErrTaskNotFound
	default:
		return NewTaskServiceError(op, msg, err)
	}
}

func (s *taskServiceImpl) listError(ctx context.Context, op string, ownerID uuid.UUID, err error) error {
	logger.FromContextOrDefault(ctx, s.logger).Error("failed to list tasks",
		slog.String("operation", op),
		slog.String("owner_id", ownerID.String()),
		slog.String("error", err.Error()))
	return NewTaskServiceError(op, "failed to list tasks", err)
}

// logFailure logs expected rejections at debug level and everything else as errors.
func (s *taskServiceImpl) logFailure(log *slog.Logger, op string, id uuid.UUID, err error) {
	attrs := []any{
		slog.String("operation", op),
		slog.String("task_id", id.String()),
		slog.String("error", err.Error()),
	}
	var svcErr *TaskServiceError
	if errors.As(err, &svcErr) || !(errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrNotOwned) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrInvalidTransition) ||
		store.IsNotFoundError(err)) {
		log.Error("task operation failed", attrs...)
		return
	}
	log.Debug("task operation rejected", attrs...)
}

// emit publishes a lifecycle event. Failures are logged and never returned.
func (s *taskServiceImpl) emit(ctx context.Context, eventType string, task *domain.Task, payload any) {
	if s.emitter == nil {
		return
	}
	log := logger.FromContextOrDefault(ctx, s.logger)

	event, err := events.NewTaskEvent(eventType, task.ID, task.OwnerID, payload)
	if err != nil {
		log.Error("failed to build task event",
			slog.String("event_type", eventType),
			slog.String("error", err.Error()))
		return
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("task event handler failed",
			slog.String("event_type", eventType),
			slog.String("task_id", task.ID.String()),
			slog.String("error", err.Error()))
	}
}
