package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
// List methods return an empty, non-nil slice when nothing matches.
type TaskStore interface {
	// Create inserts a new task.
	// Returns ErrInvalidEntity if the task violates a store constraint.
	Create(ctx context.Context, task *domain.Task) error

	// Update overwrites all mutable fields of an existing task.
	// Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Delete removes a task by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner returns the owner's tasks, newest first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// ListByOwnerAndStatus returns the owner's tasks in the given status, newest first.
	ListByOwnerAndStatus(
		ctx context.Context,
		ownerID uuid.UUID,
		status domain.TaskStatus,
	) ([]*domain.Task, error)

	// ListByOwnerOrderByDueDate returns the owner's tasks by ascending due date.
	// Tasks without a due date come last.
	ListByOwnerOrderByDueDate(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)

	// WithinTx runs fn against a TaskStore bound to a single transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx TaskStore) error) error
}
