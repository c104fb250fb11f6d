package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents where a task is in its lifecycle.
type TaskStatus string

// Possible task status values. Status only moves forward through this list.
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// TaskPriority represents how urgent a task is.
type TaskPriority string

// Possible task priority values.
const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// Field limits and defaults for tasks.
const (
	TitleMaxLength       = 100
	DescriptionMaxLength = 500

	DefaultTaskStatus   = TaskStatusPending
	DefaultTaskPriority = TaskPriorityMedium
)

// Rule messages reported through ValidationError.
const (
	MsgTitleRequired       = "title required"
	MsgTitleTooLong        = "title too long"
	MsgDescriptionTooLong  = "description too long"
	MsgDueDateInPast       = "due date in past"
	MsgInvalidStatus       = "invalid status"
	MsgInvalidPriority     = "invalid priority"
	MsgTaskOwnerRequired   = "owner required"
	MsgTaskIDRequired      = "id required"
	MsgTaskCreatedRequired = "created at required"
)

// Task-specific errors.
var (
	// ErrTaskOwnerEmpty is returned when a task has no owner.
	ErrTaskOwnerEmpty = errors.New("task owner cannot be empty")
)

// AllTaskStatuses lists every status in lifecycle order.
func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}
}

// AllTaskPriorities lists every priority from lowest to highest.
func AllTaskPriorities() []TaskPriority {
	return []TaskPriority{TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh}
}

// ParseTaskStatus normalizes client input to a TaskStatus. The result is
// not checked; call IsValid.
func ParseTaskStatus(s string) TaskStatus {
	return TaskStatus(strings.ToUpper(strings.TrimSpace(s)))
}

// ParseTaskPriority normalizes client input to a TaskPriority. The result
// is not checked; call IsValid.
func ParseTaskPriority(p string) TaskPriority {
	return TaskPriority(strings.ToUpper(strings.TrimSpace(p)))
}

// IsValid reports whether s is a known status.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// IsValid reports whether p is a known priority.
func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a task may move from one status to another.
// Self-transitions are always allowed, forward moves go one step at a time,
// and COMPLETED is terminal. Unknown statuses are never allowed.
func CanTransition(from, to TaskStatus) bool {
	if !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}

	switch from {
	case TaskStatusPending:
		return to == TaskStatusInProgress
	case TaskStatusInProgress:
		return to == TaskStatusCompleted
	case TaskStatusCompleted:
		return false
	default:
		return false
	}
}

// Task is a unit of trackable work owned by a single user.
//
// Fields are exported for serialization only. Mutations go through
// ApplyUpdate and TransitionTo so the owner and creation time never change
// and status only moves forward.
type Task struct {
	ID          uuid.UUID    `json:"id"`
	OwnerID     uuid.UUID    `json:"owner_id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Status      TaskStatus   `json:"status"`
	Priority    TaskPriority `json:"priority"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewTask builds a task from a request that already passed Check and
// Sanitized. It only checks the structural invariants of the result.
func NewTask(ownerID uuid.UUID, req TaskRequest, now time.Time) (*Task, error) {
	now = now.UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.DescriptionValue(),
		Status:      DefaultTaskStatus,
		Priority:    DefaultTaskPriority,
		DueDate:     copyTime(req.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks the structural invariants of a stored task.
// Title length is a request rule (see TaskRules) and is not rechecked here.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", MsgTaskIDRequired, ErrInvalidID)
	}
	if t.OwnerID == uuid.Nil {
		return NewValidationError("owner_id", MsgTaskOwnerRequired, ErrTaskOwnerEmpty)
	}
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", MsgTitleRequired, nil)
	}
	if utf8.RuneCountInString(t.Description) > DescriptionMaxLength {
		return NewValidationError("description", MsgDescriptionTooLong, nil)
	}
	if !t.Status.IsValid() {
		return NewValidationError("status", MsgInvalidStatus, nil)
	}
	if !t.Priority.IsValid() {
		return NewValidationError("priority", MsgInvalidPriority, nil)
	}
	if t.CreatedAt.IsZero() {
		return NewValidationError("created_at", MsgTaskCreatedRequired, nil)
	}
	return nil
}

// IsOwnedBy reports whether the task belongs to the given user.
func (t *Task) IsOwnedBy(ownerID uuid.UUID) bool {
	return t.OwnerID == ownerID
}

// TransitionTo moves the task to the given status if the state machine allows it.
// A self-transition leaves the task untouched.
func (t *Task) TransitionTo(status TaskStatus, now time.Time) error {
	if !CanTransition(t.Status, status) {
		return &InvalidTransitionError{From: t.Status, To: status}
	}
	if t.Status == status {
		return nil
	}
	t.Status = status
	t.UpdatedAt = now.UTC()
	return nil
}

// ApplyUpdate overwrites the task with a sanitized update request.
// Title and description are always replaced; status, priority and due date
// only when present. A status change must satisfy the state machine, and the
// task is left untouched when it does not.
func (t *Task) ApplyUpdate(req TaskRequest, now time.Time) error {
	if req.Status != nil && !CanTransition(t.Status, *req.Status) {
		return &InvalidTransitionError{From: t.Status, To: *req.Status}
	}

	t.Title = req.Title
	t.Description = req.DescriptionValue()
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		t.DueDate = copyTime(req.DueDate)
	}
	t.UpdatedAt = now.UTC()
	return nil
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	c.DueDate = copyTime(t.DueDate)
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
