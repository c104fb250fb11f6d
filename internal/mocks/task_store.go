package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/phrazzld/taskmanager-api/internal/store"
)

// MockTaskStore implements store.TaskStore for testing.
// Without function overrides it behaves like an in-memory store: tasks are
// copied on the way in and out, and WithinTx restores the previous contents
// when fn fails.
type MockTaskStore struct {
	CreateFn    func(ctx context.Context, task *domain.Task) error
	UpdateFn    func(ctx context.Context, task *domain.Task) error
	GetByIDFn   func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	DeleteFn    func(ctx context.Context, id uuid.UUID) error
	ListFn      func(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error)
	WithinTxErr error

	mu        sync.Mutex
	tasks     map[uuid.UUID]*domain.Task
	TxCount   int
	CallCount map[string]int
}

var _ store.TaskStore = (*MockTaskStore)(nil)

// NewMockTaskStore creates an empty MockTaskStore.
func NewMockTaskStore() *MockTaskStore {
	return &MockTaskStore{
		tasks:     make(map[uuid.UUID]*domain.Task),
		CallCount: make(map[string]int),
	}
}

// Put stores a copy of task directly, bypassing any override.
func (m *MockTaskStore) Put(task *domain.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task.Clone()
}

// Stored returns a copy of the stored task, or nil.
func (m *MockTaskStore) Stored(id uuid.UUID) *domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[id]; ok {
		return t.Clone()
	}
	return nil
}

// Len returns the number of stored tasks.
func (m *MockTaskStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

func (m *MockTaskStore) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount[name]++
}

// Create implements store.TaskStore.
func (m *MockTaskStore) Create(ctx context.Context, task *domain.Task) error {
	m.record("Create")
	if m.CreateFn != nil {
		return m.CreateFn(ctx, task)
	}
	m.Put(task)
	return nil
}

// Update implements store.TaskStore.
func (m *MockTaskStore) Update(ctx context.Context, task *domain.Task) error {
	m.record("Update")
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, task)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[task.ID]; !ok {
		return store.ErrTaskNotFound
	}
	m.tasks[task.ID] = task.Clone()
	return nil
}

// GetByID implements store.TaskStore.
func (m *MockTaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	m.record("GetByID")
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	if t := m.Stored(id); t != nil {
		return t, nil
	}
	return nil, store.ErrTaskNotFound
}

// Delete implements store.TaskStore.
func (m *MockTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	m.record("Delete")
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return store.ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *MockTaskStore) filter(ownerID uuid.UUID, keep func(*domain.Task) bool) []*domain.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range m.tasks {
		if t.OwnerID == ownerID && keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

func newestFirst(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
}

// ListByOwner implements store.TaskStore.
func (m *MockTaskStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Task, error) {
	m.record("ListByOwner")
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID)
	}
	tasks := m.filter(ownerID, func(*domain.Task) bool { return true })
	newestFirst(tasks)
	return tasks, nil
}

// ListByOwnerAndStatus implements store.TaskStore.
func (m *MockTaskStore) ListByOwnerAndStatus(
	ctx context.Context,
	ownerID uuid.UUID,
	status domain.TaskStatus,
) ([]*domain.Task, error) {
	m.record("ListByOwnerAndStatus")
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID)
	}
	tasks := m.filter(ownerID, func(t *domain.Task) bool { return t.Status == status })
	newestFirst(tasks)
	return tasks, nil
}

// ListByOwnerOrderByDueDate implements store.TaskStore.
func (m *MockTaskStore) ListByOwnerOrderByDueDate(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Task, error) {
	m.record("ListByOwnerOrderByDueDate")
	if m.ListFn != nil {
		return m.ListFn(ctx, ownerID)
	}
	tasks := m.filter(ownerID, func(*domain.Task) bool { return true })
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
	return tasks, nil
}

// WithinTx implements store.TaskStore. fn runs against the mock itself.
func (m *MockTaskStore) WithinTx(
	ctx context.Context,
	fn func(ctx context.Context, tx store.TaskStore) error,
) error {
	m.mu.Lock()
	m.TxCount++
	if m.WithinTxErr != nil {
		m.mu.Unlock()
		return m.WithinTxErr
	}
	snapshot := make(map[uuid.UUID]*domain.Task, len(m.tasks))
	for id, t := range m.tasks {
		snapshot[id] = t.Clone()
	}
	m.mu.Unlock()

	if err := fn(ctx, m); err != nil {
		m.mu.Lock()
		m.tasks = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}
