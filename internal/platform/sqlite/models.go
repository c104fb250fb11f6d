package sqlite

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
)

type userModel struct {
	ID             string    `gorm:"primaryKey;size:36"`
	Email          string    `gorm:"size:255;not null;uniqueIndex"`
	HashedPassword string    `gorm:"size:255;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (userModel) TableName() string {
	return "users"
}

func userFromDomain(u *domain.User) *userModel {
	return &userModel{
		ID:             u.ID.String(),
		Email:          u.Email,
		HashedPassword: u.HashedPassword,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m *userModel) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:             id,
		Email:          m.Email,
		HashedPassword: m.HashedPassword,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}, nil
}

type taskModel struct {
	ID          string     `gorm:"primaryKey;size:36"`
	OwnerID     string     `gorm:"size:36;not null;index:idx_tasks_owner_created,priority:1"`
	Title       string     `gorm:"not null"`
	Description string     `gorm:"not null;default:''"`
	Status      string     `gorm:"size:20;not null;index"`
	Priority    string     `gorm:"size:10;not null"`
	DueDate     *time.Time `gorm:"index"`
	CreatedAt   time.Time  `gorm:"not null;index:idx_tasks_owner_created,priority:2"`
	UpdatedAt   time.Time  `gorm:"not null"`
}

func (taskModel) TableName() string {
	return "tasks"
}

func taskFromDomain(t *domain.Task) *taskModel {
	m := &taskModel{
		ID:          t.ID.String(),
		OwnerID:     t.OwnerID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		due := *t.DueDate
		m.DueDate = &due
	}
	return m
}

func (m *taskModel) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, err
	}
	owner, err := uuid.Parse(m.OwnerID)
	if err != nil {
		return nil, err
	}
	task := &domain.Task{
		ID:          id,
		OwnerID:     owner,
		Title:       m.Title,
		Description: m.Description,
		Status:      domain.TaskStatus(m.Status),
		Priority:    domain.TaskPriority(m.Priority),
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
	if m.DueDate != nil {
		due := m.DueDate.UTC()
		task.DueDate = &due
	}
	return task, nil
}
