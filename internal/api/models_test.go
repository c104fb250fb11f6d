package api

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/phrazzld/taskmanager-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestTaskRequestToDomain(t *testing.T) {
	due := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)

	got := TaskRequest{
		Title:       "Write report",
		Description: strPtr("quarterly"),
		Status:      strPtr("in_progress"),
		Priority:    strPtr(" high "),
		DueDate:     &due,
	}.ToDomain()

	status := domain.TaskStatusInProgress
	priority := domain.TaskPriorityHigh
	want := domain.TaskRequest{
		Title:       "Write report",
		Description: strPtr("quarterly"),
		Status:      &status,
		Priority:    &priority,
		DueDate:     &due,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ToDomain() mismatch (-want +got):\n%s", diff)
	}
}

func TestTaskRequestToDomainKeepsAbsentFields(t *testing.T) {
	got := TaskRequest{Title: "x"}.ToDomain()

	assert.Nil(t, got.Description)
	assert.Nil(t, got.Status)
	assert.Nil(t, got.Priority)
	assert.Nil(t, got.DueDate)
}

func TestTaskRequestToDomainPassesUnknownEnums(t *testing.T) {
	got := TaskRequest{Title: "x", Status: strPtr("archived")}.ToDomain()

	if assert.NotNil(t, got.Status) {
		assert.False(t, got.Status.IsValid())
	}
}

func TestTasksToResponse(t *testing.T) {
	assert.NotNil(t, tasksToResponse(nil), "empty lists encode as []")

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	task, err := domain.NewTask(uuid.New(), domain.TaskRequest{Title: "Write report"}, now)
	assert.NoError(t, err)

	resp := tasksToResponse([]*domain.Task{task})
	if assert.Len(t, resp, 1) {
		assert.Equal(t, task.ID, resp[0].ID)
		assert.Equal(t, "PENDING", resp[0].Status)
		assert.Equal(t, "MEDIUM", resp[0].Priority)
		assert.Nil(t, resp[0].DueDate)
	}
}
