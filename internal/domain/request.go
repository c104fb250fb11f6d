package domain

import (
	"strings"
	"time"
	"unicode/utf8"
)

// TaskRequest is the transient input for creating or updating a task.
// Nil pointer fields mean "absent".
type TaskRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	DueDate     *time.Time    `json:"due_date,omitempty"`
}

// TaskRules holds the length limits applied to task input.
type TaskRules struct {
	TitleMaxLength       int
	DescriptionMaxLength int
}

// DefaultTaskRules returns the standard limits: 100 runes for titles and
// 500 runes for descriptions.
func DefaultTaskRules() TaskRules {
	return TaskRules{
		TitleMaxLength:       TitleMaxLength,
		DescriptionMaxLength: DescriptionMaxLength,
	}
}

// DescriptionValue returns the description or "" when absent.
func (r TaskRequest) DescriptionValue() string {
	if r.Description == nil {
		return ""
	}
	return *r.Description
}

// Check applies the input rules in a fixed order so the first failure is
// deterministic: title presence, title length, description length, due date,
// then status and priority membership. It never modifies the request.
func (r TaskRequest) Check(now time.Time, rules TaskRules) error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return NewValidationError("title", MsgTitleRequired, nil)
	}
	if utf8.RuneCountInString(title) > rules.TitleMaxLength {
		return NewValidationError("title", MsgTitleTooLong, nil)
	}
	if r.Description != nil && utf8.RuneCountInString(*r.Description) > rules.DescriptionMaxLength {
		return NewValidationError("description", MsgDescriptionTooLong, nil)
	}
	if r.DueDate != nil && r.DueDate.Before(now) {
		return NewValidationError("due_date", MsgDueDateInPast, nil)
	}
	if r.Status != nil && !r.Status.IsValid() {
		return NewValidationError("status", MsgInvalidStatus, nil)
	}
	if r.Priority != nil && !r.Priority.IsValid() {
		return NewValidationError("priority", MsgInvalidPriority, nil)
	}
	return nil
}

// WithDefaults returns a copy with absent status and priority filled in.
func (r TaskRequest) WithDefaults() TaskRequest {
	out := r.clone()
	if out.Status == nil {
		s := DefaultTaskStatus
		out.Status = &s
	}
	if out.Priority == nil {
		p := DefaultTaskPriority
		out.Priority = &p
	}
	return out
}

// Sanitized returns a copy with title and description passed through
// Sanitize. A title that sanitizes to nothing is rejected.
func (r TaskRequest) Sanitized() (TaskRequest, error) {
	out := r.clone()
	out.Title = Sanitize(out.Title)
	if out.Description != nil {
		d := Sanitize(*out.Description)
		out.Description = &d
	}
	if strings.TrimSpace(out.Title) == "" {
		return TaskRequest{}, NewValidationError("title", MsgTitleRequired, nil)
	}
	return out, nil
}

func (r TaskRequest) clone() TaskRequest {
	out := r
	if r.Description != nil {
		d := *r.Description
		out.Description = &d
	}
	if r.Status != nil {
		s := *r.Status
		out.Status = &s
	}
	if r.Priority != nil {
		p := *r.Priority
		out.Priority = &p
	}
	out.DueDate = copyTime(r.DueDate)
	return out
}
