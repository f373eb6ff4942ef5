package models

import "time"

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

var allowedTaskStatuses = map[string]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
}

// IsValidStatus reports whether s is one of the three task states.
func IsValidStatus(s string) bool {
	return allowedTaskStatuses[s]
}

type Assigner struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AssignerSummary is the list view of an assigner.
type AssignerSummary struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AssignerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,max=255"`
}

// TaskRef is the id/status pair loaded when deciding whether an assigner may be deleted.
type TaskRef struct {
	ID     int64
	Status string
}

// AssignerContact is the slice of the owning assigner embedded in task responses.
type AssignerContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Task struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	DueDate     Date            `json:"due_date"`
	AssignerID  int64           `json:"assigner_id"`
	Assigner    AssignerContact `json:"assigner"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Status      string `json:"status" validate:"required"`
	DueDate     string `json:"due_date" validate:"required"`
	AssignerID  FlexID `json:"assigner_id" validate:"required"`
}

type UpdateTaskRequest struct {
	Title       string `json:"title" validate:"omitempty,max=255"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// TaskFilter narrows a task listing. Nil fields are not applied.
type TaskFilter struct {
	AssignerID *int64
	Status     *string
	DueBefore  *Date
}

// Matches reports whether t passes every set field of f.
func (f TaskFilter) Matches(t Task) bool {
	if f.AssignerID != nil && t.AssignerID != *f.AssignerID {
		return false
	}
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.DueBefore != nil && t.DueDate.After(f.DueBefore.Time) {
		return false
	}
	return true
}
