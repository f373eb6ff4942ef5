package errors

import (
	"errors"
	"fmt"
)

var (
	ErrAssignerNotFound  = errors.New("Assigner not found")
	ErrTaskNotFound      = errors.New("Task not found")
	ErrEmailInUse        = errors.New("Email already in use")
	ErrIncompleteTasks   = errors.New("assigner has incomplete tasks")
	ErrInvalidAssignerID = errors.New("Invalid assigner ID")
	ErrInvalidTaskID     = errors.New("Invalid task ID")
	ErrInvalidStatus     = errors.New("Invalid status. Must be one of: pending, in_progress, completed")
	ErrInvalidDueDate    = errors.New("Invalid due date")
	ErrStatusRequired    = errors.New("Status is required")
	ErrBadRequest        = errors.New("Invalid request body")
	ErrValidationFailed  = errors.New("Validation failed")

	ErrAssignerFieldsRequired = errors.New("Name and email are required fields")
	ErrTaskFieldsRequired     = errors.New("Title, status, due date, and assigner ID are required fields")
	ErrInvalidTitle           = errors.New("Title is too long")
	ErrInvalidDescription     = errors.New("Description is too long")
	ErrInvalidName            = errors.New("Name is too long")
	ErrInvalidEmail           = errors.New("Email is too long")

	ErrNoAssigners  = errors.New("No assigners found")
	ErrNoTasks      = errors.New("No tasks found")
	ErrNoStatistics = errors.New("No statistics available")

	ErrInternalServer       = errors.New("Internal server error")
	ErrDatabaseConnection   = errors.New("database connection failed")
	ErrInvalidGzipRequest   = errors.New("Invalid gzip request body")
	ErrConfigFileReadFailed = errors.New("failed to read config file")
	ErrConfigParseFailed    = errors.New("failed to parse config file")
	ErrConfigInvalidFormat  = errors.New("invalid config value")
)

// IncompleteTasksError blocks an assigner delete while Count tasks are not completed.
type IncompleteTasksError struct {
	Count int
}

func (e *IncompleteTasksError) Error() string {
	return fmt.Sprintf("Cannot delete assigner. They still have %d incomplete task(s).", e.Count)
}

func (e *IncompleteTasksError) Is(target error) bool {
	return target == ErrIncompleteTasks
}

// Is and As re-export the standard helpers so callers importing this package
// under its own name keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
