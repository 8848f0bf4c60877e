package entities

import "time"

// TaskStatus is the workflow column a task sits in
type TaskStatus string

const (
	StatusToDo        TaskStatus = "To-Do"
	StatusInProgress  TaskStatus = "In Progress"
	StatusUnderReview TaskStatus = "Under Review"
	StatusFinished    TaskStatus = "Finished"
)

// DefaultTaskStatus is applied when a task is created without a status
const DefaultTaskStatus = StatusToDo

// TaskStatuses lists every accepted status in board order
var TaskStatuses = []TaskStatus{StatusToDo, StatusInProgress, StatusUnderReview, StatusFinished}

// Valid reports whether s is one of the four board statuses
func (s TaskStatus) Valid() bool {
	for _, status := range TaskStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Task represents a user-owned task entity in the database
type Task struct {
	ID          string     `json:"id"`   // UUID
	UserID      string     `json:"user"` // owner, never changes after insert
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	Priority    *string    `json:"priority,omitempty"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	CreatedAt   time.Time  `json:"date"`
	UpdatedAt   time.Time  `json:"-"`
}
