package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"taskboard-be/internal/apperr"
	"taskboard-be/internal/entities"
	"taskboard-be/internal/models"
)

// ErrTaskNotFound covers both a missing task and a task owned by someone else
var ErrTaskNotFound = apperr.NotFound("Task not found")

// TaskRepository defines the interface for task database operations.
// Every lookup by task id is scoped to an owner in the same statement.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) (*entities.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*entities.Task, error)
	UpdateOwned(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*entities.Task, error)
	DeleteOwned(ctx context.Context, id, ownerID string) error
}

type taskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `id, user_id, title, description, status, priority, deadline, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*entities.Task, error) {
	var task entities.Task
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if task.Deadline != nil {
		utc := task.Deadline.UTC()
		task.Deadline = &utc
	}
	return &task, nil
}

// Create inserts a new task. The owner comes from task.UserID; id and timestamps are assigned by the database.
func (r *taskRepository) Create(ctx context.Context, task *entities.Task) (*entities.Task, error) {
	query := `
		INSERT INTO tasks (user_id, title, description, status, priority, deadline)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + taskColumns

	created, err := scanTask(r.db.QueryRowContext(ctx, query,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		task.Priority,
		utcOrNil(task),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

func utcOrNil(task *entities.Task) any {
	if task.Deadline == nil {
		return nil
	}
	return task.Deadline.UTC()
}

// ListByOwner retrieves every task owned by ownerID in insertion order
func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*entities.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	return tasks, nil
}

// UpdateOwned applies the non-nil patch fields to the task matching both id and owner.
func (r *taskRepository) UpdateOwned(ctx context.Context, id, ownerID string, patch models.TaskPatch) (*entities.Task, error) {
	if patch.Empty() {
		query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
		task, err := scanTask(r.db.QueryRowContext(ctx, query, id, ownerID))
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to find task: %w", err)
		}
		return task, nil
	}

	sets, args := patchAssignments(patch)
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id, ownerID)

	query := fmt.Sprintf(`
		UPDATE tasks
		SET %s
		WHERE id = $%d AND user_id = $%d
		RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), taskColumns)

	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// patchAssignments renders the allow-listed columns in a fixed order.
func patchAssignments(patch models.TaskPatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.Deadline != nil {
		add("deadline", patch.Deadline.UTC())
	}
	return sets, args
}

// DeleteOwned removes the task matching both id and owner
func (r *taskRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrTaskNotFound
	}

	return nil
}
