package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dealflow_backend/internal/tasks/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("task not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Task struct {
	ID           uuid.UUID
	LeadID       uuid.UUID
	Type         domain.Type
	Status       domain.Status
	Priority     domain.Priority
	DueDate      time.Time
	Dependencies []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateTaskParams struct {
	LeadID       uuid.UUID
	Type         domain.Type
	Priority     domain.Priority
	DueDate      time.Time
	Dependencies []string
}

func (r *Repository) Create(ctx context.Context, params CreateTaskParams) (Task, error) {
	deps := params.Dependencies
	if deps == nil {
		deps = []string{}
	}

	var task Task
	err := r.pool.QueryRow(ctx, `
		INSERT INTO tasks (lead_id, type, status, priority, due_date, dependencies)
		VALUES ($1, $2, 'open', $3, $4, $5)
		RETURNING id, lead_id, type, status, priority, due_date, dependencies, created_at, updated_at
	`,
		params.LeadID, string(params.Type), string(params.Priority), params.DueDate, deps,
	).Scan(
		&task.ID, &task.LeadID, &task.Type, &task.Status, &task.Priority,
		&task.DueDate, &task.Dependencies, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return Task{}, err
	}

	return task, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	var task Task
	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, type, status, priority, due_date, dependencies, created_at, updated_at
		FROM tasks WHERE id = $1
	`, id).Scan(
		&task.ID, &task.LeadID, &task.Type, &task.Status, &task.Priority,
		&task.DueDate, &task.Dependencies, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

// ListByLead returns every task attached to a lead, oldest first. The
// evaluator works on this snapshot; its cost must stay proportional to the
// task count of a single lead.
func (r *Repository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, type, status, priority, due_date, dependencies, created_at, updated_at
		FROM tasks
		WHERE lead_id = $1
		ORDER BY created_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Task, 0)
	for rows.Next() {
		var task Task
		if err := rows.Scan(
			&task.ID, &task.LeadID, &task.Type, &task.Status, &task.Priority,
			&task.DueDate, &task.Dependencies, &task.CreatedAt, &task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, task)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

// UpdateTaskParams carries a partial update: nil fields are left untouched.
type UpdateTaskParams struct {
	Status   *domain.Status
	Priority *domain.Priority
	DueDate  *time.Time
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateTaskParams) (Task, error) {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 4)
	args = append(args, id)

	if params.Status != nil {
		args = append(args, string(*params.Status))
		sets = append(sets, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Priority != nil {
		args = append(args, string(*params.Priority))
		sets = append(sets, fmt.Sprintf("priority = $%d", len(args)))
	}
	if params.DueDate != nil {
		args = append(args, *params.DueDate)
		sets = append(sets, fmt.Sprintf("due_date = $%d", len(args)))
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}
	sets = append(sets, "updated_at = now()")

	var task Task
	err := r.pool.QueryRow(ctx, `
		UPDATE tasks SET `+strings.Join(sets, ", ")+`
		WHERE id = $1
		RETURNING id, lead_id, type, status, priority, due_date, dependencies, created_at, updated_at
	`, args...).Scan(
		&task.ID, &task.LeadID, &task.Type, &task.Status, &task.Priority,
		&task.DueDate, &task.Dependencies, &task.CreatedAt, &task.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}
