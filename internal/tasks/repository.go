package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/litex-portal/litex/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, company_id, title, description, status, assignee_id, due_date, created_by, created_at, updated_at`

// ListTasks returns tasks, optionally scoped to one company. companyID zero
// means unscoped (employee view).
func (r *Repository) ListTasks(ctx context.Context, companyID int64) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if companyID != 0 {
		query += ` WHERE company_id = $1`
		args = append(args, companyID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask fetches one task.
func (r *Repository) GetTask(ctx context.Context, id int64) (Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// CreateTask inserts a new task in the open state.
func (r *Repository) CreateTask(ctx context.Context, task Task) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (company_id, title, description, status, assignee_id, due_date, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+taskColumns,
		task.CompanyID, task.Title, task.Description, StatusOpen, task.AssigneeID, task.DueDate, task.CreatedBy)
	return scanTask(row)
}

// UpdateTask applies field changes.
func (r *Repository) UpdateTask(ctx context.Context, id int64, title, description string, assigneeID *int64, dueDate *time.Time) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET title = $2, description = $3, assignee_id = $4, due_date = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+taskColumns,
		id, title, description, assigneeID, dueDate)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// SetStatus changes a task's status.
func (r *Repository) SetStatus(ctx context.Context, id int64, status string) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING `+taskColumns,
		id, status)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, httpx.ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}

// UpsertImported inserts or refreshes a task keyed by its import reference,
// so re-running an import never duplicates work items.
func (r *Repository) UpsertImported(ctx context.Context, companyID int64, ref, title, description string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (company_id, title, description, status, import_ref)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (import_ref) DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description, updated_at = NOW()`,
		companyID, title, description, StatusOpen, ref)
	return err
}

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.CompanyID, &task.Title, &task.Description, &task.Status,
		&task.AssigneeID, &task.DueDate, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt)
	return task, err
}
