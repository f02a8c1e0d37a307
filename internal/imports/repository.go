package imports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Run records one import execution for operators.
type Run struct {
	ID           int64
	Source       string
	StartedAt    time.Time
	FinishedAt   *time.Time
	Processed    int
	Skipped      int
	ErrorMessage string
}

// RunStore persists import runs.
type RunStore interface {
	StartRun(ctx context.Context, source string) (int64, error)
	FinishRun(ctx context.Context, id int64, processed, skipped int, runErr error) error
}

// PGRunStore writes import runs to PostgreSQL.
type PGRunStore struct {
	pool *pgxpool.Pool
}

// NewPGRunStore constructs a run store.
func NewPGRunStore(pool *pgxpool.Pool) *PGRunStore {
	return &PGRunStore{pool: pool}
}

func (s *PGRunStore) StartRun(ctx context.Context, source string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO import_runs (source, started_at) VALUES ($1, NOW()) RETURNING id`,
		source,
	).Scan(&id)
	return id, err
}

func (s *PGRunStore) FinishRun(ctx context.Context, id int64, processed, skipped int, runErr error) error {
	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE import_runs
		 SET finished_at = NOW(), processed = $2, skipped = $3, error_message = NULLIF($4, '')
		 WHERE id = $1`,
		id, processed, skipped, message,
	)
	return err
}
