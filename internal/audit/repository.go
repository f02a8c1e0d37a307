package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads audit_logs via PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineSelect = `
SELECT id, action, entity_type, COALESCE(entity_id, ''), actor_id, actor_email, actor_ip,
       actor_user_agent, status, COALESCE(error_message, ''), metadata, changes, created_at
FROM audit_logs
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
  AND ($2::timestamptz IS NULL OR created_at <= $2)
  AND ($3::text IS NULL OR actor_email ILIKE '%' || $3 || '%')
  AND ($4::text IS NULL OR entity_type = $4)
  AND ($5::text IS NULL OR action = $5)
ORDER BY created_at DESC, id DESC`

// TimelineWindow fetches one page of the filtered trail plus probe rows.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, offset, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineSelect+` OFFSET $6 LIMIT $7`,
		nullableTime(filters.From), nullableTime(filters.To),
		nullableText(filters.Actor), nullableText(filters.Entity), nullableText(filters.Action),
		offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// TimelineAll fetches the entire filtered trail.
func (r *PGRepository) TimelineAll(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineSelect,
		nullableTime(filters.From), nullableTime(filters.To),
		nullableText(filters.Actor), nullableText(filters.Entity), nullableText(filters.Action))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			metaJSON    []byte
			changesJSON []byte
		)
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID,
			&entry.Actor.UserID, &entry.Actor.Email, &entry.Actor.IP, &entry.Actor.UserAgent,
			&entry.Status, &entry.ErrorMessage, &metaJSON, &changesJSON, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(metaJSON) > 0 {
			_ = json.Unmarshal(metaJSON, &entry.Metadata)
		}
		if len(changesJSON) > 0 {
			_ = json.Unmarshal(changesJSON, &entry.Changes)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func nullableText(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*PGRepository)(nil)
