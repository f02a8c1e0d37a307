package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Sink persists audit entries.
type Sink interface {
	Insert(ctx context.Context, entry Entry) error
}

// PGSink writes entries into the audit_logs table.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink constructs a PGSink.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Insert persists one entry.
func (s *PGSink) Insert(ctx context.Context, entry Entry) error {
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return err
	}
	var changesJSON []byte
	if entry.Changes != nil {
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			return err
		}
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_logs (action, entity_type, entity_id, actor_id, actor_email, actor_ip, actor_user_agent, status, error_message, metadata, changes, created_at)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11, COALESCE(NULLIF($12, TIMESTAMPTZ 'epoch'), NOW()))`,
		entry.Action, entry.EntityType, entry.EntityID, entry.Actor.UserID, entry.Actor.Email,
		entry.Actor.IP, entry.Actor.UserAgent, entry.Status, entry.ErrorMessage,
		metaJSON, changesJSON, entry.CreatedAt)
	return err
}

// Recorder writes the audit trail best-effort. A failed write is logged and
// swallowed; it never reaches the caller of the audited operation.
type Recorder struct {
	sink   Sink
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(sink Sink, logger *slog.Logger) *Recorder {
	return &Recorder{sink: sink, logger: logger}
}

// Record persists the entry synchronously, swallowing any failure.
func (r *Recorder) Record(ctx context.Context, entry Entry) {
	if r == nil || r.sink == nil {
		return
	}
	if entry.Status == "" {
		entry.Status = StatusSuccess
	}
	if err := r.sink.Insert(ctx, entry); err != nil {
		if r.logger != nil {
			r.logger.Error("audit record dropped",
				slog.String("action", entry.Action),
				slog.String("entity", entry.EntityType),
				slog.Any("error", err))
		}
	}
}

// RecordAsync dispatches the write fire-and-forget on a detached context with
// its own deadline. At most one attempt is made; in-flight writes may be lost
// on shutdown, which is the accepted loss policy.
func (r *Recorder) RecordAsync(entry Entry) {
	if r == nil || r.sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.Record(ctx, entry)
	}()
}
