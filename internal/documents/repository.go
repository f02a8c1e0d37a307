package documents

import (
	"context"
	"errors"

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

const documentColumns = `id, company_id, uploader_id, filename, object_key, content_type, size_bytes,
	status, reviewer_id, COALESCE(review_reason, ''), reviewed_at, created_at, updated_at`

// Insert stores a new pending document record.
func (r *Repository) Insert(ctx context.Context, doc Document) (Document, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO documents (company_id, uploader_id, filename, object_key, content_type, size_bytes, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+documentColumns,
		doc.CompanyID, doc.UploaderID, doc.Filename, doc.ObjectKey, doc.ContentType, doc.SizeBytes, StatusPending)
	return scanDocument(row)
}

// Get fetches one document.
func (r *Repository) Get(ctx context.Context, id int64) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, httpx.ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// List returns documents, optionally scoped to one company.
func (r *Repository) List(ctx context.Context, companyID int64) ([]Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents`
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

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// SetReview records the triage decision on a pending document.
func (r *Repository) SetReview(ctx context.Context, id int64, status string, reviewerID int64, reason string) (Document, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE documents SET status = $2, reviewer_id = $3, review_reason = NULLIF($4, ''), reviewed_at = NOW(), updated_at = NOW()
		 WHERE id = $1 RETURNING `+documentColumns,
		id, status, reviewerID, reason)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, httpx.ErrNotFound
		}
		return Document{}, err
	}
	return doc, nil
}

// Delete removes a document record, used when an upload is abandoned.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.CompanyID, &doc.UploaderID, &doc.Filename, &doc.ObjectKey,
		&doc.ContentType, &doc.SizeBytes, &doc.Status, &doc.ReviewerID, &doc.ReviewReason,
		&doc.ReviewedAt, &doc.CreatedAt, &doc.UpdatedAt)
	return doc, err
}
