package companies

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

const companyColumns = `id, name, bmd_number, finmatics_id, is_active, created_at, updated_at`

// ListCompanies returns all client companies ordered by name.
func (r *Repository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+companyColumns+` FROM companies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.BMDNumber, &c.FinmaticsID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// GetCompany fetches one company.
func (r *Repository) GetCompany(ctx context.Context, id int64) (Company, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
}

// FindByBMDNumber locates a company by its BMD client number. The import
// pipeline uses this to attach imported rows.
func (r *Repository) FindByBMDNumber(ctx context.Context, number string) (Company, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE bmd_number = $1`, number))
}

// FindByFinmaticsID locates a company by its Finmatics identifier.
func (r *Repository) FindByFinmaticsID(ctx context.Context, id string) (Company, error) {
	return r.scanOne(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE finmatics_id = $1`, id))
}

// CreateCompany inserts a new client company.
func (r *Repository) CreateCompany(ctx context.Context, name, bmdNumber, finmaticsID string) (Company, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO companies (name, bmd_number, finmatics_id, is_active) VALUES ($1, $2, $3, TRUE)
		 RETURNING `+companyColumns, name, bmdNumber, finmaticsID)
	c, err := r.scanOne(row)
	if err != nil {
		return Company{}, httpx.MapConstraintError(err)
	}
	return c, nil
}

// UpdateCompany applies changes to a company.
func (r *Repository) UpdateCompany(ctx context.Context, id int64, name, bmdNumber, finmaticsID string, active bool) (Company, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE companies SET name = $2, bmd_number = $3, finmatics_id = $4, is_active = $5, updated_at = NOW()
		 WHERE id = $1 RETURNING `+companyColumns,
		id, name, bmdNumber, finmaticsID, active)
	return r.scanOne(row)
}

func (r *Repository) scanOne(row pgx.Row) (Company, error) {
	var c Company
	if err := row.Scan(&c.ID, &c.Name, &c.BMDNumber, &c.FinmaticsID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Company{}, httpx.ErrNotFound
		}
		return Company{}, err
	}
	return c, nil
}
