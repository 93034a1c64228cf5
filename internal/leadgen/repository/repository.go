// Package repository provides PostgreSQL persistence for lead generation
// companies.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/leadgen/domain"
)

// ErrNotFound is returned when a company does not exist.
var ErrNotFound = errors.New("company not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const companyColumns = `id, name, domain, website, linkedin_url, industry, location,
	employee_count, revenue, founded, description, technologies, keywords,
	funding, logo, saved, last_synced_at`

func scanCompany(row pgx.Row) (domain.Company, error) {
	var c domain.Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Domain, &c.Website, &c.LinkedInURL, &c.Industry, &c.Location,
		&c.EmployeeCount, &c.Revenue, &c.Founded, &c.Description, &c.Technologies, &c.Keywords,
		&c.Funding, &c.Logo, &c.Saved, &c.LastSyncedAt,
	)
	return c, err
}

// Upsert writes a company keyed by id. Re-syncing the same account updates
// the existing row, so repeated syncs stay idempotent.
func (r *Repository) Upsert(ctx context.Context, c domain.Company) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leadgen_companies (`+companyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			domain = EXCLUDED.domain,
			website = EXCLUDED.website,
			linkedin_url = EXCLUDED.linkedin_url,
			industry = EXCLUDED.industry,
			location = EXCLUDED.location,
			employee_count = EXCLUDED.employee_count,
			revenue = EXCLUDED.revenue,
			founded = EXCLUDED.founded,
			description = EXCLUDED.description,
			technologies = EXCLUDED.technologies,
			keywords = EXCLUDED.keywords,
			funding = EXCLUDED.funding,
			logo = EXCLUDED.logo,
			last_synced_at = EXCLUDED.last_synced_at`,
		c.ID, c.Name, c.Domain, c.Website, c.LinkedInURL, c.Industry, c.Location,
		c.EmployeeCount, c.Revenue, c.Founded, c.Description, c.Technologies, c.Keywords,
		c.Funding, c.Logo, c.Saved, c.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

// GetByID loads one company.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Company, bool, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `SELECT `+companyColumns+` FROM leadgen_companies WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, false, nil
	}
	if err != nil {
		return domain.Company{}, false, fmt.Errorf("select company: %w", err)
	}
	return c, true, nil
}

// FindByDomain looks a company up by its normalized domain.
func (r *Repository) FindByDomain(ctx context.Context, companyDomain string) (domain.Company, bool, error) {
	c, err := scanCompany(r.pool.QueryRow(ctx, `
		SELECT `+companyColumns+` FROM leadgen_companies WHERE lower(domain) = lower($1)`, companyDomain))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Company{}, false, nil
	}
	if err != nil {
		return domain.Company{}, false, fmt.Errorf("select company by domain: %w", err)
	}
	return c, true, nil
}

// List returns companies ordered by last sync, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+companyColumns+` FROM leadgen_companies ORDER BY last_synced_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select companies: %w", err)
	}
	defer rows.Close()

	var out []domain.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetSaved flags a company as saved by a prospector.
func (r *Repository) SetSaved(ctx context.Context, id uuid.UUID, saved bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE leadgen_companies SET saved = $2 WHERE id = $1`, id, saved)
	if err != nil {
		return fmt.Errorf("update company saved flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
