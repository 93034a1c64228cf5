// Package repository provides PostgreSQL persistence for accounts,
// contacts, activities, and enrichment snapshots.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/accounts/domain"
)

// ErrNotFound is returned when an account does not exist.
var ErrNotFound = errors.New("account not found")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// UpdateParams carries a partial account update. Nil fields are untouched.
type UpdateParams struct {
	Name          *string
	Domain        *string
	Website       *string
	LinkedInURL   *string
	Industry      *string
	Address       *string
	Phone         *string
	Employees     *int
	AnnualRevenue *int64
	FoundedYear   *int
	Description   *string
	Technologies  []string
	Tags          []string
	AccountType   *string
	AccountStatus *string
	HealthScore   *int
}

const accountColumns = `id, name, domain, website, linkedin_url, industry, address, phone,
	employees, annual_revenue, founded_year, description, technologies, tags,
	account_type, account_status, health_score, owner_id, created_at, updated_at`

func scanAccount(row pgx.Row) (domain.Account, error) {
	var a domain.Account
	err := row.Scan(
		&a.ID, &a.Name, &a.Domain, &a.Website, &a.LinkedInURL, &a.Industry, &a.Address, &a.Phone,
		&a.Employees, &a.AnnualRevenue, &a.FoundedYear, &a.Description, &a.Technologies, &a.Tags,
		&a.AccountType, &a.AccountStatus, &a.HealthScore, &a.OwnerID, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// Create inserts an account.
func (r *Repository) Create(ctx context.Context, a domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
		a.ID, a.Name, a.Domain, a.Website, a.LinkedInURL, a.Industry, a.Address, a.Phone,
		a.Employees, a.AnnualRevenue, a.FoundedYear, a.Description, a.Technologies, a.Tags,
		a.AccountType, a.AccountStatus, a.HealthScore, a.OwnerID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

// GetByID loads one account.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("select account: %w", err)
	}
	return a, nil
}

// GetByDomain looks an account up by its normalized company domain.
func (r *Repository) GetByDomain(ctx context.Context, companyDomain string) (domain.Account, bool, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE lower(domain) = lower($1)`, companyDomain))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, false, nil
	}
	if err != nil {
		return domain.Account{}, false, fmt.Errorf("select account by domain: %w", err)
	}
	return a, true, nil
}

// List returns accounts ordered by creation time, newest first.
func (r *Repository) List(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+` FROM accounts ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("select accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update applies a partial update and returns the fresh row.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (domain.Account, error) {
	a, err := scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts SET
			name = COALESCE($2, name),
			domain = COALESCE($3, domain),
			website = COALESCE($4, website),
			linkedin_url = COALESCE($5, linkedin_url),
			industry = COALESCE($6, industry),
			address = COALESCE($7, address),
			phone = COALESCE($8, phone),
			employees = COALESCE($9, employees),
			annual_revenue = COALESCE($10, annual_revenue),
			founded_year = COALESCE($11, founded_year),
			description = COALESCE($12, description),
			technologies = COALESCE($13, technologies),
			tags = COALESCE($14, tags),
			account_type = COALESCE($15, account_type),
			account_status = COALESCE($16, account_status),
			health_score = COALESCE($17, health_score),
			updated_at = $18
		WHERE id = $1
		RETURNING `+accountColumns,
		id, p.Name, p.Domain, p.Website, p.LinkedInURL, p.Industry, p.Address, p.Phone,
		p.Employees, p.AnnualRevenue, p.FoundedYear, p.Description, p.Technologies, p.Tags,
		p.AccountType, p.AccountStatus, p.HealthScore, time.Now().UTC(),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}

// Delete removes an account. Contacts and activities cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountContacts returns how many contacts an account has.
func (r *Repository) CountContacts(ctx context.Context, accountID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM contacts WHERE account_id = $1`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count contacts: %w", err)
	}
	return n, nil
}

// SaveEnrichment upserts the enrichment snapshot for an account.
func (r *Repository) SaveEnrichment(ctx context.Context, e domain.Enrichment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO account_enrichment
			(account_id, industry, employees, annual_revenue, founded_year, description,
			 technologies, lead_score, confidence, enriched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (account_id) DO UPDATE SET
			industry = EXCLUDED.industry,
			employees = EXCLUDED.employees,
			annual_revenue = EXCLUDED.annual_revenue,
			founded_year = EXCLUDED.founded_year,
			description = EXCLUDED.description,
			technologies = EXCLUDED.technologies,
			lead_score = EXCLUDED.lead_score,
			confidence = EXCLUDED.confidence,
			enriched_at = EXCLUDED.enriched_at`,
		e.AccountID, e.Industry, e.Employees, e.AnnualRevenue, e.FoundedYear, e.Description,
		e.Technologies, e.LeadScore, e.Confidence, e.EnrichedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert enrichment: %w", err)
	}
	return nil
}

// GetEnrichment loads the enrichment snapshot for an account, if any.
func (r *Repository) GetEnrichment(ctx context.Context, accountID uuid.UUID) (domain.Enrichment, bool, error) {
	var e domain.Enrichment
	err := r.pool.QueryRow(ctx, `
		SELECT account_id, industry, employees, annual_revenue, founded_year, description,
		       technologies, lead_score, confidence, enriched_at
		FROM account_enrichment WHERE account_id = $1`, accountID).Scan(
		&e.AccountID, &e.Industry, &e.Employees, &e.AnnualRevenue, &e.FoundedYear, &e.Description,
		&e.Technologies, &e.LeadScore, &e.Confidence, &e.EnrichedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Enrichment{}, false, nil
	}
	if err != nil {
		return domain.Enrichment{}, false, fmt.Errorf("select enrichment: %w", err)
	}
	return e, true, nil
}
