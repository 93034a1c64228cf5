package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm_backend/internal/accounts/domain"
)

const activityColumns = `id, account_id, deal_id, type, subject, description, status, source, created_at, updated_at`

// CreateActivity logs a new activity.
func (r *Repository) CreateActivity(ctx context.Context, a domain.Activity) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activities (`+activityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.AccountID, a.DealID, a.Type, a.Subject, a.Description, a.Status, a.Source, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// ListActivitiesByAccount returns an account's activities, newest first.
func (r *Repository) ListActivitiesByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+activityColumns+` FROM activities WHERE account_id = $1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("select activities: %w", err)
	}
	defer rows.Close()

	var out []domain.Activity
	for rows.Next() {
		var a domain.Activity
		err := rows.Scan(&a.ID, &a.AccountID, &a.DealID, &a.Type, &a.Subject, &a.Description,
			&a.Status, &a.Source, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RetagActivitySource changes the source tag of one activity.
func (r *Repository) RetagActivitySource(ctx context.Context, activityID uuid.UUID, source string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activities SET source = $2, updated_at = $3 WHERE id = $1`,
		activityID, source, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("retag activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("activity %s not found", activityID)
	}
	return nil
}

// BulkRetagSource retags every activity of an account that does not already
// carry the target source. Returns the number of rows changed.
func (r *Repository) BulkRetagSource(ctx context.Context, accountID uuid.UUID, source string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE activities SET source = $2, updated_at = $3
		WHERE account_id = $1 AND source <> $2`,
		accountID, source, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("bulk retag activities: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// ActivitySourceStats counts an account's activities grouped by source.
func (r *Repository) ActivitySourceStats(ctx context.Context, accountID uuid.UUID) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT source, count(*) FROM activities WHERE account_id = $1 GROUP BY source`, accountID)
	if err != nil {
		return nil, fmt.Errorf("activity source stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var source string
		var count int
		if err := rows.Scan(&source, &count); err != nil {
			return nil, fmt.Errorf("scan activity stats: %w", err)
		}
		stats[source] = count
	}
	return stats, rows.Err()
}
