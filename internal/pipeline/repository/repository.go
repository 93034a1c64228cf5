// Package repository provides PostgreSQL persistence for deals and their
// stage history.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm_backend/internal/pipeline/domain"
)

var (
	// ErrNotFound is returned when a deal does not exist.
	ErrNotFound = errors.New("deal not found")

	// ErrStaleWrite is returned when a transition is written against a deal
	// that changed since it was read.
	ErrStaleWrite = errors.New("deal was modified concurrently")
)

// Repository persists the deal aggregate. The deal row and its history rows
// are always written in one transaction.
type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const dealColumns = `id, name, stage_id, amount_cents, probability, owner_id, account_id, created_at, updated_at, last_activity_at`

// Create inserts a deal together with its initial open history entry.
func (r *Repository) Create(ctx context.Context, deal domain.Deal) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create deal: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO deals (`+dealColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		deal.ID, deal.Name, deal.StageID, deal.AmountCents, deal.Probability,
		deal.OwnerID, deal.AccountID, deal.CreatedAt, deal.UpdatedAt, deal.LastActivityAt,
	)
	if err != nil {
		return fmt.Errorf("insert deal: %w", err)
	}

	if err := insertOpenEntry(ctx, tx, deal.History.Open); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetByID loads a deal with its full stage history.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Deal, error) {
	var deal domain.Deal
	err := r.pool.QueryRow(ctx, `
		SELECT `+dealColumns+` FROM deals WHERE id = $1`, id).Scan(
		&deal.ID, &deal.Name, &deal.StageID, &deal.AmountCents, &deal.Probability,
		&deal.OwnerID, &deal.AccountID, &deal.CreatedAt, &deal.UpdatedAt, &deal.LastActivityAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, ErrNotFound
	}
	if err != nil {
		return domain.Deal{}, fmt.Errorf("select deal: %w", err)
	}

	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return domain.Deal{}, err
	}
	deal.History = history
	return deal, nil
}

func (r *Repository) loadHistory(ctx context.Context, dealID uuid.UUID) (domain.StageHistory, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, deal_id, from_stage_id, to_stage_id, entered_at, exited_at, duration_hours, changed_by, reason
		FROM deal_stage_history
		WHERE deal_id = $1
		ORDER BY entered_at, exited_at NULLS LAST`, dealID)
	if err != nil {
		return domain.StageHistory{}, fmt.Errorf("select stage history: %w", err)
	}
	defer rows.Close()

	var history domain.StageHistory
	var sawOpen bool
	for rows.Next() {
		var (
			entry         domain.ClosedStageEntry
			exitedAt      *time.Time
			durationHours *float64
			reason        *string
		)
		err := rows.Scan(&entry.ID, &entry.DealID, &entry.FromStageID, &entry.ToStageID,
			&entry.EnteredAt, &exitedAt, &durationHours, &entry.ChangedBy, &reason)
		if err != nil {
			return domain.StageHistory{}, fmt.Errorf("scan stage history: %w", err)
		}
		if reason != nil {
			entry.Reason = *reason
		}
		if exitedAt == nil {
			history.Open = domain.OpenStageEntry{
				ID:          entry.ID,
				DealID:      entry.DealID,
				FromStageID: entry.FromStageID,
				ToStageID:   entry.ToStageID,
				EnteredAt:   entry.EnteredAt,
				ChangedBy:   entry.ChangedBy,
				Reason:      entry.Reason,
			}
			sawOpen = true
			continue
		}
		entry.ExitedAt = *exitedAt
		if durationHours != nil {
			entry.DurationHours = *durationHours
		}
		history.Closed = append(history.Closed, entry)
	}
	if err := rows.Err(); err != nil {
		return domain.StageHistory{}, fmt.Errorf("iterate stage history: %w", err)
	}
	if !sawOpen {
		return domain.StageHistory{}, fmt.Errorf("deal %s has no open stage entry", dealID)
	}
	return history, nil
}

// SaveTransition commits a stage move. It closes the previous open entry,
// inserts the new one, and updates the deal row guarded by the updated_at
// value the aggregate was loaded with. A zero-row update means another
// writer got there first and the caller must retry with fresh state.
func (r *Repository) SaveTransition(ctx context.Context, deal domain.Deal, loadedUpdatedAt time.Time) error {
	if len(deal.History.Closed) == 0 {
		return fmt.Errorf("transition save requires a freshly closed entry")
	}
	closed := deal.History.Closed[len(deal.History.Closed)-1]

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save transition: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE deals
		SET stage_id = $1, probability = $2, updated_at = $3, last_activity_at = $4
		WHERE id = $5 AND updated_at = $6`,
		deal.StageID, deal.Probability, deal.UpdatedAt, deal.LastActivityAt,
		deal.ID, loadedUpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleWrite
	}

	_, err = tx.Exec(ctx, `
		UPDATE deal_stage_history
		SET exited_at = $1, duration_hours = $2
		WHERE id = $3 AND exited_at IS NULL`,
		closed.ExitedAt, closed.DurationHours, closed.ID,
	)
	if err != nil {
		return fmt.Errorf("close stage entry: %w", err)
	}

	if err := insertOpenEntry(ctx, tx, deal.History.Open); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// List returns all deals with their open history entry populated. Closed
// entries are not loaded; board and metrics views do not need them.
func (r *Repository) List(ctx context.Context) ([]domain.Deal, error) {
	return r.list(ctx, `
		SELECT `+dealJoinColumns+`
		FROM deals d
		JOIN deal_stage_history h ON h.deal_id = d.id AND h.exited_at IS NULL
		ORDER BY d.created_at DESC`)
}

// ListByAccount returns an account's deals with open entries populated.
func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Deal, error) {
	return r.list(ctx, `
		SELECT `+dealJoinColumns+`
		FROM deals d
		JOIN deal_stage_history h ON h.deal_id = d.id AND h.exited_at IS NULL
		WHERE d.account_id = $1
		ORDER BY d.created_at DESC`, accountID)
}

const dealJoinColumns = `d.id, d.name, d.stage_id, d.amount_cents, d.probability, d.owner_id, d.account_id,
		d.created_at, d.updated_at, d.last_activity_at,
		h.id, h.from_stage_id, h.entered_at, h.changed_by, h.reason`

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Deal, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		var deal domain.Deal
		var open domain.OpenStageEntry
		var reason *string
		err := rows.Scan(
			&deal.ID, &deal.Name, &deal.StageID, &deal.AmountCents, &deal.Probability,
			&deal.OwnerID, &deal.AccountID, &deal.CreatedAt, &deal.UpdatedAt, &deal.LastActivityAt,
			&open.ID, &open.FromStageID, &open.EnteredAt, &open.ChangedBy, &reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		open.DealID = deal.ID
		open.ToStageID = deal.StageID
		if reason != nil {
			open.Reason = *reason
		}
		deal.History = domain.StageHistory{Open: open}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return deals, nil
}

// Delete removes a deal and, via cascade, its history.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertOpenEntry(ctx context.Context, tx pgx.Tx, open domain.OpenStageEntry) error {
	var reason *string
	if open.Reason != "" {
		reason = &open.Reason
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO deal_stage_history (id, deal_id, from_stage_id, to_stage_id, entered_at, changed_by, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		open.ID, open.DealID, open.FromStageID, open.ToStageID, open.EnteredAt, open.ChangedBy, reason,
	)
	if err != nil {
		return fmt.Errorf("insert open stage entry: %w", err)
	}
	return nil
}
