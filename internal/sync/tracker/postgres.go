package tracker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists operations in the sync_operations table, keeping
// the operation log across restarts and visible to every process.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Insert(ctx context.Context, op Operation) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_operations (id, type, status, account_id, details, error, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		op.ID, op.Type, op.Status, op.AccountID, op.Details, op.Error, op.StartedAt, op.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("insert sync operation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, op Operation) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE sync_operations SET status = $2, details = $3, error = $4, ended_at = $5 WHERE id = $1`,
		op.ID, op.Status, op.Details, op.Error, op.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("update sync operation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOperationNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id uuid.UUID) (Operation, error) {
	var op Operation
	err := s.pool.QueryRow(ctx, `
		SELECT id, type, status, account_id, details, error, started_at, ended_at
		FROM sync_operations WHERE id = $1`, id).Scan(
		&op.ID, &op.Type, &op.Status, &op.AccountID, &op.Details, &op.Error, &op.StartedAt, &op.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Operation{}, ErrOperationNotFound
	}
	if err != nil {
		return Operation{}, fmt.Errorf("select sync operation: %w", err)
	}
	return op, nil
}

func (s *PostgresStore) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]Operation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, status, account_id, details, error, started_at, ended_at
		FROM sync_operations WHERE account_id = $1
		ORDER BY started_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("select sync operations: %w", err)
	}
	defer rows.Close()

	var out []Operation
	for rows.Next() {
		var op Operation
		err := rows.Scan(&op.ID, &op.Type, &op.Status, &op.AccountID, &op.Details, &op.Error, &op.StartedAt, &op.EndedAt)
		if err != nil {
			return nil, fmt.Errorf("scan sync operation: %w", err)
		}
		out = append(out, op)
	}
	return out, rows.Err()
}
