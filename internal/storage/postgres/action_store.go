package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/storage"
)

// ActionStore implements storage.ActionStore using PostgreSQL.
type ActionStore struct {
	pool *Pool
}

// NewActionStore creates a new ActionStore.
func NewActionStore(pool *Pool) *ActionStore {
	return &ActionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ActionStore = (*ActionStore)(nil)

// Insert adds a new action. Returns ErrDuplicateKey if (wallet, tx_hash, event) exists.
func (s *ActionStore) Insert(ctx context.Context, a *domain.Action) error {
	query := `
		INSERT INTO lp_actions (
			wallet, tx_hash, event, token_id, timestamp, cbbtc, usdc, cash_flow
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		a.Wallet,
		a.TxHash,
		string(a.Event),
		a.TokenID,
		a.Timestamp,
		a.CbBTC,
		a.USDC,
		a.CashFlow,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// InsertBulk adds multiple actions atomically. Fails entire batch on any duplicate.
func (s *ActionStore) InsertBulk(ctx context.Context, actions []*domain.Action) error {
	if len(actions) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO lp_actions (
			wallet, tx_hash, event, token_id, timestamp, cbbtc, usdc, cash_flow
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, a := range actions {
		_, err := tx.Exec(ctx, query,
			a.Wallet,
			a.TxHash,
			string(a.Event),
			a.TokenID,
			a.Timestamp,
			a.CbBTC,
			a.USDC,
			a.CashFlow,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert action in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByWallet retrieves all actions for a wallet, ordered by timestamp ASC.
func (s *ActionStore) GetByWallet(ctx context.Context, wallet string) ([]*domain.Action, error) {
	query := `
		SELECT wallet, tx_hash, event, token_id, timestamp, cbbtc, usdc, cash_flow
		FROM lp_actions
		WHERE wallet = $1
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet)
	if err != nil {
		return nil, fmt.Errorf("get actions by wallet: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// GetByTimeRange retrieves actions for a wallet with block times within
// [start, end] unix milliseconds (inclusive).
func (s *ActionStore) GetByTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.Action, error) {
	query := `
		SELECT wallet, tx_hash, event, token_id, timestamp, cbbtc, usdc, cash_flow
		FROM lp_actions
		WHERE wallet = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, wallet, time.UnixMilli(start).UTC(), time.UnixMilli(end).UTC())
	if err != nil {
		return nil, fmt.Errorf("get actions by time range: %w", err)
	}
	defer rows.Close()

	return scanActions(rows)
}

// scanActions scans multiple rows into a slice of Action.
func scanActions(rows pgx.Rows) ([]*domain.Action, error) {
	var actions []*domain.Action

	for rows.Next() {
		var (
			a     domain.Action
			event string
		)

		err := rows.Scan(
			&a.Wallet,
			&a.TxHash,
			&event,
			&a.TokenID,
			&a.Timestamp,
			&a.CbBTC,
			&a.USDC,
			&a.CashFlow,
		)
		if err != nil {
			return nil, fmt.Errorf("scan action row: %w", err)
		}

		a.Event = domain.ActionType(event)
		a.Timestamp = a.Timestamp.UTC()
		actions = append(actions, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate action rows: %w", err)
	}

	return actions, nil
}
