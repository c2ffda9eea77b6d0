package storage

import (
	"context"

	"aerodrome-lp-lab/internal/domain"
)

// ActionStore provides access to lp_actions storage.
type ActionStore interface {
	// Insert adds one action. Returns ErrDuplicateKey if
	// (wallet, tx_hash, event) exists.
	Insert(ctx context.Context, a *domain.Action) error

	// InsertBulk adds multiple actions atomically. Fails the entire batch on
	// any duplicate.
	InsertBulk(ctx context.Context, actions []*domain.Action) error

	// GetByWallet retrieves all actions for a wallet, ordered by timestamp ASC.
	GetByWallet(ctx context.Context, wallet string) ([]*domain.Action, error)

	// GetByTimeRange retrieves actions for a wallet with block times within
	// [start, end] unix milliseconds (inclusive), ordered by timestamp ASC.
	GetByTimeRange(ctx context.Context, wallet string, start, end int64) ([]*domain.Action, error)
}

// SwapSampleStore provides access to swap_samples storage.
type SwapSampleStore interface {
	// Insert adds one sample. Returns ErrDuplicateKey if
	// (pool, block_number, tx_hash) exists.
	Insert(ctx context.Context, s *domain.SwapSample) error

	// InsertBulk adds multiple samples atomically. Fails the entire batch on
	// any duplicate.
	InsertBulk(ctx context.Context, samples []*domain.SwapSample) error

	// GetByPool retrieves all samples for a pool, ordered by block number ASC.
	GetByPool(ctx context.Context, pool string) ([]*domain.SwapSample, error)

	// GetByBlockRange retrieves samples for a pool within [from, to] blocks
	// (inclusive), ordered by block number ASC.
	GetByBlockRange(ctx context.Context, pool string, from, to int64) ([]*domain.SwapSample, error)
}
