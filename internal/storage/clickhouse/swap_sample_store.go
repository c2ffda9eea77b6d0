package clickhouse

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/storage"
)

// SwapSampleStore implements storage.SwapSampleStore using ClickHouse.
//
// MergeTree does not enforce uniqueness at insert time, so duplicates are
// detected with explicit key checks before every insert. The price column is
// a Float64 projection for querying; sqrt_price_x96 preserves the exact
// on-chain value.
type SwapSampleStore struct {
	conn *Conn
}

// NewSwapSampleStore creates a new SwapSampleStore.
func NewSwapSampleStore(conn *Conn) *SwapSampleStore {
	return &SwapSampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SwapSampleStore = (*SwapSampleStore)(nil)

// Insert adds one sample. Returns ErrDuplicateKey if (pool, block_number, tx_hash) exists.
func (s *SwapSampleStore) Insert(ctx context.Context, sample *domain.SwapSample) error {
	if sample == nil || sample.Pool == "" || sample.TxHash == "" {
		return storage.ErrInvalidInput
	}

	exists, err := s.exists(ctx, sample.Pool, sample.BlockNumber, sample.TxHash)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO swap_samples (
			pool, block_number, tx_hash, sqrt_price_x96, price, timestamp_ms
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	err = s.conn.Exec(ctx, query,
		sample.Pool, uint64(sample.BlockNumber), sample.TxHash,
		sample.SqrtPriceX96, sample.Price.InexactFloat64(), uint64(sample.TimestampMs),
	)
	if err != nil {
		return fmt.Errorf("insert sample: %w", err)
	}
	return nil
}

// InsertBulk adds multiple samples. Fails entire batch on duplicate (pool, block_number, tx_hash).
func (s *SwapSampleStore) InsertBulk(ctx context.Context, samples []*domain.SwapSample) error {
	if len(samples) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		pool        string
		blockNumber int64
		txHash      string
	}
	seen := make(map[key]struct{})
	for _, sample := range samples {
		if sample == nil || sample.Pool == "" || sample.TxHash == "" {
			return storage.ErrInvalidInput
		}
		k := key{sample.Pool, sample.BlockNumber, sample.TxHash}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, sample := range samples {
		exists, err := s.exists(ctx, sample.Pool, sample.BlockNumber, sample.TxHash)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO swap_samples (
			pool, block_number, tx_hash, sqrt_price_x96, price, timestamp_ms
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, sample := range samples {
		err = batch.Append(
			sample.Pool, uint64(sample.BlockNumber), sample.TxHash,
			sample.SqrtPriceX96, sample.Price.InexactFloat64(), uint64(sample.TimestampMs),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByPool retrieves all samples for a pool, ordered by block number ASC.
func (s *SwapSampleStore) GetByPool(ctx context.Context, pool string) ([]*domain.SwapSample, error) {
	query := `
		SELECT pool, block_number, tx_hash, sqrt_price_x96, price, timestamp_ms
		FROM swap_samples
		WHERE pool = ?
		ORDER BY block_number ASC, tx_hash ASC
	`

	rows, err := s.conn.Query(ctx, query, pool)
	if err != nil {
		return nil, fmt.Errorf("query by pool: %w", err)
	}
	defer rows.Close()

	return scanSwapSamples(rows)
}

// GetByBlockRange retrieves samples for a pool within [from, to] blocks (inclusive).
func (s *SwapSampleStore) GetByBlockRange(ctx context.Context, pool string, from, to int64) ([]*domain.SwapSample, error) {
	query := `
		SELECT pool, block_number, tx_hash, sqrt_price_x96, price, timestamp_ms
		FROM swap_samples
		WHERE pool = ? AND block_number >= ? AND block_number <= ?
		ORDER BY block_number ASC, tx_hash ASC
	`

	rows, err := s.conn.Query(ctx, query, pool, uint64(from), uint64(to))
	if err != nil {
		return nil, fmt.Errorf("query by block range: %w", err)
	}
	defer rows.Close()

	return scanSwapSamples(rows)
}

// exists checks if a sample with the given key exists.
func (s *SwapSampleStore) exists(ctx context.Context, pool string, blockNumber int64, txHash string) (bool, error) {
	query := `
		SELECT count(*) FROM swap_samples
		WHERE pool = ? AND block_number = ? AND tx_hash = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, pool, uint64(blockNumber), txHash).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanSwapSamples scans multiple rows.
func scanSwapSamples(rows chRows) ([]*domain.SwapSample, error) {
	var samples []*domain.SwapSample

	for rows.Next() {
		var (
			sample      domain.SwapSample
			blockNumber uint64
			price       float64
			timestampMs uint64
		)

		err := rows.Scan(
			&sample.Pool, &blockNumber, &sample.TxHash,
			&sample.SqrtPriceX96, &price, &timestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}

		sample.BlockNumber = int64(blockNumber)
		sample.Price = decimal.NewFromFloat(price)
		sample.TimestampMs = int64(timestampMs)
		samples = append(samples, &sample)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sample rows: %w", err)
	}

	return samples, nil
}
