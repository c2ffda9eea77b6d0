package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/storage"
)

// SwapSampleStore is an in-memory implementation of storage.SwapSampleStore.
type SwapSampleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SwapSample // keyed by composite key
}

// NewSwapSampleStore creates a new in-memory swap sample store.
func NewSwapSampleStore() *SwapSampleStore {
	return &SwapSampleStore{
		data: make(map[string]*domain.SwapSample),
	}
}

// sampleKey generates a unique key for a sample.
func sampleKey(pool string, blockNumber int64, txHash string) string {
	return fmt.Sprintf("%s|%d|%s", pool, blockNumber, txHash)
}

// Insert adds a new sample. Returns ErrDuplicateKey if exists.
func (s *SwapSampleStore) Insert(_ context.Context, sample *domain.SwapSample) error {
	if sample == nil || sample.Pool == "" || sample.TxHash == "" {
		return storage.ErrInvalidInput
	}

	key := sampleKey(sample.Pool, sample.BlockNumber, sample.TxHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *sample
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple samples atomically. Fails entire batch on any duplicate.
func (s *SwapSampleStore) InsertBulk(_ context.Context, samples []*domain.SwapSample) error {
	if len(samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(samples))

	// First pass: check for duplicates (existing + intra-batch)
	for _, sample := range samples {
		if sample == nil || sample.Pool == "" || sample.TxHash == "" {
			return storage.ErrInvalidInput
		}
		key := sampleKey(sample.Pool, sample.BlockNumber, sample.TxHash)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, sample := range samples {
		key := sampleKey(sample.Pool, sample.BlockNumber, sample.TxHash)
		copy := *sample
		s.data[key] = &copy
	}

	return nil
}

// GetByPool retrieves all samples for a pool, ordered by block number ASC.
func (s *SwapSampleStore) GetByPool(_ context.Context, pool string) ([]*domain.SwapSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapSample
	for _, sample := range s.data {
		if sample.Pool == pool {
			copy := *sample
			result = append(result, &copy)
		}
	}

	sortSamples(result)
	return result, nil
}

// GetByBlockRange retrieves samples for a pool within [from, to] blocks (inclusive).
func (s *SwapSampleStore) GetByBlockRange(_ context.Context, pool string, from, to int64) ([]*domain.SwapSample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SwapSample
	for _, sample := range s.data {
		if sample.Pool == pool && sample.BlockNumber >= from && sample.BlockNumber <= to {
			copy := *sample
			result = append(result, &copy)
		}
	}

	sortSamples(result)
	return result, nil
}

// sortSamples orders by block number ASC with tx hash as tiebreaker.
func sortSamples(samples []*domain.SwapSample) {
	sort.Slice(samples, func(i, j int) bool {
		if samples[i].BlockNumber != samples[j].BlockNumber {
			return samples[i].BlockNumber < samples[j].BlockNumber
		}
		return samples[i].TxHash < samples[j].TxHash
	})
}

var _ storage.SwapSampleStore = (*SwapSampleStore)(nil)
