// Package memory provides in-memory store implementations used in tests and
// for single-run fetches that do not need a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"aerodrome-lp-lab/internal/domain"
	"aerodrome-lp-lab/internal/storage"
)

// ActionStore is an in-memory implementation of storage.ActionStore.
type ActionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Action // keyed by composite key
}

// NewActionStore creates a new in-memory action store.
func NewActionStore() *ActionStore {
	return &ActionStore{
		data: make(map[string]*domain.Action),
	}
}

// actionKey generates a unique key for an action.
func actionKey(wallet, txHash string, event domain.ActionType) string {
	return fmt.Sprintf("%s|%s|%s", wallet, txHash, event)
}

// Insert adds a new action. Returns ErrDuplicateKey if exists.
func (s *ActionStore) Insert(_ context.Context, a *domain.Action) error {
	if a == nil || a.Wallet == "" || a.TxHash == "" {
		return storage.ErrInvalidInput
	}

	key := actionKey(a.Wallet, a.TxHash, a.Event)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *a
	s.data[key] = &copy
	return nil
}

// InsertBulk adds multiple actions atomically. Fails entire batch on any duplicate.
func (s *ActionStore) InsertBulk(_ context.Context, actions []*domain.Action) error {
	if len(actions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(actions))

	// First pass: check for duplicates (existing + intra-batch)
	for _, a := range actions {
		if a == nil || a.Wallet == "" || a.TxHash == "" {
			return storage.ErrInvalidInput
		}
		key := actionKey(a.Wallet, a.TxHash, a.Event)

		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	// Second pass: insert all
	for _, a := range actions {
		key := actionKey(a.Wallet, a.TxHash, a.Event)
		copy := *a
		s.data[key] = &copy
	}

	return nil
}

// GetByWallet retrieves all actions for a wallet, ordered by timestamp ASC.
func (s *ActionStore) GetByWallet(_ context.Context, wallet string) ([]*domain.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Action
	for _, a := range s.data {
		if a.Wallet == wallet {
			copy := *a
			result = append(result, &copy)
		}
	}

	sortActions(result)
	return result, nil
}

// GetByTimeRange retrieves actions for a wallet within [start, end] unix
// milliseconds (inclusive).
func (s *ActionStore) GetByTimeRange(_ context.Context, wallet string, start, end int64) ([]*domain.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Action
	for _, a := range s.data {
		ts := a.Timestamp.UnixMilli()
		if a.Wallet == wallet && ts >= start && ts <= end {
			copy := *a
			result = append(result, &copy)
		}
	}

	sortActions(result)
	return result, nil
}

// sortActions orders by timestamp ASC with tx hash and event as tiebreakers,
// matching the archive table ordering.
func sortActions(actions []*domain.Action) {
	sort.Slice(actions, func(i, j int) bool {
		if !actions[i].Timestamp.Equal(actions[j].Timestamp) {
			return actions[i].Timestamp.Before(actions[j].Timestamp)
		}
		if actions[i].TxHash != actions[j].TxHash {
			return actions[i].TxHash < actions[j].TxHash
		}
		return actions[i].Event < actions[j].Event
	})
}

var _ storage.ActionStore = (*ActionStore)(nil)
