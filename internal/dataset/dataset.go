// Package dataset reads and writes position history files, the JSON
// documents cmd/fetch produces and cmd/analyze consumes.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"

	"aerodrome-lp-lab/internal/domain"
)

// Load reads a position dataset from a JSON file. Monetary fields are
// accepted both quoted and bare, timestamps with any RFC 3339 offset; the
// wallet and block fields are optional. Actions are not validated here,
// the analyzer owns the non-empty invariant.
func Load(path string) (*domain.PositionData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}

	var data domain.PositionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &data, nil
}

// Save writes a position dataset as indented JSON.
func Save(path string, data *domain.PositionData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}

	if err := os.WriteFile(path, append(raw, '\n'), 0644); err != nil {
		return fmt.Errorf("write dataset: %w", err)
	}
	return nil
}
