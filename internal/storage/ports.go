package storage

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
)

// ErrStorageCorrupt marks persisted data that exists but cannot be decoded
// into a collection. Callers decide whether to recover from it.
var ErrStorageCorrupt = errors.New("persisted collection is corrupt")

// Ports for persistence adapters.
type (
	// CollectionLoader reads the whole persisted collection in stored order.
	// Missing data yields an empty collection and no error.
	CollectionLoader interface {
		Load(ctx context.Context) ([]core.Record, error)
	}

	// CollectionSaver replaces the persisted collection as a whole. A reader
	// never observes a partially written collection.
	CollectionSaver interface {
		Save(ctx context.Context, records []core.Record) error
	}

	Collection interface {
		CollectionLoader
		CollectionSaver
		Close() error
	}
)

// checkRecords reports decoded records that break the data model as corruption.
func checkRecords(records []core.Record) error {
	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%w: record %d: %v", ErrStorageCorrupt, i, err)
		}
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrStorageCorrupt, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
