// Package memory provides a process-local collection, used for dry runs and tests.
package memory

import (
	"context"
	"sync"

	"ledger/internal/core"
)

type Store struct {
	mu      sync.Mutex
	items   []core.Record
	saves   int
	loadErr error
	saveErr error
}

// New returns a store seeded with a copy of records.
func New(records ...core.Record) *Store {
	return &Store{items: copyRecords(records)}
}

// Load implements storage.CollectionLoader.
func (s *Store) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return copyRecords(s.items), nil
}

// Save implements storage.CollectionSaver.
func (s *Store) Save(_ context.Context, records []core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.items = copyRecords(records)
	s.saves++
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Saves returns how many times Save succeeded.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailLoad makes every subsequent Load return err (nil clears it).
func (s *Store) FailLoad(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// FailSave makes every subsequent Save return err (nil clears it).
func (s *Store) FailSave(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

func copyRecords(in []core.Record) []core.Record {
	out := make([]core.Record, len(in))
	for i, r := range in {
		if r.UpdatedAt != nil {
			u := *r.UpdatedAt
			r.UpdatedAt = &u
		}
		out[i] = r
	}
	return out
}
