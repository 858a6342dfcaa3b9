// Package ledger owns the in-memory expense collection and is the only place
// records are created, changed or removed. Every mutation ends with a persist
// of the whole collection.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/ident"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// ErrNotFound is returned when no record matches an id or prefix.
var ErrNotFound = errors.New("no such record")

// PersistError reports that a mutation was applied in memory but could not be
// written. The in-memory collection is kept so nothing is lost.
type PersistError struct {
	Op  string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist after %s: %v", e.Op, e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}

type Store struct {
	mu         sync.Mutex
	collection storage.Collection
	records    []core.Record
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

type Option func(*Store)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces ident.New.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(collection storage.Collection, opts ...Option) *Store {
	s := &Store{
		collection: collection,
		records:    []core.Record{},
		now:        time.Now,
		newID:      ident.New,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(applog.FieldComponent, applog.ComponentStore)
	return s
}

// Load replaces the in-memory collection with the persisted one.
//
// A corrupt document is not an error: the store starts empty and the next
// mutation overwrites it. This keeps the tool usable after a bad manual edit.
// Other read failures are returned unchanged.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.collection.Load(ctx)
	if errors.Is(err, storage.ErrStorageCorrupt) {
		s.logger.WarnContext(ctx, "Persisted collection is corrupt, starting empty",
			applog.FieldOperation, applog.OpLoad,
			applog.FieldErrorType, applog.ErrorTypeCorrupt,
			applog.FieldError, err)
		s.records = []core.Record{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	if records == nil {
		records = []core.Record{}
	}
	s.records = records
	s.logger.DebugContext(ctx, "Collection loaded", applog.FieldCount, len(records))
	return nil
}

// Records returns a copy of the collection in stored order.
func (s *Store) Records() []core.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRecords(s.records)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Persist writes the whole collection.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(ctx, applog.OpPersist)
}

func (s *Store) persistLocked(ctx context.Context, op string) error {
	if err := s.collection.Save(ctx, cloneRecords(s.records)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to persist collection",
			applog.FieldOperation, op,
			applog.FieldErrorType, applog.ErrorTypeStorage,
			applog.FieldError, err)
		return &PersistError{Op: op, Err: err}
	}
	return nil
}

// Insert validates the new record, assigns its id and creation time, appends
// it and persists.
func (s *Store) Insert(ctx context.Context, in core.NewRecord) (core.Record, error) {
	if err := in.Validate(); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := core.Record{
		ID:        s.uniqueIDLocked(),
		Amount:    in.Amount,
		Date:      in.Date,
		Category:  core.NormalizeCategory(in.Category),
		Note:      in.Note,
		CreatedAt: core.NewTimestamp(s.now()),
	}
	s.records = append(s.records, rec)

	s.logger.InfoContext(ctx, "Expense added", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithRecord(ident.Short(rec.ID), rec.Amount.String(), rec.Date.String(), rec.Category).
		ToSlice()...)

	if err := s.persistLocked(ctx, applog.OpCreate); err != nil {
		return rec, err
	}
	return rec, nil
}

func (s *Store) uniqueIDLocked() string {
	for {
		id := s.newID()
		if s.indexLocked(id) < 0 {
			return id
		}
		s.logger.Warn("Generated id collides with an existing record, regenerating")
	}
}

// FindByIDPrefix returns the first record, in collection order, whose id
// starts with prefix. Several matches are not an error: the earliest wins.
func (s *Store) FindByIDPrefix(prefix string) (core.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.prefixIndexLocked(prefix)
	if i < 0 {
		return core.Record{}, false
	}
	return cloneRecords(s.records[i : i+1])[0], true
}

func (s *Store) prefixIndexLocked(prefix string) int {
	prefix = ident.NormalizePrefix(prefix)
	for i, r := range s.records {
		if ident.HasPrefix(r.ID, prefix) {
			return i
		}
	}
	return -1
}

func (s *Store) indexLocked(id string) int {
	for i, r := range s.records {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// Update applies the fields set in patch to the record with the given id,
// refreshes UpdatedAt and persists. Nothing changes if validation fails.
func (s *Store) Update(ctx context.Context, id string, patch core.Patch) (core.Record, error) {
	if err := patch.Validate(); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Record{}, ErrNotFound
	}
	return s.applyLocked(ctx, i, patch)
}

// UpdateByPrefix resolves prefix with FindByIDPrefix semantics, then updates.
func (s *Store) UpdateByPrefix(ctx context.Context, prefix string, patch core.Patch) (core.Record, error) {
	if err := patch.Validate(); err != nil {
		return core.Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.prefixIndexLocked(prefix)
	if i < 0 {
		return core.Record{}, ErrNotFound
	}
	return s.applyLocked(ctx, i, patch)
}

func (s *Store) applyLocked(ctx context.Context, i int, patch core.Patch) (core.Record, error) {
	rec := s.records[i]
	if patch.Amount != nil {
		rec.Amount = *patch.Amount
	}
	if patch.Date != nil {
		rec.Date = *patch.Date
	}
	if patch.Category != nil {
		rec.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Note != nil {
		rec.Note = *patch.Note
	}
	updated := core.NewTimestamp(s.now())
	rec.UpdatedAt = &updated
	s.records[i] = rec

	s.logger.InfoContext(ctx, "Expense updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldRecordID, ident.Short(rec.ID))

	out := cloneRecords(s.records[i : i+1])[0]
	if err := s.persistLocked(ctx, applog.OpUpdate); err != nil {
		return out, err
	}
	return out, nil
}

// Delete removes the record with the given id and persists. The order of the
// remaining records is unchanged.
func (s *Store) Delete(ctx context.Context, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return core.Record{}, ErrNotFound
	}
	return s.removeLocked(ctx, i)
}

// DeleteByPrefix resolves prefix with FindByIDPrefix semantics, then deletes.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.prefixIndexLocked(prefix)
	if i < 0 {
		return core.Record{}, ErrNotFound
	}
	return s.removeLocked(ctx, i)
}

func (s *Store) removeLocked(ctx context.Context, i int) (core.Record, error) {
	rec := s.records[i]
	next := make([]core.Record, 0, len(s.records)-1)
	next = append(next, s.records[:i]...)
	next = append(next, s.records[i+1:]...)
	s.records = next

	s.logger.InfoContext(ctx, "Expense deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldRecordID, ident.Short(rec.ID))

	if err := s.persistLocked(ctx, applog.OpDelete); err != nil {
		return rec, err
	}
	return rec, nil
}

// Close releases the underlying collection.
func (s *Store) Close() error {
	return s.collection.Close()
}

func cloneRecords(in []core.Record) []core.Record {
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
