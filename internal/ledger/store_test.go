package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

// stepClock returns a clock that advances one second per call.
func stepClock() func() time.Time {
	t := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

// seqIDs returns ids built from the given prefixes, padded to 32 chars.
func seqIDs(prefixes ...string) func() string {
	i := 0
	return func() string {
		p := prefixes[i%len(prefixes)]
		i++
		return fmt.Sprintf("%s%0*d", p, 32-len(p), i)
	}
}

func newJSONStore(t *testing.T, opts ...Option) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "expenses.json")
	opts = append([]Option{WithClock(stepClock())}, opts...)
	s := NewStore(storage.NewJSONFile(path, nil), opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return s, path
}

func reload(t *testing.T, path string) []core.Record {
	t.Helper()
	s := NewStore(storage.NewJSONFile(path, nil))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return s.Records()
}

func mustDate(t *testing.T, s string) core.Date {
	t.Helper()
	d, err := core.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

func TestInsertPersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	s, path := newJSONStore(t)

	first, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 1000}, Date: mustDate(t, "2024-01-05"), Category: "Food", Note: "lunch"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	second, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 550}, Date: mustDate(t, "2024-01-06")})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("ids must be unique")
	}
	if second.Category != core.DefaultCategory {
		t.Fatalf("expected default category, got %q", second.Category)
	}
	if first.CreatedAt.IsZero() || first.UpdatedAt != nil {
		t.Fatalf("unexpected timestamps: %+v", first)
	}

	got := reload(t, path)
	if len(got) != 2 {
		t.Fatalf("expected 2 records after reload, got %d", len(got))
	}
	r := got[0]
	if r.ID != first.ID || r.Amount.Cents != 1000 || r.Date.String() != "2024-01-05" || r.Category != "Food" || r.Note != "lunch" {
		t.Fatalf("reloaded record differs: %+v", r)
	}
}

func TestNoteStoredVerbatim(t *testing.T) {
	ctx := context.Background()
	s, path := newJSONStore(t)

	rec, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: mustDate(t, "2024-01-05"), Note: "  padded  "})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.Note != "  padded  " {
		t.Fatalf("insert changed note: %q", rec.Note)
	}
	if got := reload(t, path)[0].Note; got != "  padded  " {
		t.Fatalf("reload changed note: %q", got)
	}

	note := " tabbed\t"
	if _, err := s.Update(ctx, rec.ID, core.Patch{Note: &note}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := reload(t, path)[0].Note; got != note {
		t.Fatalf("update changed note: %q", got)
	}
}

func TestInsertRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := NewStore(mem)

	cases := []core.NewRecord{
		{Amount: core.Money{Cents: 0}, Date: core.NewDate(2024, 1, 1)},
		{Amount: core.Money{Cents: -500}, Date: core.NewDate(2024, 1, 1)},
		{Amount: core.Money{Cents: 100}},
	}
	for i, in := range cases {
		if _, err := s.Insert(ctx, in); !core.IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
	if s.Len() != 0 || mem.Saves() != 0 {
		t.Fatalf("rejected inserts must not change or persist anything")
	}
}

func TestFindByIDPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), WithIDGenerator(seqIDs("abcd", "abcd", "ffff")))
	a, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)})
	_, _ = s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 200}, Date: core.NewDate(2024, 1, 2)})
	c, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 300}, Date: core.NewDate(2024, 1, 3)})

	if _, ok := s.FindByIDPrefix("0000"); ok {
		t.Fatalf("expected no match")
	}
	if _, ok := s.FindByIDPrefix(""); ok {
		t.Fatalf("empty prefix must not match")
	}
	got, ok := s.FindByIDPrefix("abcd")
	if !ok || got.ID != a.ID {
		t.Fatalf("ambiguous prefix should return the first inserted match, got %+v", got)
	}
	got, ok = s.FindByIDPrefix("FFFF")
	if !ok || got.ID != c.ID {
		t.Fatalf("prefix lookup should ignore case, got %+v", got)
	}
}

func TestUpdatePartialPatch(t *testing.T) {
	ctx := context.Background()
	s, path := newJSONStore(t)
	orig, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 1000}, Date: mustDate(t, "2024-01-05"), Category: "Food", Note: "lunch"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	amount := core.Money{Cents: 2500}
	updated, err := s.Update(ctx, orig.ID, core.Patch{Amount: &amount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount.Cents != 2500 {
		t.Fatalf("amount not updated: %+v", updated)
	}
	if updated.Date != orig.Date || updated.Category != orig.Category || updated.Note != orig.Note {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.UpdatedAt == nil || !updated.UpdatedAt.After(updated.CreatedAt.Time) {
		t.Fatalf("updated_at should be later than created_at: %+v", updated)
	}
	if !updated.CreatedAt.Equal(orig.CreatedAt.Time) {
		t.Fatalf("created_at must never change")
	}

	got := reload(t, path)
	if got[0].Amount.Cents != 2500 || got[0].UpdatedAt == nil {
		t.Fatalf("update not persisted: %+v", got[0])
	}
}

func TestUpdateValidationAndNotFound(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := NewStore(mem)
	rec, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 1000}, Date: core.NewDate(2024, 1, 5), Category: "Food"})
	saves := mem.Saves()

	zero := core.Money{}
	cat := "Travel"
	if _, err := s.Update(ctx, rec.ID, core.Patch{Amount: &zero, Category: &cat}); !core.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := s.FindByIDPrefix(rec.ID)
	if got.Category != "Food" || got.UpdatedAt != nil {
		t.Fatalf("failed update must not partially apply: %+v", got)
	}

	if _, err := s.Update(ctx, "missing", core.Patch{Category: &cat}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateByPrefix(ctx, "zzzz", core.Patch{Category: &cat}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mem.Saves() != saves {
		t.Fatalf("failed updates must not persist")
	}
}

func TestUpdateByPrefix(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New(), WithIDGenerator(seqIDs("1234abcd", "99998888")), WithClock(stepClock()))
	_, _ = s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)})
	b, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 200}, Date: core.NewDate(2024, 1, 2)})

	note := "taxi"
	d := core.NewDate(2024, 3, 3)
	got, err := s.UpdateByPrefix(ctx, "99998888", core.Patch{Note: &note, Date: &d})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.ID != b.ID || got.Note != "taxi" || got.Date != d || got.Amount.Cents != 200 {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestDeleteRemovesOnlyTarget(t *testing.T) {
	ctx := context.Background()
	s, path := newJSONStore(t)
	var ids []string
	for i := 1; i <= 3; i++ {
		r, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: int64(i * 100)}, Date: core.NewDate(2024, 1, i)})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		ids = append(ids, r.ID)
	}

	deleted, err := s.Delete(ctx, ids[1])
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.ID != ids[1] {
		t.Fatalf("deleted wrong record")
	}

	got := reload(t, path)
	if len(got) != 2 || got[0].ID != ids[0] || got[1].ID != ids[2] {
		t.Fatalf("unexpected remaining records: %+v", got)
	}

	if _, err := s.Delete(ctx, ids[1]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete should be ErrNotFound, got %v", err)
	}
	if _, err := s.DeleteByPrefix(ctx, ids[0][:8]); err != nil {
		t.Fatalf("delete by prefix: %v", err)
	}
	if got := reload(t, path); len(got) != 1 || got[0].ID != ids[2] {
		t.Fatalf("unexpected remaining records: %+v", got)
	}
}

func TestLoadCorruptStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expenses.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := NewStore(storage.NewJSONFile(path, nil))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("corrupt storage must not surface an error, got %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty collection")
	}

	// Next mutation replaces the corrupt document.
	if _, err := s.Insert(context.Background(), core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if got := reload(t, path); len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
}

func TestLoadPropagatesIOErrors(t *testing.T) {
	mem := memory.New()
	mem.FailLoad(errors.New("permission denied"))
	s := NewStore(mem)
	if err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected read failure to propagate")
	}
}

func TestPersistFailurePropagates(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	s := NewStore(mem)
	boom := errors.New("disk full")
	mem.FailSave(boom)

	rec, err := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)})
	var pe *PersistError
	if !errors.As(err, &pe) || !errors.Is(err, boom) {
		t.Fatalf("expected PersistError wrapping the write failure, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("in-memory collection must be kept after a failed write")
	}

	mem.FailSave(nil)
	if err := s.Persist(ctx); err != nil {
		t.Fatalf("retry persist: %v", err)
	}
	stored, _ := mem.Load(ctx)
	if len(stored) != 1 || stored[0].ID != rec.ID {
		t.Fatalf("retried persist should write the kept record, got %+v", stored)
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewStore(memory.New())
	_, _ = s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1), Category: "Food"})

	view := s.Records()
	view[0].Category = "Hacked"
	if s.Records()[0].Category != "Food" {
		t.Fatalf("Records must not expose the internal slice")
	}
}

func TestInsertRegeneratesCollidingID(t *testing.T) {
	ctx := context.Background()
	ids := []string{"same", "same", "other"}
	i := 0
	s := NewStore(memory.New(), WithIDGenerator(func() string {
		id := ids[i]
		i++
		return id
	}))
	a, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)})
	b, _ := s.Insert(ctx, core.NewRecord{Amount: core.Money{Cents: 100}, Date: core.NewDate(2024, 1, 1)})
	if a.ID != "same" || b.ID != "other" {
		t.Fatalf("expected collision to be regenerated, got %q and %q", a.ID, b.ID)
	}
}
