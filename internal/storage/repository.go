package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository persists the collection as rows ordered by position.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRepository(dbPath string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements CollectionLoader. Rows that cannot be decoded are reported
// as ErrStorageCorrupt.
func (r *SQLiteRepository) Load(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount, date, category, note, created_at, updated_at
		   FROM expenses ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	records := []core.Record{}
	for rows.Next() {
		var (
			id, amount, date, category, note, createdAt string
			updatedAt                                   sql.NullString
		)
		if err := rows.Scan(&id, &amount, &date, &category, &note, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("%w: scan expense row: %v", ErrStorageCorrupt, err)
		}
		rec, err := decodeRow(id, amount, date, category, note, createdAt, updatedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: expense %s: %v", ErrStorageCorrupt, id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	if err := checkRecords(records); err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "Loaded expenses from SQLite", "count", len(records))
	return records, nil
}

func decodeRow(id, amount, date, category, note, createdAt string, updatedAt sql.NullString) (core.Record, error) {
	m, err := core.ParseMoney(amount)
	if err != nil {
		return core.Record{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Record{}, err
	}
	created, err := core.ParseTimestamp(createdAt)
	if err != nil {
		return core.Record{}, err
	}
	rec := core.Record{
		ID:        id,
		Amount:    m,
		Date:      d,
		Category:  category,
		Note:      note,
		CreatedAt: created,
	}
	if updatedAt.Valid {
		updated, err := core.ParseTimestamp(updatedAt.String)
		if err != nil {
			return core.Record{}, err
		}
		rec.UpdatedAt = &updated
	}
	return rec, nil
}

// Save implements CollectionSaver by replacing every row inside one transaction.
func (r *SQLiteRepository) Save(ctx context.Context, records []core.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses`); err != nil {
		return fmt.Errorf("clear expenses: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO expenses (position, id, amount, date, category, note, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		var updatedAt sql.NullString
		if rec.UpdatedAt != nil {
			updatedAt = sql.NullString{String: rec.UpdatedAt.String(), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			i, rec.ID, rec.Amount.String(), rec.Date.String(), rec.Category, rec.Note,
			rec.CreatedAt.String(), updatedAt); err != nil {
			return fmt.Errorf("insert expense %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Saved expenses to SQLite", "count", len(records))
	return nil
}
