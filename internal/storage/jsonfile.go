package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"ledger/internal/core"
)

// JSONFile persists the collection as one indented JSON array.
type JSONFile struct {
	path   string
	logger *slog.Logger
}

func NewJSONFile(path string, logger *slog.Logger) *JSONFile {
	if logger == nil {
		logger = slog.Default()
	}
	return &JSONFile{path: path, logger: logger}
}

// Path returns the document location.
func (j *JSONFile) Path() string {
	return j.path
}

// Load implements CollectionLoader. A missing or empty file is an empty
// collection; undecodable content is reported as ErrStorageCorrupt.
func (j *JSONFile) Load(ctx context.Context) ([]core.Record, error) {
	data, err := os.ReadFile(j.path)
	if errors.Is(err, fs.ErrNotExist) {
		j.logger.DebugContext(ctx, "Data file not found, starting empty", "path", j.path)
		return []core.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []core.Record{}, nil
	}

	var records []core.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageCorrupt, j.path, err)
	}
	if records == nil {
		// literal null
		return nil, fmt.Errorf("%w: %s: document is not a list", ErrStorageCorrupt, j.path)
	}
	if err := checkRecords(records); err != nil {
		return nil, err
	}

	j.logger.DebugContext(ctx, "Loaded data file", "path", j.path, "count", len(records))
	return records, nil
}

// Save implements CollectionSaver.
func (j *JSONFile) Save(ctx context.Context, records []core.Record) error {
	if records == nil {
		records = []core.Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := atomicWriteFile(j.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write data file %s: %w", j.path, err)
	}
	j.logger.DebugContext(ctx, "Saved data file", "path", j.path, "count", len(records))
	return nil
}

// Close implements Collection. There is nothing to release.
func (j *JSONFile) Close() error {
	return nil
}
