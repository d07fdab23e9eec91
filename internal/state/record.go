package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/teemow/applytrack/internal/fsutil"
)

// Record is a single persisted JSON document.
type Record interface {
	// Load returns the stored bytes, or nil with a nil error if nothing has
	// been stored yet.
	Load(ctx context.Context) ([]byte, error)
	// Store replaces the stored bytes. A failed Store leaves the previous
	// value intact.
	Store(ctx context.Context, data []byte) error
}

// FileRecord is a Record backed by a file on local disk.
type FileRecord struct {
	path string
}

// NewFileRecord returns a FileRecord stored at path.
func NewFileRecord(path string) *FileRecord {
	return &FileRecord{path: path}
}

// Path returns the file the record is stored in.
func (r *FileRecord) Path() string {
	return r.path
}

// Load implements Record.
func (r *FileRecord) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.path, err)
	}
	return data, nil
}

// Store implements Record.
func (r *FileRecord) Store(_ context.Context, data []byte) error {
	if err := fsutil.WriteFileAtomic(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", r.path, err)
	}
	return nil
}

// loadJSON decodes the record into v. It reports false when the record is empty.
func loadJSON(ctx context.Context, r Record, v any) (bool, error) {
	data, err := r.Load(ctx)
	if err != nil {
		return false, err
	}
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode record: %w", err)
	}
	return true, nil
}

func storeJSON(ctx context.Context, r Record, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return r.Store(ctx, data)
}
