package state

import (
	"context"
	"sync"
)

// MemoryRecord is an in-process Record. It is used when persistence is
// disabled and by tests.
type MemoryRecord struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryRecord returns an empty MemoryRecord.
func NewMemoryRecord() *MemoryRecord {
	return &MemoryRecord{}
}

// Load implements Record.
func (r *MemoryRecord) Load(_ context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		return nil, nil
	}
	return append([]byte(nil), r.data...), nil
}

// Store implements Record.
func (r *MemoryRecord) Store(_ context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = append([]byte(nil), data...)
	return nil
}
