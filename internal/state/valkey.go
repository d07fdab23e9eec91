package state

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// DefaultKeyPrefix is prepended to every key written by ValkeyRecord.
const DefaultKeyPrefix = "applytrack:"

// ValkeyConfig configures the connection used by ValkeyRecord.
type ValkeyConfig struct {
	// Addr is the Valkey server address (e.g. "localhost:6379").
	Addr string
	// Password is optional.
	Password string
	// DB selects the logical database.
	DB int
	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// NewValkeyClient opens a client for cfg.
func NewValkeyClient(cfg ValkeyConfig) (valkey.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("valkey address is required")
	}
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to valkey at %s: %w", cfg.Addr, err)
	}
	return client, nil
}

// ValkeyRecord is a Record stored under a single Valkey key.
type ValkeyRecord struct {
	client valkey.Client
	key    string
}

// NewValkeyRecord returns a record stored at prefix+name.
func NewValkeyRecord(client valkey.Client, prefix, name string) *ValkeyRecord {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ValkeyRecord{client: client, key: prefix + name}
}

// Key returns the Valkey key the record is stored under.
func (r *ValkeyRecord) Key() string {
	return r.key
}

// Load implements Record.
func (r *ValkeyRecord) Load(ctx context.Context) ([]byte, error) {
	data, err := r.client.Do(ctx, r.client.B().Get().Key(r.key).Build()).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("valkey get %s: %w", r.key, err)
	}
	return data, nil
}

// Store implements Record. SET replaces the value in one step, so readers
// never see a partial document.
func (r *ValkeyRecord) Store(ctx context.Context, data []byte) error {
	cmd := r.client.B().Set().Key(r.key).Value(valkey.BinaryString(data)).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("valkey set %s: %w", r.key, err)
	}
	return nil
}
