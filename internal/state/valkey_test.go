package state

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/applytrack/internal/fsutil"
)

// TestValkeyRecord runs against a live server when APPLYTRACK_TEST_VALKEY_ADDR is set.
func TestValkeyRecord(t *testing.T) {
	addr := os.Getenv("APPLYTRACK_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("APPLYTRACK_TEST_VALKEY_ADDR not set")
	}

	client, err := NewValkeyClient(ValkeyConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	rec := NewValkeyRecord(client, "applytrack-test:"+uuid.NewString()+":", "watermark")

	data, err := rec.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, data)

	store := NewWatermarkStore(rec)
	d := civil.Date{Year: 2024, Month: 6, Day: 1}
	require.NoError(t, store.Write(ctx, d))

	got, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, d, *got)

	require.NoError(t, client.Do(ctx, client.B().Del().Key(rec.Key()).Build()).Error())
}

func TestNewValkeyClientRequiresAddr(t *testing.T) {
	_, err := NewValkeyClient(ValkeyConfig{})
	assert.Error(t, err)
}

func TestNewValkeyRecordDefaultPrefix(t *testing.T) {
	rec := NewValkeyRecord(nil, "", "watermark")
	assert.Equal(t, "applytrack:watermark", rec.Key())
}

// TestValkeyLock runs against a live server when APPLYTRACK_TEST_VALKEY_ADDR is set.
func TestValkeyLock(t *testing.T) {
	addr := os.Getenv("APPLYTRACK_TEST_VALKEY_ADDR")
	if addr == "" {
		t.Skip("APPLYTRACK_TEST_VALKEY_ADDR not set")
	}

	client, err := NewValkeyClient(ValkeyConfig{Addr: addr})
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	prefix := "applytrack-test:" + uuid.NewString() + ":"
	first := NewValkeyLock(client, prefix, "pipeline.lock", 300*time.Millisecond)
	second := NewValkeyLock(client, prefix, "pipeline.lock", 300*time.Millisecond)

	ran := false
	err = first.WithLock(ctx, func() error {
		// Outlive the TTL so only renewal keeps the key alive.
		time.Sleep(500 * time.Millisecond)
		err := second.WithLock(ctx, func() error {
			ran = true
			return nil
		})
		assert.ErrorIs(t, err, fsutil.ErrLocked)
		return nil
	})
	require.NoError(t, err)
	assert.False(t, ran)

	n, err := client.Do(ctx, client.B().Exists().Key(first.Key()).Build()).AsInt64()
	require.NoError(t, err)
	assert.Zero(t, n, "lock key must be released")

	fnErr := errors.New("boom")
	err = second.WithLock(ctx, func() error { return fnErr })
	assert.ErrorIs(t, err, fnErr)
}

func TestNewValkeyLockDefaults(t *testing.T) {
	lock := NewValkeyLock(nil, "", "pipeline.lock", 0)
	assert.Equal(t, "applytrack:pipeline.lock", lock.Key())
	assert.Equal(t, DefaultLockTTL, lock.ttl)
}
