package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/teemow/applytrack/internal/fsutil"
)

// DefaultLockTTL is the lease of a ValkeyLock. The holder renews it every
// third of the TTL, so it only expires when the holder is gone.
const DefaultLockTTL = 30 * time.Second

// Both scripts act only while the key still holds the caller's token, so a
// holder whose lease expired can never extend or drop a successor's lock.
var (
	renewScript = valkey.NewLuaScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
	releaseScript = valkey.NewLuaScript(`if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// ValkeyLock is a run lock shared by every process using the same Valkey
// server. It is taken with SET NX PX and identified by a random token.
type ValkeyLock struct {
	client valkey.Client
	key    string
	ttl    time.Duration
}

// NewValkeyLock returns a lock stored at prefix+name. A ttl <= 0 uses
// DefaultLockTTL.
func NewValkeyLock(client valkey.Client, prefix, name string, ttl time.Duration) *ValkeyLock {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &ValkeyLock{client: client, key: prefix + name, ttl: ttl}
}

// Key returns the Valkey key the lock is stored under.
func (l *ValkeyLock) Key() string {
	return l.key
}

// WithLock runs fn while holding the lock. It does not wait: if another
// holder owns the key, fsutil.ErrLocked is returned and fn is not called.
func (l *ValkeyLock) WithLock(ctx context.Context, fn func() error) error {
	token := uuid.NewString()
	cmd := l.client.B().Set().Key(l.key).Value(token).Nx().Px(l.ttl).Build()
	if err := l.client.Do(ctx, cmd).Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return fmt.Errorf("%w: %s", fsutil.ErrLocked, l.key)
		}
		return fmt.Errorf("valkey lock %s: %w", l.key, err)
	}

	done := make(chan struct{})
	renewed := make(chan struct{})
	go func() {
		defer close(renewed)
		l.renew(ctx, token, done)
	}()

	fnErr := fn()
	close(done)
	<-renewed

	// Release even when ctx was cancelled by the run itself.
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	err := releaseScript.Exec(releaseCtx, l.client, []string{l.key}, []string{token}).Error()
	if err != nil {
		err = fmt.Errorf("valkey unlock %s: %w", l.key, err)
	}
	return errors.Join(fnErr, err)
}

func (l *ValkeyLock) renew(ctx context.Context, token string, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	ttl := strconv.FormatInt(l.ttl.Milliseconds(), 10)
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// A failed renewal is retried on the next tick. The lease
			// outlives two missed ticks.
			_ = renewScript.Exec(ctx, l.client, []string{l.key}, []string{token, ttl}).Error()
		}
	}
}
