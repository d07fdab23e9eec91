//go:build darwin || linux

package fsutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "run.lock")

	called := false
	err := WithTryLock(lockPath, func() error {
		called = true
		// flock locks belong to the open file description, so a second open
		// from the same process conflicts just like another process would.
		inner := WithTryLock(lockPath, func() error {
			t.Fatal("nested lock must not be acquired")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLocked)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)

	// Released after fn returns.
	assert.NoError(t, WithTryLock(lockPath, func() error { return nil }))
}
