//go:build !darwin && !linux

package fsutil

// WithTryLock runs fn without locking on platforms without flock.
func WithTryLock(_ string, fn func() error) error {
	return fn()
}
