// Package fsutil provides crash-safe file replacement and advisory
// cross-process locking for applytrack's on-disk state.
package fsutil
