package fsutil

import "errors"

// ErrLocked is returned by WithTryLock when another process holds the lock.
var ErrLocked = errors.New("lock is held by another process")
