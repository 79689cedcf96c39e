// Package platform holds OS-specific helpers.
package platform

import "errors"

// ErrDataDirLocked indicates another process already owns the data directory.
var ErrDataDirLocked = errors.New("data directory is locked by another process")

// ErrDataDirLockUnsupported indicates the current platform has no lock backend implementation.
var ErrDataDirLockUnsupported = errors.New("data directory lock unsupported")

const lockFilename = "msgsync.lock"

// DataDirLock is an acquired exclusive lock on a data directory.
type DataDirLock interface {
	Release() error
}

// LockDataDir takes an exclusive, non-blocking lock on dir. The lock is
// dropped by Release or when the process exits.
func LockDataDir(dir string) (DataDirLock, error) {
	return lockDataDir(dir)
}
