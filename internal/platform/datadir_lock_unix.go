//go:build unix

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

type unixDataDirLock struct {
	file *os.File
}

func lockDataDir(dir string) (DataDirLock, error) {
	lockPath := filepath.Join(filepath.Clean(dir), lockFilename)
	// #nosec G304 -- lockPath lives in the resolved app data dir.
	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open data dir lock file: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = file.Close()
		if errors.Is(err, syscall.EWOULDBLOCK) || errors.Is(err, syscall.EAGAIN) {
			return nil, fmt.Errorf("%w: %s", ErrDataDirLocked, dir)
		}

		return nil, fmt.Errorf("acquire data dir lock: %w", err)
	}

	return &unixDataDirLock{file: file}, nil
}

func (l *unixDataDirLock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	unlockErr := syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil && !errors.Is(unlockErr, syscall.EBADF) {
		return fmt.Errorf("unlock data dir lock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close data dir lock file: %w", closeErr)
	}

	return nil
}
