//go:build !unix

package platform

import (
	"fmt"
	"runtime"
)

func lockDataDir(_ string) (DataDirLock, error) {
	return nil, fmt.Errorf("%w on %s", ErrDataDirLockUnsupported, runtime.GOOS)
}
