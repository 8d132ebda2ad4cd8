//go:build unix

package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

// LockFileName is created inside a locked directory.
const LockFileName = "LOCK"

// LockDirectory takes an exclusive, non-blocking flock(2) on a LOCK file in
// dir, so only one writer appends to the logs stored there.
//
// The returned file must stay open for as long as the lock is needed.
func LockDirectory(dir string) (*os.File, error) {
	lockFilePath := filepath.Join(dir, LockFileName)

	f, err := os.OpenFile(lockFilePath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("directory %s already in use by another writer: %w", dir, err)
	}

	return f, nil
}

// UnlockDirectory releases the flock and closes the file.
func UnlockDirectory(f *os.File) {
	syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	f.Close()
}
