//go:build windows

package lock

import (
	"fmt"
	"os"
	"path/filepath"
)

// LockFileName is created inside a locked directory.
const LockFileName = "LOCK"

// LockDirectory creates the LOCK file in dir exclusively. If the file already
// exists another writer owns the directory.
//
// The returned file must stay open for as long as the lock is needed.
func LockDirectory(dir string) (*os.File, error) {
	lockFilePath := filepath.Join(dir, LockFileName)

	f, err := os.OpenFile(lockFilePath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("directory %s already in use by another writer: %w", dir, err)
	}

	return f, nil
}

// UnlockDirectory removes the lock file. Call it exactly once per successful
// LockDirectory.
func UnlockDirectory(f *os.File) {
	name := f.Name()
	f.Close()
	os.Remove(name)
}
