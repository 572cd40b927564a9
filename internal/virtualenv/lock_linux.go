//go:build linux

package virtualenv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// errFlockUnavailable is defined for cross-platform compatibility with lock_other.go.
// On Linux acquireFileLock never returns it.
var errFlockUnavailable = errors.New("flock not available on this platform")

const crossProcessLock = true

// fileLock is an exclusive flock held on a pack lock file. The kernel releases it
// when the fd is closed, including on process crash, so an orphaned lock file is harmless.
type fileLock struct {
	file *os.File
}

// acquireFileLock opens (or creates) the lock file and polls a non-blocking exclusive
// flock until it is acquired or the context is done.
func acquireFileLock(ctx context.Context, path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lock file %s: %w", path, err)
	}

	t := time.NewTicker(lockPollInterval)
	defer t.Stop()
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return &fileLock{file: f}, nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EINTR) {
			f.Close()
			return nil, fmt.Errorf("flock %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, fmt.Errorf("waiting for lock %s: %w", path, ctx.Err())
		case <-t.C:
		}
	}
}

// release unlocks and closes the lock file. Safe to call on a nil lock.
func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}
