//go:build !linux

package virtualenv

import (
	"context"
	"errors"
)

// errFlockUnavailable makes the caller rely only on the in-process pack lock.
var errFlockUnavailable = errors.New("flock not available on this platform")

// Without a cross-process lock another process could be building, its build
// directories can't be told apart from stale ones.
const crossProcessLock = false

type fileLock struct{}

func acquireFileLock(_ context.Context, _ string) (*fileLock, error) {
	return nil, errFlockUnavailable
}

func (l *fileLock) release() {}
