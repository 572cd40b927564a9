package virtualenv

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const lockPollInterval = 100 * time.Millisecond

// packLocks serializes the environment operations of the same pack inside the process,
// different packs don't block each other.
type packLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newPackLocks() *packLocks {
	return &packLocks{locks: map[string]chan struct{}{}}
}

func (p *packLocks) get(pack string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.locks[pack]
	if !ok {
		l = make(chan struct{}, 1)
		p.locks[pack] = l
	}
	return l
}

// lock blocks until the pack lock is acquired or the context is done.
func (p *packLocks) lock(ctx context.Context, pack string) (unlock func(), err error) {
	l := p.get(pack)
	select {
	case l <- struct{}{}:
		return func() { <-l }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("waiting for pack %s lock: %w", pack, ctx.Err())
	}
}

// acquire takes the in-process pack lock and then the cross-process file lock.
// When file locks are not available on the platform only the in-process lock is held.
func (p *packLocks) acquire(ctx context.Context, pack, lockPath string) (release func(), err error) {
	unlock, err := p.lock(ctx, pack)
	if err != nil {
		return nil, err
	}

	fl, err := acquireFileLock(ctx, lockPath)
	if err != nil && !errors.Is(err, errFlockUnavailable) {
		unlock()
		return nil, err
	}

	return func() {
		fl.release()
		unlock()
	}, nil
}
