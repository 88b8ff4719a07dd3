package scheduler

import (
	"context"
	"sync"
)

// projectLocks serializes runs per project. Entries are dropped once unused.
type projectLocks struct {
	mu    sync.Mutex
	locks map[uint]*projectLock
}

type projectLock struct {
	ch   chan struct{}
	refs int
}

func newProjectLocks() *projectLocks {
	return &projectLocks{locks: make(map[uint]*projectLock)}
}

// acquire blocks until the project is free or ctx is done
func (p *projectLocks) acquire(ctx context.Context, projectID uint) (func(), error) {
	p.mu.Lock()
	l, ok := p.locks[projectID]
	if !ok {
		l = &projectLock{ch: make(chan struct{}, 1)}
		p.locks[projectID] = l
	}
	l.refs++
	p.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			p.unref(projectID, l)
		}, nil
	case <-ctx.Done():
		p.unref(projectID, l)
		return nil, ctx.Err()
	}
}

func (p *projectLocks) unref(projectID uint, l *projectLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(p.locks, projectID)
	}
}

func (p *projectLocks) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.locks)
}
