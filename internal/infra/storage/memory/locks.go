package memory

import (
	"context"
	"sync"

	domainrooms "lodging/internal/domain/rooms"
)

// roomLocks hands out one mutual exclusion slot per room. Waiting honours
// context cancellation.
type roomLocks struct {
	mu    sync.Mutex
	slots map[domainrooms.RoomID]chan struct{}
}

func newRoomLocks() *roomLocks {
	return &roomLocks{slots: make(map[domainrooms.RoomID]chan struct{})}
}

func (l *roomLocks) slot(id domainrooms.RoomID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[id]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[id] = ch
	}
	return ch
}

func (l *roomLocks) acquire(ctx context.Context, id domainrooms.RoomID) (func(), error) {
	ch := l.slot(id)
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
