package service

import (
	"context"
	"sync"
)

// ownerLocks serializes page requests per user. Waiting honors ctx.
// A slot lives in the map only while someone holds or waits for it.
type ownerLocks struct {
	mu    sync.Mutex
	slots map[string]*ownerSlot
}

type ownerSlot struct {
	ch   chan struct{}
	refs int
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{slots: make(map[string]*ownerSlot)}
}

func (l *ownerLocks) lock(ctx context.Context, ownerID string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[ownerID]
	if !ok {
		slot = &ownerSlot{ch: make(chan struct{}, 1)}
		l.slots[ownerID] = slot
	}
	slot.refs++
	l.mu.Unlock()

	select {
	case slot.ch <- struct{}{}:
		return func() {
			<-slot.ch
			l.release(ownerID, slot)
		}, nil
	case <-ctx.Done():
		l.release(ownerID, slot)
		return nil, ctx.Err()
	}
}

func (l *ownerLocks) release(ownerID string, slot *ownerSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, ownerID)
	}
}

func (l *ownerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
