package service

import (
	"auticonnect/internal/cache"
	"context"
	"fmt"
	"sync"
	"time"
)

// keyedMutex serializes work per key. Entries are dropped once nobody holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refLock)}
}

// Lock blocks until key is free and returns its unlock func
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// Cadence limits group facilitation to one cycle per cooldown window and never lets two cycles for the
// same group overlap within this process.
type Cadence struct {
	store    cache.CadenceCache
	cooldown time.Duration
	now      func() time.Time
	locks    *keyedMutex
}

// NewCadence creates a cadence gate. A nil clock means time.Now.
func NewCadence(store cache.CadenceCache, cooldown time.Duration, now func() time.Time) *Cadence {
	if now == nil {
		now = time.Now
	}
	return &Cadence{
		store:    store,
		cooldown: cooldown,
		now:      now,
		locks:    newKeyedMutex(),
	}
}

// Run executes fn unless the group had a cycle less than the cooldown ago. ran reports whether fn was called.
func (c *Cadence) Run(ctx context.Context, groupID string, fn func(ctx context.Context) error) (ran bool, err error) {
	unlock := c.locks.Lock(groupID)
	defer unlock()

	last, ok, err := c.store.LastCycle(ctx, groupID)
	if err != nil {
		return false, fmt.Errorf("read cadence for group %s: %w", groupID, err)
	}
	now := c.now()
	if ok && now.Sub(last) < c.cooldown {
		return false, nil
	}

	if err := c.store.MarkCycle(ctx, groupID, now); err != nil {
		return false, fmt.Errorf("mark cadence for group %s: %w", groupID, err)
	}
	return true, fn(ctx)
}
