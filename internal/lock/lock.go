package lock

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrLocked is returned by TryLock when another holder owns the key
var ErrLocked = errors.New("lock held by another owner")

// ReleaseFunc releases a held lock. Releasing an expired or stolen lock is a
// no-op.
type ReleaseFunc func(ctx context.Context) error

// Locker acquires named, expiring locks
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error)
}

// MemoryLocker is an in-process Locker
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	nowFn func() time.Time
}

type memoryLease struct {
	token   string
	expires time.Time
}

// NewMemoryLocker creates an in-process locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		held:  make(map[string]memoryLease),
		nowFn: time.Now,
	}
}

// TryLock acquires key for ttl or returns ErrLocked
func (m *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (ReleaseFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn()
	if lease, ok := m.held[key]; ok && now.Before(lease.expires) {
		return nil, ErrLocked
	}

	token := uuid.NewString()
	m.held[key] = memoryLease{token: token, expires: now.Add(ttl)}

	return func(context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if lease, ok := m.held[key]; ok && lease.token == token {
			delete(m.held, key)
		}
		return nil
	}, nil
}

// KeyedMutex hands out one mutex per key. Entries are reference counted and
// dropped when the last holder unlocks.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free and returns the unlock function
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedEntry{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LockAll locks every distinct key in sorted order so callers that share
// keys cannot deadlock. The returned function releases them in reverse.
func (k *KeyedMutex) LockAll(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	unlocks := make([]func(), 0, len(sorted))
	for i, key := range sorted {
		if i > 0 && key == sorted[i-1] {
			continue
		}
		unlocks = append(unlocks, k.Lock(key))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Len returns the number of keys currently held or waited on
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
