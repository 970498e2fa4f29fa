// Package keylock serializes work per string key (usernames, in practice).
package keylock

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Locker hands out one mutex per key. Entries are dropped once nobody
// holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	byKey map[string]*entry
}

func New() *Locker {
	return &Locker{byKey: make(map[string]*entry)}
}

func (l *Locker) acquire(key string) *entry {
	l.mu.Lock()
	e, ok := l.byKey[key]
	if !ok {
		e = &entry{}
		l.byKey[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return e
}

func (l *Locker) release(key string, e *entry) {
	e.mu.Unlock()

	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.byKey, key)
	}
	l.mu.Unlock()
}

// Lock takes the locks for every distinct key, always in sorted order so two
// callers locking the same pair cannot deadlock. The returned func unlocks.
func (l *Locker) Lock(keys ...string) func() {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Strings(uniq)

	held := make([]*entry, len(uniq))
	for i, k := range uniq {
		held[i] = l.acquire(k)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(uniq) - 1; i >= 0; i-- {
				l.release(uniq[i], held[i])
			}
		})
	}
}

// Len reports how many keys currently have an entry.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}
