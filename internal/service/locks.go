package service

import "sync"

// LockSet provides advisory per-group mutexes. Every multi-step write
// sequence (replace splits, create settlement, cascade delete) runs under the
// group's lock so a concurrent allocate-and-delete on the same group cannot
// interleave. Reads stay lock-free.
//
// Locks are never removed from the map; groups are few and a mutex is small.
type LockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockSet creates an empty lock registry. One LockSet is shared by every
// service that writes to groups.
func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for groupID and returns the unlock function.
func (s *LockSet) Lock(groupID string) func() {
	s.mu.Lock()
	l, ok := s.locks[groupID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[groupID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}
