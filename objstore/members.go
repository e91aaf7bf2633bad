package objstore

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Members is the set of immediate child names of a directory.
//
// Writers replace a sorted slice under a mutex, readers load the
// current slice without locking. A snapshot taken for a listing
// is therefore never affected by later changes.
type Members struct {
	mu    sync.Mutex
	names atomic.Pointer[[]string]
}

// Snapshot returns the sorted names at this point in time. The
// caller must not modify the returned slice.
func (m *Members) Snapshot() []string {
	if names := m.names.Load(); names != nil {
		return *names
	}
	return nil
}

func (m *Members) Len() int {
	return len(m.Snapshot())
}

func (m *Members) Contains(name string) bool {
	_, found := slices.BinarySearch(m.Snapshot(), name)
	return found
}

// Add inserts the name, reporting whether it was absent.
func (m *Members) Add(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.Snapshot()
	index, found := slices.BinarySearch(current, name)
	if found {
		return false
	}
	next := slices.Insert(slices.Clone(current), index, name)
	m.names.Store(&next)
	return true
}

// Remove deletes the name, reporting whether it was present.
func (m *Members) Remove(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current := m.Snapshot()
	index, found := slices.BinarySearch(current, name)
	if !found {
		return false
	}
	next := slices.Delete(slices.Clone(current), index, index+1)
	m.names.Store(&next)
	return true
}
