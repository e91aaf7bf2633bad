// Package pathlock offers nonblocking hierarchical locks over
// the name sequences of a namespace.
//
// Creating, removing or renaming an entry takes the writer lock
// on the entry itself and reader locks on its ancestors. So there
// might be many creators under a directory, but none of them may
// race with the removal or the renaming of any directory along
// its way, nor with another creator of the same entry.
package pathlock

import (
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
)

// pool for integers in the path locker.
var pool = &sync.Pool{
	New: func() interface{} {
		return new(uintptr)
	},
}

// keySep joins names into a map key. ValidName rejects names
// containing it, so distinct valid name sequences never share a key.
const keySep = "\x00"

// ValidName reports whether name may appear in a key.
func ValidName(name string) bool {
	return name != "" && !strings.Contains(name, keySep)
}

// Key renders the name sequence as the key used by the locker.
func Key(names []string) string {
	return strings.Join(names, keySep)
}

// Prefix is the common prefix of the keys of every descendant of
// the name sequence.
func Prefix(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return Key(names) + keySep
}

// PathLocker is the locker center of a namespace.
//
// The counter stored for each key is 0 when a writer holds it,
// and 1 + number of readers otherwise. A counter of 1 means the
// last reader is leaving and the entry is about to be deleted.
//
// The locking process is nonblocking, it releases and returns
// immediately when it fails to lock the path.
type PathLocker struct {
	m sync.Map
}

// readUnlock performs the unlock operation on specified key.
//
// This operation assumes the read lock operation has completed
// successfully, or it will just panic because the integrity of
// the locker has broken.
func (l *PathLocker) readUnlock(key string) {
	obj, _ := l.m.Load(key)
	if atomic.AddUintptr(obj.(*uintptr), ^uintptr(0)) == 1 {
		old, _ := l.m.LoadAndDelete(key)
		pool.Put(old.(*uintptr))
	}
}

// readLock performs the read lock operation on certain key.
//
// The lock operation fails when there's already a writer lock
// on the specified key, or it reaches the upper limit of the
// integer's pointer.
func (l *PathLocker) readLock(key string) bool {
	for {
		newer := pool.Get().(*uintptr)
		atomic.StoreUintptr(newer, 2)
		obj, loaded := l.m.LoadOrStore(key, newer)
		if !loaded {
			return true
		}
		pool.Put(newer)
		ptr := obj.(*uintptr)
		before := atomic.LoadUintptr(ptr)
		if before == 0 {
			// Writer lock already held.
			return false
		}
		if before == 1 {
			// The last reader is deleting the entry, wait
			// for it to disappear and retry.
			runtime.Gosched()
			continue
		}
		after := before + 1
		if after == 0 {
			return false
		}
		if atomic.CompareAndSwapUintptr(ptr, before, after) {
			return true
		}
		runtime.Gosched()
	}
}

// writeUnlock performs a unlock operation on a single key.
func (l *PathLocker) writeUnlock(key string) {
	obj, _ := l.m.LoadAndDelete(key)
	pool.Put(obj.(*uintptr))
}

// writeLock performs a lock operation on a single key.
func (l *PathLocker) writeLock(key string) bool {
	for {
		newer := pool.Get().(*uintptr)
		atomic.StoreUintptr(newer, 0)
		obj, loaded := l.m.LoadOrStore(key, newer)
		if !loaded {
			return true
		}
		pool.Put(newer)
		before := atomic.LoadUintptr(obj.(*uintptr))
		if before == 0 || before > 1 {
			return false
		}
		runtime.Gosched()
	}
}

// readUnlockRecursive releases the reader locks held on the
// names and every non-root ancestor of them.
func (l *PathLocker) readUnlockRecursive(names []string) {
	for i := len(names); i > 0; i-- {
		l.readUnlock(Key(names[:i]))
	}
}

// readLockRecursive takes the reader locks from the topmost
// ancestor down to the names themselves. The root is never
// locked since it can be neither removed nor renamed.
func (l *PathLocker) readLockRecursive(names []string) bool {
	for i := 1; i <= len(names); i++ {
		if !l.readLock(Key(names[:i])) {
			l.readUnlockRecursive(names[:i-1])
			return false
		}
	}
	return true
}

// Lock is the reference object held to release the lock.
type Lock struct {
	locker *PathLocker
	names  []string
	write  bool
	free   sync.Once
}

func (l *PathLocker) newLock(names []string, write bool) *Lock {
	result := &Lock{
		locker: l,
		names:  append([]string(nil), names...),
		write:  write,
	}
	runtime.SetFinalizer(result, func(l *Lock) {
		l.Unlock()
	})
	return result
}

// Unlock releases the lock, it is safe to call it multiple times.
func (l *Lock) Unlock() {
	runtime.SetFinalizer(l, nil)
	l.free.Do(func() {
		if l.write {
			l.locker.writeUnlock(Key(l.names))
			l.locker.readUnlockRecursive(l.names[:len(l.names)-1])
		} else {
			l.locker.readUnlockRecursive(l.names)
		}
	})
}

// RLock attempts to perform the reader lock on the names and
// all of their ancestors, returning nil upon failure.
func (l *PathLocker) RLock(names []string) *Lock {
	if l.readLockRecursive(names) {
		return l.newLock(names, false)
	}
	return nil
}

// Lock attempts to perform the writer lock on the names while
// reader locking their ancestors, returning nil upon failure.
// The root can never be write locked.
func (l *PathLocker) Lock(names []string) *Lock {
	if len(names) == 0 {
		return nil
	}
	parent := names[:len(names)-1]
	if !l.readLockRecursive(parent) {
		return nil
	}
	key := Key(names)
	if !l.writeLock(key) {
		l.readUnlockRecursive(parent)
		return nil
	}
	return l.newLock(names, true)
}
