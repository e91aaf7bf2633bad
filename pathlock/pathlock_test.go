package pathlock

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertEmpty(assert *assert.Assertions, locker *PathLocker) {
	locker.m.Range(func(k, v interface{}) bool {
		_ = assert.Failf(
			"invalid remaining entry",
			"%q = %d", k.(string), *v.(*uintptr),
		)
		return true
	})
}

func split(p string) []string {
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

func TestRootDir(t *testing.T) {
	assert := assert.New(t)
	locker := &PathLocker{}
	defer assertEmpty(assert, locker)
	lock := locker.RLock(nil)
	assert.NotNil(lock)
	lock.Unlock()
	assert.Nil(locker.Lock(nil))
	assert.Nil(locker.Lock([]string{}))
}

func TestReadWriteLock(t *testing.T) {
	assert := assert.New(t)
	locker := &PathLocker{}
	defer assertEmpty(assert, locker)

	lockABC := locker.RLock(split("a/b/c"))
	assert.NotNil(lockABC)
	defer lockABC.Unlock()

	// You can obtain any amount of read lock.
	lockABC2 := locker.RLock(split("a/b/c"))
	assert.NotNil(lockABC2)
	defer lockABC2.Unlock()

	// Neither it nor its ancestors can be write locked.
	assert.Nil(locker.Lock(split("a/b/c")))
	assert.Nil(locker.Lock(split("a/b")))
	assert.Nil(locker.Lock(split("a")))

	// Its child can be locked however.
	lockABCD := locker.Lock(split("a/b/c/d"))
	assert.NotNil(lockABCD)
	defer lockABCD.Unlock()

	// Siblings are independent.
	lockAC := locker.Lock(split("a/c"))
	assert.NotNil(lockAC)
	defer lockAC.Unlock()

	// And the writer lock is exclusive.
	assert.Nil(locker.Lock(split("a/c")))
	assert.Nil(locker.RLock(split("a/c")))
	assert.Nil(locker.RLock(split("a/c/d")))
	assert.Nil(locker.Lock(split("a/c/d")))
}

func TestFailedLockRollsBack(t *testing.T) {
	assert := assert.New(t)
	locker := &PathLocker{}
	defer assertEmpty(assert, locker)

	writer := locker.Lock(split("a/b"))
	assert.NotNil(writer)

	// The reader locks taken on "a" must be released when the
	// attempt stops at "a/b".
	assert.Nil(locker.RLock(split("a/b/c")))
	writer.Unlock()
	writer.Unlock()

	lock := locker.Lock(split("a"))
	assert.NotNil(lock)
	lock.Unlock()
}

func TestConcurrentReaders(t *testing.T) {
	assert := assert.New(t)
	locker := &PathLocker{}
	defer assertEmpty(assert, locker)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				lock := locker.RLock(split("x/y/z"))
				if assert.NotNil(lock) {
					lock.Unlock()
				}
			}
		}()
	}
	wg.Wait()
}

func TestKey(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("", Key(nil))
	assert.Equal("", Prefix(nil))
	assert.True(strings.HasPrefix(Key(split("a/b")), Prefix(split("a"))))
	assert.False(strings.HasPrefix(Key(split("ab")), Prefix(split("a"))))

	assert.True(ValidName("a"))
	assert.False(ValidName(""))
	assert.False(ValidName("a\x00b"))
}
