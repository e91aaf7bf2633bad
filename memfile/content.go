// Package memfile implements the byte storage of regular files
// and the positionable channels opened against them.
//
// Every channel opened on the same file shares one Content and
// its lock, so reads and writes issued through any of them are
// linearized.
package memfile

import (
	"sync"
)

// Content is the growable byte buffer of a regular file.
type Content struct {
	mu   sync.Mutex
	data []byte
}

// Size returns the current length of the content.
func (c *Content) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.data))
}

// Reset drops the content to zero length, keeping its capacity.
func (c *Content) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = c.data[:0]
}

// readAt copies from the content at off. Must be called with
// the lock held.
func (c *Content) readAt(p []byte, off int64) int {
	if off >= int64(len(c.data)) {
		return 0
	}
	return copy(p, c.data[off:])
}

// writeAt copies p into the content at off, growing the content
// when needed. Bytes between the old end and off read as zero,
// while an empty p never grows the content. Must be called with
// the lock held.
func (c *Content) writeAt(p []byte, off int64) int {
	if len(p) == 0 {
		return 0
	}
	end := off + int64(len(p))
	if size := int64(len(c.data)); end > size {
		if end > int64(cap(c.data)) {
			newCap := 2 * int64(cap(c.data))
			if newCap < end {
				newCap = end
			}
			grown := make([]byte, end, newCap)
			copy(grown, c.data)
			c.data = grown
		} else {
			c.data = c.data[:end]
			clear(c.data[size:end])
		}
	}
	return copy(c.data[off:end], p)
}
