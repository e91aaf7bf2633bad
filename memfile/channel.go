package memfile

import (
	"io"
	"math"
	"sync/atomic"

	"github.com/aegistudio/go-memns/fserr"
)

// Channel is a positionable handle onto the content of a regular
// file. Each channel tracks its own position while the content
// and its lock are shared with other channels of the same file.
type Channel struct {
	content *Content
	name    string
	flags   Flag
	closed  atomic.Bool

	// pos is guarded by content.mu.
	pos int64
}

var (
	_ io.Reader     = (*Channel)(nil)
	_ io.Writer     = (*Channel)(nil)
	_ io.ReaderAt   = (*Channel)(nil)
	_ io.WriterAt   = (*Channel)(nil)
	_ io.Seeker     = (*Channel)(nil)
	_ io.ReadWriter = (*Channel)(nil)
	_ io.Closer     = (*Channel)(nil)
)

// Open creates a channel onto the content. The name is only used
// for error reporting. TruncateExisting empties the content when
// the channel is opened for writing.
func Open(content *Content, name string, flags Flag) (*Channel, error) {
	if err := flags.Validate(); err != nil {
		return nil, fserr.WithOp("open", name, err)
	}
	if flags.Has(TruncateExisting) && flags.Has(Write) {
		content.Reset()
	}
	return &Channel{
		content: content,
		name:    name,
		flags:   flags,
	}, nil
}

// Name returns the name the channel was opened with.
func (c *Channel) Name() string {
	return c.name
}

// Flags returns the flags the channel was opened with.
func (c *Channel) Flags() Flag {
	return c.flags
}

func (c *Channel) ensureOpen(op string) error {
	if c.closed.Load() {
		return fserr.New(op, c.name, fserr.ClosedChannel)
	}
	return nil
}

func (c *Channel) ensureReadable(op string) error {
	if err := c.ensureOpen(op); err != nil {
		return err
	}
	if !c.flags.Has(Read) {
		return fserr.New(op, c.name, fserr.NonReadableChannel)
	}
	return nil
}

func (c *Channel) ensureWritable(op string) error {
	if err := c.ensureOpen(op); err != nil {
		return err
	}
	if !c.flags.Has(Write) {
		return fserr.New(op, c.name, fserr.NonWritableChannel)
	}
	return nil
}

func (c *Channel) checkOffset(op string, off int64) error {
	if off < 0 {
		return fserr.Newf(op, c.name, fserr.IllegalArgument,
			"negative offset %d", off)
	}
	return nil
}

// checkEnd rejects writes whose end would overflow the largest
// content a slice can hold.
func (c *Channel) checkEnd(op string, off int64, bufs [][]byte) error {
	var total int64
	for _, buf := range bufs {
		total += int64(len(buf))
	}
	if off > int64(math.MaxInt)-total {
		return fserr.Newf(op, c.name, fserr.IllegalArgument,
			"writing %d bytes at offset %d overflows", total, off)
	}
	return nil
}

// readVecAt drains the content into bufs in order starting at
// off. It returns io.EOF only when off is at or past the end.
func (c *Content) readVecAt(bufs [][]byte, off int64) (int64, error) {
	if off >= int64(len(c.data)) {
		return 0, io.EOF
	}
	var total int64
	for _, buf := range bufs {
		n := c.readAt(buf, off+total)
		total += int64(n)
		if n < len(buf) {
			break
		}
	}
	return total, nil
}

func (c *Content) writeVecAt(bufs [][]byte, off int64) int64 {
	var total int64
	for _, buf := range bufs {
		total += int64(c.writeAt(buf, off+total))
	}
	return total
}

// Read reads from the current position and advances it.
func (c *Channel) Read(p []byte) (int, error) {
	n, err := c.ReadVec([][]byte{p})
	return int(n), err
}

// ReadVec scatters the content at the current position into
// bufs, filling each one before moving to the next.
func (c *Channel) ReadVec(bufs [][]byte) (int64, error) {
	if err := c.ensureReadable("read"); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	n, err := c.content.readVecAt(bufs, c.pos)
	c.pos += n
	return n, err
}

// ReadAt reads at off without moving the position. Following
// io.ReaderAt, a short read returns io.EOF.
func (c *Channel) ReadAt(p []byte, off int64) (int, error) {
	if err := c.ensureReadable("read"); err != nil {
		return 0, err
	}
	if err := c.checkOffset("read", off); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	n := c.content.readAt(p, off)
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadVecAt is the scatter variant of ReadAt. It returns io.EOF
// only when off is at or past the end of the content.
func (c *Channel) ReadVecAt(bufs [][]byte, off int64) (int64, error) {
	if err := c.ensureReadable("read"); err != nil {
		return 0, err
	}
	if err := c.checkOffset("read", off); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	return c.content.readVecAt(bufs, off)
}

// Write writes at the current position and advances it. In
// append mode the position is moved to the end first.
func (c *Channel) Write(p []byte) (int, error) {
	n, err := c.WriteVec([][]byte{p})
	return int(n), err
}

// WriteVec gathers bufs in order and writes them at the current
// position, which is moved to the end first in append mode.
func (c *Channel) WriteVec(bufs [][]byte) (int64, error) {
	if err := c.ensureWritable("write"); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	if c.flags.Has(Append) {
		c.pos = int64(len(c.content.data))
	}
	if err := c.checkEnd("write", c.pos, bufs); err != nil {
		return 0, err
	}
	n := c.content.writeVecAt(bufs, c.pos)
	c.pos += n
	return n, nil
}

// WriteAt writes at off without moving the position, filling
// any gap past the end with zeros.
func (c *Channel) WriteAt(p []byte, off int64) (int, error) {
	n, err := c.WriteVecAt([][]byte{p}, off)
	return int(n), err
}

// WriteVecAt is the gather variant of WriteAt.
func (c *Channel) WriteVecAt(bufs [][]byte, off int64) (int64, error) {
	if err := c.ensureWritable("write"); err != nil {
		return 0, err
	}
	if err := c.checkOffset("write", off); err != nil {
		return 0, err
	}
	if err := c.checkEnd("write", off, bufs); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	return c.content.writeVecAt(bufs, off), nil
}

// Position returns the current position.
func (c *Channel) Position() (int64, error) {
	if err := c.ensureOpen("position"); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	return c.pos, nil
}

// SetPosition moves the position, which may lie past the end.
func (c *Channel) SetPosition(pos int64) error {
	if err := c.ensureOpen("position"); err != nil {
		return err
	}
	if pos < 0 {
		return fserr.Newf("position", c.name, fserr.IllegalArgument,
			"position must not be negative, got %d", pos)
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	c.pos = pos
	return nil
}

// Seek implements io.Seeker over the channel position.
func (c *Channel) Seek(offset int64, whence int) (int64, error) {
	if err := c.ensureOpen("seek"); err != nil {
		return 0, err
	}
	c.content.mu.Lock()
	defer c.content.mu.Unlock()
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = c.pos + offset
	case io.SeekEnd:
		pos = int64(len(c.content.data)) + offset
	default:
		return 0, fserr.Newf("seek", c.name, fserr.IllegalArgument,
			"invalid whence %d", whence)
	}
	if pos < 0 {
		return 0, fserr.Newf("seek", c.name, fserr.IllegalArgument,
			"negative position %d", pos)
	}
	c.pos = pos
	return pos, nil
}

// Size returns the size of the shared content.
func (c *Channel) Size() (int64, error) {
	if err := c.ensureOpen("size"); err != nil {
		return 0, err
	}
	return c.content.Size(), nil
}

// Truncate is not supported by in-memory files. Writability is
// still checked first so that a read-only channel reports so.
func (c *Channel) Truncate(size int64) error {
	if err := c.ensureWritable("truncate"); err != nil {
		return err
	}
	return fserr.New("truncate", c.name, fserr.UnsupportedOperation)
}

// Sync is a no-op as the content is never persisted.
func (c *Channel) Sync() error {
	return c.ensureOpen("sync")
}

// IsOpen reports whether the channel has not been closed.
func (c *Channel) IsOpen() bool {
	return !c.closed.Load()
}

// Close marks the channel as closed. Closing other channels on
// the same file is not affected, and closing twice is harmless.
func (c *Channel) Close() error {
	c.closed.Store(true)
	return nil
}
