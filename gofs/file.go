package gofs

import (
	"io"
	"os"
	"sync"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fserr"
)

type regularFile struct {
	fs   *fileSystem
	path memns.Path
	ch   *memns.Channel
}

var _ File = (*regularFile)(nil)

func (f *regularFile) Read(p []byte) (int, error) {
	return f.ch.Read(p)
}

func (f *regularFile) ReadAt(p []byte, off int64) (int, error) {
	return f.ch.ReadAt(p, off)
}

func (f *regularFile) Write(p []byte) (int, error) {
	return f.ch.Write(p)
}

func (f *regularFile) WriteAt(p []byte, off int64) (int, error) {
	return f.ch.WriteAt(p, off)
}

func (f *regularFile) Seek(offset int64, whence int) (int64, error) {
	return f.ch.Seek(offset, whence)
}

func (f *regularFile) Sync() error {
	return f.ch.Sync()
}

func (f *regularFile) Close() error {
	return f.ch.Close()
}

func (f *regularFile) Readdir(count int) ([]os.FileInfo, error) {
	return nil, fserr.New("readdir", f.path.String(), fserr.NotADirectory)
}

func (f *regularFile) Stat() (os.FileInfo, error) {
	if !f.ch.IsOpen() {
		return nil, fserr.New("stat", f.path.String(), fserr.ClosedChannel)
	}
	info, err := f.fs.stat(f.path)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Truncate supports emptying the file only, any other size is
// rejected by the channel.
func (f *regularFile) Truncate(size int64) error {
	if size != 0 || !f.ch.IsOpen() ||
		!f.ch.Flags().Has(memns.OpenWrite) {
		return f.ch.Truncate(size)
	}
	ch, err := f.fs.fs.OpenFile(f.path,
		memns.OpenWrite|memns.OpenTruncateExisting)
	if err != nil {
		return err
	}
	return ch.Close()
}

// dirFile is an opened directory. Its listing is read on the
// first call to Readdir and consumed by the following ones.
type dirFile struct {
	fs   *fileSystem
	path memns.Path
	info *fileInfo

	mtx     sync.Mutex
	entries []*fileInfo
	loaded  bool
	closed  bool
}

var _ File = (*dirFile)(nil)

func (d *dirFile) notRegular(op string) error {
	return fserr.New(op, d.path.String(), fserr.NotARegularFile)
}

func (d *dirFile) Read(p []byte) (int, error) {
	return 0, d.notRegular("read")
}

func (d *dirFile) ReadAt(p []byte, off int64) (int, error) {
	return 0, d.notRegular("read")
}

func (d *dirFile) Write(p []byte) (int, error) {
	return 0, d.notRegular("write")
}

func (d *dirFile) WriteAt(p []byte, off int64) (int, error) {
	return 0, d.notRegular("write")
}

func (d *dirFile) Seek(offset int64, whence int) (int64, error) {
	return 0, d.notRegular("seek")
}

func (d *dirFile) Truncate(size int64) error {
	return d.notRegular("truncate")
}

func (d *dirFile) Sync() error {
	return nil
}

func (d *dirFile) Stat() (os.FileInfo, error) {
	return d.info, nil
}

func (d *dirFile) Close() error {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.closed = true
	return nil
}

// next pops up to count entries, every remaining one when count
// is not positive. It follows os.File.Readdir: io.EOF is only
// reported to a positive count once nothing is left.
func (d *dirFile) next(count int) ([]*fileInfo, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	if d.closed {
		return nil, fserr.New("readdir", d.path.String(), fserr.ClosedChannel)
	}
	if !d.loaded {
		entries, err := listDir(d.fs.fs, d.path)
		if err != nil {
			return nil, err
		}
		d.entries, d.loaded = entries, true
	}
	if count <= 0 || count > len(d.entries) {
		count = len(d.entries)
	}
	result := d.entries[:count:count]
	d.entries = d.entries[count:]
	return result, nil
}

func (d *dirFile) Readdir(count int) ([]os.FileInfo, error) {
	entries, err := d.next(count)
	if err != nil {
		return nil, err
	}
	if count > 0 && len(entries) == 0 {
		return nil, io.EOF
	}
	infos := make([]os.FileInfo, len(entries))
	for i, entry := range entries {
		infos[i] = entry
	}
	return infos, nil
}
