package memns

import (
	"iter"
	"slices"
	"sync"
)

// DirStream iterates the members of a directory as they were
// when the stream was opened. It is lazy and cannot be restarted:
// Next and All share one cursor.
type DirStream struct {
	dir    Path
	names  []string
	filter func(Path) bool

	mu     sync.Mutex
	next   int
	closed bool
}

// ReadDir opens a stream over the members of the directory at
// dir, resolved against dir. Members for which filter returns
// false are skipped, a nil filter accepts every member.
func (fs *FileSystem) ReadDir(dir Path, filter func(Path) bool) (*DirStream, error) {
	store, canonical, err := fs.locate("readdir", dir)
	if err != nil {
		return nil, err
	}
	names, err := store.List(canonical.names)
	if err != nil {
		return nil, err
	}
	return &DirStream{dir: dir, names: names, filter: filter}, nil
}

// Next returns the next accepted member, or false once the
// stream is exhausted or closed.
func (d *DirStream) Next() (Path, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for !d.closed && d.next < len(d.names) {
		name := d.names[d.next]
		d.next++
		member := d.dir.withNames(slices.Concat(d.dir.names, []string{name}))
		if d.filter == nil || d.filter(member) {
			return member, true
		}
	}
	return Path{}, false
}

// All yields the remaining members.
func (d *DirStream) All() iter.Seq[Path] {
	return func(yield func(Path) bool) {
		for {
			member, ok := d.Next()
			if !ok || !yield(member) {
				return
			}
		}
	}
}

// Close ends the stream, it is safe to call it more than once.
func (d *DirStream) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// ReadDirNames is a shortcut returning the sorted member names of
// the directory at dir.
func (fs *FileSystem) ReadDirNames(dir Path) ([]string, error) {
	store, canonical, err := fs.locate("readdir", dir)
	if err != nil {
		return nil, err
	}
	names, err := store.List(canonical.names)
	if err != nil {
		return nil, err
	}
	return slices.Clone(names), nil
}
