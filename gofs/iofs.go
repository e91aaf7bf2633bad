package gofs

import (
	"io"
	iofs "io/fs"
	"path"
	"strings"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fserr"
)

// FS is the read-only io/fs view of a directory. Errors are
// reported as *fs.PathError and match the fs.Err* sentinels.
type FS struct {
	inner *fileSystem
}

var (
	_ iofs.FS         = (*FS)(nil)
	_ iofs.ReadDirFS  = (*FS)(nil)
	_ iofs.ReadFileFS = (*FS)(nil)
	_ iofs.StatFS     = (*FS)(nil)
)

// NewFS returns the io/fs view of the directory at root.
func NewFS(root memns.Path) *FS {
	return &FS{inner: &fileSystem{fs: root.FileSystem(), root: root}}
}

func (f *FS) resolve(op, name string) (memns.Path, error) {
	if !iofs.ValidPath(name) {
		return memns.Path{}, &iofs.PathError{
			Op: op, Path: name, Err: iofs.ErrInvalid}
	}
	if name == "." {
		return f.inner.root, nil
	}
	p, err := f.inner.root.Join(strings.Split(name, "/")...)
	if err != nil {
		return memns.Path{}, &iofs.PathError{Op: op, Path: name, Err: err}
	}
	return p, nil
}

func (f *FS) Open(name string) (iofs.File, error) {
	p, err := f.resolve("open", name)
	if err != nil {
		return nil, err
	}
	ch, err := f.inner.fs.OpenFile(p, memns.OpenRead)
	if err == nil {
		return &ioFile{ch: ch, name: path.Base(name), path: p, fs: f.inner}, nil
	}
	if !fserr.Is(err, fserr.NotARegularFile) {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: err}
	}
	info, err := f.inner.stat(p)
	if err != nil {
		return nil, &iofs.PathError{Op: "open", Path: name, Err: err}
	}
	info.name = path.Base(name)
	return &ioDir{dirFile: &dirFile{fs: f.inner, path: p, info: info}}, nil
}

func (f *FS) Stat(name string) (iofs.FileInfo, error) {
	p, err := f.resolve("stat", name)
	if err != nil {
		return nil, err
	}
	info, err := f.inner.stat(p)
	if err != nil {
		return nil, &iofs.PathError{Op: "stat", Path: name, Err: err}
	}
	info.name = path.Base(name)
	return info, nil
}

func (f *FS) ReadDir(name string) ([]iofs.DirEntry, error) {
	p, err := f.resolve("readdir", name)
	if err != nil {
		return nil, err
	}
	infos, err := listDir(f.inner.fs, p)
	if err != nil {
		return nil, &iofs.PathError{Op: "readdir", Path: name, Err: err}
	}
	return dirEntries(infos), nil
}

func (f *FS) ReadFile(name string) ([]byte, error) {
	p, err := f.resolve("readfile", name)
	if err != nil {
		return nil, err
	}
	data, err := f.inner.fs.ReadFile(p)
	if err != nil {
		return nil, &iofs.PathError{Op: "readfile", Path: name, Err: err}
	}
	return data, nil
}

func dirEntries(infos []*fileInfo) []iofs.DirEntry {
	entries := make([]iofs.DirEntry, len(infos))
	for i, info := range infos {
		entries[i] = info
	}
	return entries
}

// ioFile is a regular file opened for reading. It keeps the
// seeking and positional reads of the channel.
type ioFile struct {
	ch   *memns.Channel
	name string
	path memns.Path
	fs   *fileSystem
}

func (f *ioFile) Read(p []byte) (int, error) {
	return f.ch.Read(p)
}

func (f *ioFile) ReadAt(p []byte, off int64) (int, error) {
	return f.ch.ReadAt(p, off)
}

func (f *ioFile) Seek(offset int64, whence int) (int64, error) {
	return f.ch.Seek(offset, whence)
}

func (f *ioFile) Close() error {
	return f.ch.Close()
}

func (f *ioFile) Stat() (iofs.FileInfo, error) {
	info, err := f.fs.stat(f.path)
	if err != nil {
		return nil, err
	}
	info.name = f.name
	return info, nil
}

type ioDir struct {
	*dirFile
}

var _ iofs.ReadDirFile = (*ioDir)(nil)

func (d *ioDir) ReadDir(n int) ([]iofs.DirEntry, error) {
	infos, err := d.next(n)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(infos) == 0 {
		return nil, io.EOF
	}
	return dirEntries(infos), nil
}
