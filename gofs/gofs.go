package gofs

import (
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fserr"
)

type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.WriterAt
	io.Seeker

	Readdir(count int) ([]os.FileInfo, error)
	Stat() (os.FileInfo, error)
	Sync() error
	Truncate(size int64) error
}

type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Mkdir(name string, perm os.FileMode) error
	Stat(name string) (os.FileInfo, error)
	Rename(source, target string) error
	Remove(name string) error
}

type fileSystem struct {
	fs   *memns.FileSystem
	root memns.Path
}

// New returns the os-style view of the directory at root.
func New(root memns.Path) FileSystem {
	return &fileSystem{fs: root.FileSystem(), root: root}
}

// cleanFilePath turns a slash or host separated name into the
// names below the root, dropping every "." and "..".
func cleanFilePath(name string) []string {
	name = filepath.ToSlash(name)
	name = path.Clean("/" + name)
	if name == "/" {
		return nil
	}
	return strings.Split(name[1:], "/")
}

func (fs *fileSystem) resolve(name string) (memns.Path, error) {
	return fs.root.Join(cleanFilePath(name)...)
}

// flagsFromOS translates the os.O_* flags into open options.
func flagsFromOS(flag int) (memns.OpenFlag, error) {
	var flags memns.OpenFlag
	switch flag & (os.O_RDONLY | os.O_WRONLY | os.O_RDWR) {
	case os.O_RDONLY:
		flags = memns.OpenRead
	case os.O_WRONLY:
		flags = memns.OpenWrite
	case os.O_RDWR:
		flags = memns.OpenRead | memns.OpenWrite
	default:
		return 0, errors.Wrapf(fserr.IllegalArgument,
			"invalid access mode %#x", flag)
	}
	if flag&os.O_APPEND != 0 {
		flags |= memns.OpenAppend
	}
	if flag&os.O_CREATE != 0 {
		flags |= memns.OpenCreate
		if flag&os.O_EXCL != 0 {
			flags |= memns.OpenCreateNew
		}
	}
	if flag&os.O_TRUNC != 0 {
		flags |= memns.OpenTruncateExisting
	}
	if flag&os.O_SYNC != 0 {
		flags |= memns.OpenSync
	}
	return flags, flags.Validate()
}

func (fs *fileSystem) OpenFile(
	name string, flag int, perm os.FileMode,
) (File, error) {
	p, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	flags, err := flagsFromOS(flag)
	if err != nil {
		return nil, fserr.WithOp("open", p.String(), err)
	}

	// Read only creation is allowed by the os flags but not by
	// the channel, so create the file ahead of opening it.
	if flags.Has(memns.OpenCreate) && !flags.Has(memns.OpenWrite) {
		err := fs.fs.CreateFile(p)
		switch {
		case err == nil:
		case fserr.Is(err, fserr.AlreadyExists):
			if flags.Has(memns.OpenCreateNew) {
				return nil, err
			}
		default:
			return nil, err
		}
		flags &^= memns.OpenCreate | memns.OpenCreateNew
	}

	ch, err := fs.fs.OpenFile(p, flags)
	if err == nil {
		return &regularFile{fs: fs, path: p, ch: ch}, nil
	}
	if !fserr.Is(err, fserr.NotARegularFile) {
		return nil, err
	}

	// Directories can only be opened for listing.
	if flags.HasAny(memns.OpenWrite|memns.OpenAppend) ||
		flags.Has(memns.OpenCreateNew) {
		return nil, err
	}
	attrs, statErr := fs.fs.ReadAttributes(p)
	if statErr != nil {
		return nil, statErr
	}
	if !attrs.IsDirectory() {
		return nil, err
	}
	return &dirFile{fs: fs, path: p, info: newFileInfo(baseName(p), attrs)}, nil
}

func (fs *fileSystem) Mkdir(name string, perm os.FileMode) error {
	p, err := fs.resolve(name)
	if err != nil {
		return err
	}
	return fs.fs.CreateDirectory(p)
}

func (fs *fileSystem) stat(p memns.Path) (*fileInfo, error) {
	attrs, err := fs.fs.ReadAttributes(p)
	if err != nil {
		return nil, err
	}
	return newFileInfo(baseName(p), attrs), nil
}

func (fs *fileSystem) Stat(name string) (os.FileInfo, error) {
	p, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	info, err := fs.stat(p)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Rename replaces an existing target file, the way os.Rename does.
func (fs *fileSystem) Rename(source, target string) error {
	src, err := fs.resolve(source)
	if err != nil {
		return err
	}
	dst, err := fs.resolve(target)
	if err != nil {
		return err
	}
	return fs.fs.Move(src, dst, memns.ReplaceExisting)
}

func (fs *fileSystem) Remove(name string) error {
	p, err := fs.resolve(name)
	if err != nil {
		return err
	}
	return fs.fs.Delete(p)
}
