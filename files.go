package memns

import (
	"io"
	iofs "io/fs"

	"github.com/pkg/errors"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/objstore"
)

// CreateFile creates an empty regular file at p, failing if
// anything exists there already.
func (fs *FileSystem) CreateFile(p Path) error {
	ch, err := fs.OpenFile(p, OpenCreateNew|OpenWrite)
	if err != nil {
		return err
	}
	return ch.Close()
}

// CreateDirectories creates the directory at p along with every
// missing ancestor. Existing directories are accepted, while any
// other object in the way fails with ErrAlreadyExists.
func (fs *FileSystem) CreateDirectories(p Path) error {
	store, canonical, err := fs.locate("mkdir", p)
	if err != nil {
		return err
	}
	for i := 1; i <= len(canonical.names); i++ {
		names := canonical.names[:i]
		obj, _, err := store.LookupOrCreate(names, objstore.Directory)
		if err != nil {
			return err
		}
		if !obj.IsDir() {
			return fserr.Newf("mkdir", p.String(), fserr.AlreadyExists,
				"%s exists and is not a directory",
				canonical.withNames(names).String())
		}
	}
	return nil
}

// ReadFile returns the whole content of the regular file at p.
func (fs *FileSystem) ReadFile(p Path) ([]byte, error) {
	ch, err := fs.OpenFile(p, OpenRead)
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	data, err := io.ReadAll(ch)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", p)
	}
	return data, nil
}

// WriteFile replaces the content of the regular file at p,
// creating it when it is missing.
func (fs *FileSystem) WriteFile(p Path, data []byte) error {
	ch, err := fs.OpenFile(p, OpenCreate|OpenTruncateExisting|OpenWrite)
	if err != nil {
		return err
	}
	defer ch.Close()
	if _, err := ch.Write(data); err != nil {
		return errors.Wrapf(err, "write %s", p)
	}
	return nil
}

// WalkFunc is called for every object visited by Walk. Returning
// io/fs.SkipDir from a directory skips its members, and any other
// error stops the walk.
type WalkFunc func(p Path, attrs Attributes) error

// Walk visits the subtree at root depth first, calling fn for a
// directory before its members, and members in name order.
// Members removed while walking are skipped.
func (fs *FileSystem) Walk(root Path, fn WalkFunc) error {
	err := fs.walk(root, fn, true)
	if errors.Is(err, iofs.SkipDir) || errors.Is(err, iofs.SkipAll) {
		return nil
	}
	return err
}

func (fs *FileSystem) walk(p Path, fn WalkFunc, top bool) error {
	attrs, err := fs.ReadAttributes(p)
	if err != nil {
		if !top && fserr.Is(err, fserr.NotFound) {
			return nil
		}
		return err
	}
	if err := fn(p, attrs); err != nil {
		if errors.Is(err, iofs.SkipDir) && attrs.IsDirectory() {
			return nil
		}
		return err
	}
	if !attrs.IsDirectory() {
		return nil
	}
	names, err := fs.ReadDirNames(p)
	if err != nil {
		return err
	}
	for _, name := range names {
		member, err := p.Join(name)
		if err != nil {
			return err
		}
		if err := fs.walk(member, fn, false); err != nil {
			if errors.Is(err, iofs.SkipDir) {
				return nil
			}
			return err
		}
	}
	return nil
}
