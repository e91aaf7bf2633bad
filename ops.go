package memns

import (
	"slices"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/memfile"
	"github.com/aegistudio/go-memns/objstore"
)

// OpenFlag is the set of options a file is opened with.
type OpenFlag = memfile.Flag

const (
	OpenRead             = memfile.Read
	OpenWrite            = memfile.Write
	OpenAppend           = memfile.Append
	OpenCreate           = memfile.Create
	OpenCreateNew        = memfile.CreateNew
	OpenTruncateExisting = memfile.TruncateExisting
	OpenDeleteOnClose    = memfile.DeleteOnClose
	OpenSparse           = memfile.Sparse
	OpenSync             = memfile.Sync
	OpenDSync            = memfile.DSync
)

// Channel is an open regular file.
type Channel = memfile.Channel

// Attributes is the basic attribute set of an object.
type Attributes = objstore.Attributes

// CopyFlag is the set of options of Move and Copy.
type CopyFlag uint32

const (
	ReplaceExisting CopyFlag = 1 << iota
	AtomicMove
)

func (f CopyFlag) Has(g CopyFlag) bool {
	return f&g == g
}

// AccessMode is what CheckAccess is asked to check.
type AccessMode int

const (
	AccessRead AccessMode = iota + 1
	AccessWrite
	AccessExecute
)

// OpenFile opens a channel onto the regular file at p.
//
// A missing file is created only when Create or CreateNew is set
// together with Write. CreateNew fails if the file exists, and
// TruncateExisting empties it when opened for writing.
func (fs *FileSystem) OpenFile(p Path, flags OpenFlag) (*Channel, error) {
	if err := flags.Validate(); err != nil {
		return nil, fserr.WithOp("open", p.String(), err)
	}
	store, canonical, err := fs.locate("open", p)
	if err != nil {
		return nil, err
	}
	obj, ok := store.Lookup(canonical.names)
	switch {
	case ok && flags.Has(OpenCreateNew):
		return nil, fserr.New("open", p.String(), fserr.AlreadyExists)
	case ok:
	case !flags.HasAny(OpenCreate|OpenCreateNew) || !flags.Has(OpenWrite):
		return nil, fserr.New("open", p.String(), fserr.NotFound)
	case flags.Has(OpenCreateNew):
		if obj, err = store.Create(canonical.names, objstore.RegularFile); err != nil {
			return nil, err
		}
	default:
		// Another creator may win, open what it has created.
		if obj, _, err = store.LookupOrCreate(canonical.names, objstore.RegularFile); err != nil {
			return nil, err
		}
	}
	if !obj.IsRegular() {
		return nil, fserr.New("open", p.String(), fserr.NotARegularFile)
	}
	fs.logger.Debug("open", "path", canonical.String(), "flags", flags)
	return memfile.Open(obj.Content(), canonical.String(), flags)
}

// CreateDirectory creates the directory at p, whose parent must
// exist already.
func (fs *FileSystem) CreateDirectory(p Path) error {
	store, canonical, err := fs.locate("mkdir", p)
	if err != nil {
		return err
	}
	_, err = store.Create(canonical.names, objstore.Directory)
	return err
}

// Delete removes the file or empty directory at p.
func (fs *FileSystem) Delete(p Path) error {
	store, canonical, err := fs.locate("delete", p)
	if err != nil {
		return err
	}
	return store.Delete(canonical.names)
}

// DeleteIfExists is Delete treating a missing object as success,
// it reports whether an object was removed.
func (fs *FileSystem) DeleteIfExists(p Path) (bool, error) {
	err := fs.Delete(p)
	if fserr.Is(err, fserr.NotFound) {
		return false, nil
	}
	return err == nil, err
}

// Exists reports whether an object lives at p.
func (fs *FileSystem) Exists(p Path) bool {
	_, _, _, err := fs.lookup("exists", p)
	return err == nil
}

// IsDirectory reports whether a directory lives at p.
func (fs *FileSystem) IsDirectory(p Path) bool {
	_, _, obj, err := fs.lookup("stat", p)
	return err == nil && obj.IsDir()
}

// IsRegularFile reports whether a regular file lives at p.
func (fs *FileSystem) IsRegularFile(p Path) bool {
	_, _, obj, err := fs.lookup("stat", p)
	return err == nil && obj.IsRegular()
}

// ReadAttributes returns the attributes of the object at p.
func (fs *FileSystem) ReadAttributes(p Path) (Attributes, error) {
	_, _, obj, err := fs.lookup("stat", p)
	if err != nil {
		return Attributes{}, err
	}
	return obj.Attributes(), nil
}

// CheckAccess succeeds when an object lives at p. There is no
// permission model, so the modes are not checked any further.
func (fs *FileSystem) CheckAccess(p Path, modes ...AccessMode) error {
	for _, mode := range modes {
		if mode < AccessRead || mode > AccessExecute {
			return fserr.Newf("access", p.String(), fserr.IllegalArgument,
				"unknown access mode %d", mode)
		}
	}
	_, _, _, err := fs.lookup("access", p)
	return err
}

// IsSameFile reports whether a and b locate the same object.
// Paths of different file systems or roots never do.
func (fs *FileSystem) IsSameFile(a, b Path) (bool, error) {
	if a.fs != b.fs {
		return false, nil
	}
	if a.Equal(b) {
		return true, nil
	}
	storeA, _, objA, err := fs.lookup("same", a)
	if err != nil {
		return false, err
	}
	storeB, _, objB, err := fs.lookup("same", b)
	if err != nil {
		return false, err
	}
	return storeA == storeB && objA.ID() == objB.ID(), nil
}

// Copy is not supported.
func (fs *FileSystem) Copy(source, target Path, flags CopyFlag) error {
	return fserr.Newf("copy", source.String(), fserr.UnsupportedOperation,
		"copying is not supported")
}

// Move renames the object at source, with its whole subtree, to
// target.
//
// An existing target that is the same object makes it a no-op.
// Otherwise an existing target is replaced with ReplaceExisting,
// or without it, the object is moved into the target when the
// target is a directory. AtomicMove is only honoured for regular
// files within one instance, and moves between instances are not
// supported.
func (fs *FileSystem) Move(source, target Path, flags CopyFlag) error {
	srcStore, src, srcObj, err := fs.lookup("move", source)
	if err != nil {
		return err
	}
	if len(src.names) == 0 {
		return fserr.Newf("move", source.String(), fserr.UnsupportedOperation,
			"cannot move a root directory")
	}
	if target.fs == nil {
		return fserr.Newf("move", source.String(), fserr.IllegalArgument,
			"invalid target path")
	}
	sameFs := target.fs == fs
	dstStore, dst, err := target.fs.locate("move", target)
	if err != nil {
		return err
	}
	replace := flags.Has(ReplaceExisting)
	dstObj, exists := dstStore.Lookup(dst.names)
	if exists {
		if dstObj == srcObj {
			return nil
		}
		if !dstObj.IsDir() && !replace {
			return fserr.New("move", dst.String(), fserr.AlreadyExists)
		}
		if dstObj.IsDir() && !replace {
			dst = dst.withNames(slices.Concat(dst.names, src.names[len(src.names)-1:]))
			if _, exists = dstStore.Lookup(dst.names); exists {
				return fserr.New("move", dst.String(), fserr.AlreadyExists)
			}
		}
	}
	if flags.Has(AtomicMove) && (srcObj.IsDir() || !sameFs) {
		return fserr.Newf("move", source.String(), fserr.AtomicMoveNotSupported,
			"atomic moves only apply to regular files within one file system")
	}
	if sameFs && srcStore == dstStore && dst.StartsWith(src) {
		return fserr.Newf("move", source.String(), fserr.UnsupportedOperation,
			"cannot move into its own subtree %s", dst.String())
	}
	dstParent, ok := dst.Parent()
	if !ok {
		return fserr.Newf("move", dst.String(), fserr.UnsupportedOperation,
			"cannot replace a root directory")
	}
	parentObj, ok := dstStore.Lookup(dstParent.names)
	if !ok {
		return fserr.New("move", dstParent.String(), fserr.NotFound)
	}
	if !parentObj.IsDir() {
		return fserr.New("move", dstParent.String(), fserr.NotADirectory)
	}
	if !sameFs {
		return fserr.Newf("move", source.String(), fserr.UnsupportedOperation,
			"moving between file systems is not supported")
	}
	if exists && replace {
		if err := dstStore.Delete(dst.names); err != nil {
			return err
		}
	}
	return objstore.Move(srcStore, src.names, srcObj, dstStore, dst.names)
}
