package gofs

import (
	iofs "io/fs"
	"time"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fserr"
)

const (
	dirMode  = iofs.ModeDir | 0o755
	fileMode = iofs.FileMode(0o644)
)

// fileInfo is both the os.FileInfo and the fs.DirEntry of an
// object. Sys returns the memns.Attributes it was built from.
type fileInfo struct {
	name  string
	attrs memns.Attributes
}

func newFileInfo(name string, attrs memns.Attributes) *fileInfo {
	return &fileInfo{name: name, attrs: attrs}
}

// baseName is the last name of p, or the separator for a root.
func baseName(p memns.Path) string {
	if name, ok := p.FileName(); ok {
		return name.String()
	}
	return p.String()
}

func (fi *fileInfo) Name() string { return fi.name }
func (fi *fileInfo) Size() int64  { return fi.attrs.Size }

func (fi *fileInfo) Mode() iofs.FileMode {
	if fi.attrs.IsDirectory() {
		return dirMode
	}
	return fileMode
}

func (fi *fileInfo) ModTime() time.Time { return fi.attrs.LastModifiedTime }
func (fi *fileInfo) IsDir() bool        { return fi.attrs.IsDirectory() }
func (fi *fileInfo) Sys() interface{}   { return fi.attrs }

func (fi *fileInfo) Type() iofs.FileMode {
	return fi.Mode().Type()
}

func (fi *fileInfo) Info() (iofs.FileInfo, error) {
	return fi, nil
}

func (fi *fileInfo) String() string {
	return iofs.FormatFileInfo(fi)
}

var (
	_ iofs.FileInfo = (*fileInfo)(nil)
	_ iofs.DirEntry = (*fileInfo)(nil)
)

// listDir reads the attributes of every member of dir. Members
// removed while listing are left out.
func listDir(fs *memns.FileSystem, dir memns.Path) ([]*fileInfo, error) {
	names, err := fs.ReadDirNames(dir)
	if err != nil {
		return nil, err
	}
	infos := make([]*fileInfo, 0, len(names))
	for _, name := range names {
		member, err := dir.Join(name)
		if err != nil {
			return nil, err
		}
		attrs, err := fs.ReadAttributes(member)
		if err != nil {
			if fserr.Is(err, fserr.NotFound) {
				continue
			}
			return nil, err
		}
		infos = append(infos, newFileInfo(name, attrs))
	}
	return infos, nil
}
