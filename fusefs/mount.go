//go:build linux

package fusefs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"syscall"
	"time"

	"github.com/pkg/errors"
	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"golang.org/x/sys/unix"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/gofs"
)

type option struct {
	logger         *slog.Logger
	fileSystemName string
	allowOther     bool
	debug          bool
}

func newOption() *option {
	return &option{
		fileSystemName: "memns",
	}
}

// Option is the options that could be passed to mount.
type Option func(*option)

// WithLogger sets the logger receiving failed requests at debug
// level. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *option) {
		o.logger = logger
	}
}

// FileSystemName sets the file system's type for display.
func FileSystemName(value string) Option {
	return func(o *option) {
		o.fileSystemName = value
	}
}

// AllowOther permits other users to access the mount. It requires
// user_allow_other in /etc/fuse.conf.
func AllowOther(value bool) Option {
	return func(o *option) {
		o.allowOther = value
	}
}

// Debug makes go-fuse trace every request.
func Debug(value bool) Option {
	return func(o *option) {
		o.debug = value
	}
}

// Options is used to aggregate a bundle of options.
func Options(opts ...Option) Option {
	return func(o *option) {
		for _, opt := range opts {
			opt(o)
		}
	}
}

// openMask is the part of the open flags forwarded to the file
// system. The kernel handles the rest.
const openMask = os.O_RDONLY | os.O_WRONLY | os.O_RDWR |
	os.O_APPEND | os.O_TRUNC | os.O_SYNC

type mount struct {
	fs     gofs.FileSystem
	logger *slog.Logger
}

// Mount serves fs at mountpoint until the returned server is
// unmounted. The mountpoint is created if it does not exist.
func Mount(
	fs gofs.FileSystem, mountpoint string, opts ...Option,
) (*fuse.Server, error) {
	option := newOption()
	Options(opts...)(option)
	logger := option.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := os.MkdirAll(mountpoint, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create mountpoint %q", mountpoint)
	}

	m := &mount{fs: fs, logger: logger}
	entryTimeout := time.Second
	attrTimeout := time.Second
	negativeTimeout := 100 * time.Millisecond
	server, err := gofuse.Mount(mountpoint, &node{mount: m}, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     option.fileSystemName,
			Name:       "memns",
			AllowOther: option.allowOther,
			Debug:      option.debug,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "mount %q", mountpoint)
	}
	logger.Info("file system mounted", "mountpoint", mountpoint)
	return server, nil
}

func (m *mount) errno(op, name string, err error) syscall.Errno {
	errno := fserr.Errno(err)
	m.logger.Debug("request failed",
		"op", op, "path", name, "errno", errno, "error", err)
	return errno
}

// inodeOf maps the object key onto an inode number. Keys start at
// 1, which is the inode of the mount root, so they are shifted.
func inodeOf(info os.FileInfo) uint64 {
	if attrs, ok := info.Sys().(memns.Attributes); ok {
		return attrs.FileKey + 1
	}
	return 0
}

func modeOf(info os.FileInfo) uint32 {
	if info.IsDir() {
		return syscall.S_IFDIR | uint32(info.Mode().Perm())
	}
	return syscall.S_IFREG | uint32(info.Mode().Perm())
}

func fillAttr(info os.FileInfo, out *fuse.Attr) {
	out.Ino = inodeOf(info)
	out.Size = uint64(info.Size())
	out.Blocks = (out.Size + 511) / 512
	out.Mode = modeOf(info)
	out.Nlink = 1
	mtime := info.ModTime()
	out.SetTimes(&mtime, &mtime, &mtime)
}

func stableAttr(info os.FileInfo) gofuse.StableAttr {
	return gofuse.StableAttr{
		Mode: modeOf(info) & syscall.S_IFMT,
		Ino:  inodeOf(info),
	}
}

type node struct {
	gofuse.Inode
	mount *mount
}

var (
	_ gofuse.InodeEmbedder = (*node)(nil)
	_ gofuse.NodeLookuper  = (*node)(nil)
	_ gofuse.NodeGetattrer = (*node)(nil)
	_ gofuse.NodeSetattrer = (*node)(nil)
	_ gofuse.NodeReaddirer = (*node)(nil)
	_ gofuse.NodeMkdirer   = (*node)(nil)
	_ gofuse.NodeCreater   = (*node)(nil)
	_ gofuse.NodeOpener    = (*node)(nil)
	_ gofuse.NodeUnlinker  = (*node)(nil)
	_ gofuse.NodeRmdirer   = (*node)(nil)
	_ gofuse.NodeRenamer   = (*node)(nil)
)

// name is the slash separated name of the node, or of its member
// when member is not empty.
func (n *node) name(member string) string {
	return path.Join("/", n.Path(n.Root()), member)
}

func (n *node) newChild(
	ctx context.Context, info os.FileInfo, out *fuse.EntryOut,
) *gofuse.Inode {
	fillAttr(info, &out.Attr)
	return n.NewInode(ctx, &node{mount: n.mount}, stableAttr(info))
}

func (n *node) Lookup(
	ctx context.Context, name string, out *fuse.EntryOut,
) (*gofuse.Inode, syscall.Errno) {
	target := n.name(name)
	info, err := n.mount.fs.Stat(target)
	if err != nil {
		if fserr.Is(err, fserr.NotFound) {
			return nil, syscall.ENOENT
		}
		return nil, n.mount.errno("lookup", target, err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Getattr(
	ctx context.Context, f gofuse.FileHandle, out *fuse.AttrOut,
) syscall.Errno {
	target := n.name("")
	info, err := n.mount.fs.Stat(target)
	if err != nil {
		return n.mount.errno("getattr", target, err)
	}
	fillAttr(info, &out.Attr)
	return 0
}

// Setattr only honours size changes. Modes, owners and times are
// fixed and silently kept.
func (n *node) Setattr(
	ctx context.Context, f gofuse.FileHandle,
	in *fuse.SetAttrIn, out *fuse.AttrOut,
) syscall.Errno {
	target := n.name("")
	if size, ok := in.GetSize(); ok {
		if err := n.truncate(target, f, int64(size)); err != nil {
			return n.mount.errno("truncate", target, err)
		}
	}
	return n.Getattr(ctx, f, out)
}

func (n *node) truncate(target string, f gofuse.FileHandle, size int64) error {
	if h, ok := f.(*handle); ok {
		return h.file.Truncate(size)
	}
	file, err := n.mount.fs.OpenFile(target, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer file.Close()
	return file.Truncate(size)
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	target := n.name("")
	dir, err := n.mount.fs.OpenFile(target, os.O_RDONLY, 0)
	if err != nil {
		return nil, n.mount.errno("readdir", target, err)
	}
	defer dir.Close()
	infos, err := dir.Readdir(-1)
	if err != nil {
		return nil, n.mount.errno("readdir", target, err)
	}
	entries := make([]fuse.DirEntry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, fuse.DirEntry{
			Name: info.Name(),
			Mode: modeOf(info),
			Ino:  inodeOf(info),
		})
	}
	return gofuse.NewListDirStream(entries), 0
}

func (n *node) Mkdir(
	ctx context.Context, name string, mode uint32, out *fuse.EntryOut,
) (*gofuse.Inode, syscall.Errno) {
	target := n.name(name)
	if err := n.mount.fs.Mkdir(target, os.FileMode(mode)); err != nil {
		return nil, n.mount.errno("mkdir", target, err)
	}
	info, err := n.mount.fs.Stat(target)
	if err != nil {
		return nil, n.mount.errno("mkdir", target, err)
	}
	return n.newChild(ctx, info, out), 0
}

func (n *node) Create(
	ctx context.Context, name string, flags, mode uint32,
	out *fuse.EntryOut,
) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	target := n.name(name)
	openFlags := int(flags)&openMask | os.O_CREATE
	if int(flags)&os.O_EXCL != 0 {
		openFlags |= os.O_EXCL
	}
	file, err := n.mount.fs.OpenFile(target, openFlags, os.FileMode(mode))
	if err != nil {
		return nil, nil, 0, n.mount.errno("create", target, err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, nil, 0, n.mount.errno("create", target, err)
	}
	h := newHandle(n.mount, target, file, openFlags)
	return n.newChild(ctx, info, out), h, 0, 0
}

func (n *node) Open(
	ctx context.Context, flags uint32,
) (gofuse.FileHandle, uint32, syscall.Errno) {
	target := n.name("")
	openFlags := int(flags) & openMask
	file, err := n.mount.fs.OpenFile(target, openFlags, 0)
	if err != nil {
		return nil, 0, n.mount.errno("open", target, err)
	}
	return newHandle(n.mount, target, file, openFlags), 0, 0
}

func (n *node) remove(op, name string, wantDir bool) syscall.Errno {
	target := n.name(name)
	info, err := n.mount.fs.Stat(target)
	if err != nil {
		return n.mount.errno(op, target, err)
	}
	switch {
	case wantDir && !info.IsDir():
		return syscall.ENOTDIR
	case !wantDir && info.IsDir():
		return syscall.EISDIR
	}
	if err := n.mount.fs.Remove(target); err != nil {
		return n.mount.errno(op, target, err)
	}
	return 0
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return n.remove("unlink", name, false)
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return n.remove("rmdir", name, true)
}

func (n *node) Rename(
	ctx context.Context, name string,
	newParent gofuse.InodeEmbedder, newName string, flags uint32,
) syscall.Errno {
	source := n.name(name)
	target := path.Join("/",
		newParent.EmbeddedInode().Path(n.Root()), newName)
	if flags&unix.RENAME_EXCHANGE != 0 {
		return syscall.EINVAL
	}
	if flags&unix.RENAME_NOREPLACE != 0 {
		if _, err := n.mount.fs.Stat(target); err == nil {
			return syscall.EEXIST
		}
	}
	if err := n.mount.fs.Rename(source, target); err != nil {
		return n.mount.errno("rename", source, err)
	}
	return 0
}

// handle is an opened regular file.
type handle struct {
	mount  *mount
	name   string
	file   gofs.File
	append bool
}

var (
	_ gofuse.FileHandle   = (*handle)(nil)
	_ gofuse.FileReader   = (*handle)(nil)
	_ gofuse.FileWriter   = (*handle)(nil)
	_ gofuse.FileFlusher  = (*handle)(nil)
	_ gofuse.FileFsyncer  = (*handle)(nil)
	_ gofuse.FileReleaser = (*handle)(nil)
)

func newHandle(m *mount, name string, file gofs.File, flags int) *handle {
	return &handle{
		mount:  m,
		name:   name,
		file:   file,
		append: flags&os.O_APPEND != 0,
	}
}

func (h *handle) Read(
	ctx context.Context, dest []byte, off int64,
) (fuse.ReadResult, syscall.Errno) {
	n, err := h.file.ReadAt(dest, off)
	if err != nil && err != io.EOF {
		return nil, h.mount.errno("read", h.name, err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

// Write ignores the offset in append mode, the file moves to its
// end before each write.
func (h *handle) Write(
	ctx context.Context, data []byte, off int64,
) (uint32, syscall.Errno) {
	var n int
	var err error
	if h.append {
		n, err = h.file.Write(data)
	} else {
		n, err = h.file.WriteAt(data, off)
	}
	if err != nil {
		return uint32(n), h.mount.errno("write", h.name, err)
	}
	return uint32(n), 0
}

func (h *handle) Flush(ctx context.Context) syscall.Errno {
	return 0
}

func (h *handle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	if err := h.file.Sync(); err != nil {
		return h.mount.errno("fsync", h.name, err)
	}
	return 0
}

func (h *handle) Release(ctx context.Context) syscall.Errno {
	if err := h.file.Close(); err != nil {
		return h.mount.errno("release", h.name, err)
	}
	return 0
}
