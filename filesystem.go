package memns

import (
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/objstore"
)

// FileSystem is a live namespace instance with one object store
// per declared root.
type FileSystem struct {
	provider   *Provider
	id         string
	host       string
	separator  string
	roots      []string
	matchOrder []string
	stores     map[string]*objstore.Store
	logger     *slog.Logger
	closed     atomic.Bool
}

func newFileSystem(
	provider *Provider, id, host string, config Config,
) *FileSystem {
	fs := &FileSystem{
		provider:  provider,
		id:        id,
		host:      host,
		separator: config.Separator,
		roots:     slices.Clone(config.Roots),
		stores:    make(map[string]*objstore.Store),
		logger:    provider.logger.With("instance", id),
	}

	// Longest first so that nested roots are detected.
	fs.matchOrder = slices.Clone(fs.roots)
	slices.SortFunc(fs.matchOrder, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	for _, root := range fs.roots {
		fs.stores[root] = objstore.New(root,
			objstore.WithLogger(fs.logger),
			objstore.WithFormatter(func(names []string) string {
				return Path{fs: fs, root: root, rooted: true, names: names}.String()
			}),
		)
	}
	return fs
}

// ID returns the id the instance is registered under.
func (fs *FileSystem) ID() string {
	return fs.id
}

func (fs *FileSystem) Provider() *Provider {
	return fs.provider
}

func (fs *FileSystem) Separator() string {
	return fs.separator
}

// URI returns the address of the instance itself.
func (fs *FileSystem) URI() *url.URL {
	return &url.URL{Scheme: Scheme, Host: fs.host, Path: "/"}
}

// RootDirectories returns the roots in declared order.
func (fs *FileSystem) RootDirectories() []Path {
	result := make([]Path, 0, len(fs.roots))
	for _, root := range fs.roots {
		result = append(result, Path{fs: fs, root: root, rooted: true})
	}
	return result
}

// Path parses first and resolves every non-blank element of more
// against it in turn.
func (fs *FileSystem) Path(first string, more ...string) (Path, error) {
	p, err := fs.parse(first)
	if err != nil {
		return Path{}, err
	}
	for _, m := range more {
		if strings.TrimSpace(m) == "" {
			continue
		}
		if p, err = p.ResolveString(m); err != nil {
			return Path{}, err
		}
	}
	return p, nil
}

// IsOpen reports whether the instance has not been closed.
func (fs *FileSystem) IsOpen() bool {
	return !fs.closed.Load()
}

// IsReadOnly is always false.
func (fs *FileSystem) IsReadOnly() bool {
	return false
}

// Close unregisters the instance from its provider. Operations
// on a closed instance fail with ErrClosedFileSystem, while
// channels opened before keep working.
func (fs *FileSystem) Close() error {
	if fs.closed.CompareAndSwap(false, true) {
		fs.provider.unregister(fs)
		fs.logger.Info("file system closed")
	}
	return nil
}

// locate checks the path belongs to this open instance, and
// returns the store owning it along with its canonical form.
func (fs *FileSystem) locate(op string, p Path) (*objstore.Store, Path, error) {
	if p.fs != fs {
		return nil, Path{}, fserr.Newf(op, p.String(), fserr.IllegalArgument,
			"path belongs to a different file system")
	}
	if fs.closed.Load() {
		return nil, Path{}, fserr.New(op, p.String(), fserr.ClosedFileSystem)
	}
	canonical := p.ToRealPath()
	store, ok := fs.stores[canonical.root]
	if !ok {
		return nil, Path{}, fserr.Newf(op, p.String(), fserr.InvalidPath,
			"root %q not found", canonical.root)
	}
	return store, canonical, nil
}

// lookup resolves the object at the path.
func (fs *FileSystem) lookup(op string, p Path) (*objstore.Store, Path, *objstore.Object, error) {
	store, canonical, err := fs.locate(op, p)
	if err != nil {
		return nil, Path{}, nil, err
	}
	obj, ok := store.Lookup(canonical.names)
	if !ok {
		return nil, Path{}, nil, fserr.New(op, p.String(), fserr.NotFound)
	}
	return store, canonical, obj, nil
}

// URI renders the canonical address of the path.
//
// The root is rewritten with "/" for its separators and prefixed
// with a single "/", unless it already is "/" itself. So roots
// "", "@v1" and "/vol/@v2" render as "//", "/@v1" and "//vol/@v2"
// and stay distinguishable. A trailing "/" marks a path known to
// be a directory.
func (p Path) URI() *url.URL {
	abs := p.ToAbsolute()
	rootPath, _ := abs.Root()
	root := strings.Join(strings.Split(rootPath.String(), p.fs.separator), "/")
	if root != "/" {
		root = "/" + root
	}
	uriPath := strings.Join(slices.Concat([]string{root}, abs.names), "/")
	if p.fs.IsDirectory(abs) {
		uriPath += "/"
	}
	return &url.URL{Scheme: Scheme, Host: p.fs.host, Path: uriPath}
}
