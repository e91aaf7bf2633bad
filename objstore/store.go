// Package objstore implements the index of one root of a
// namespace, mapping canonical name sequences to objects.
//
// Keys are the names below the root, the root itself being the
// empty sequence. Every non-root key has its parent present as a
// directory whose members contain the key's last name.
//
// The index is a sync.Map, there is no store-wide lock. Each
// structural mutation takes nonblocking path locks on the keys
// it modifies and their ancestors, and removes entries only on
// the condition that they still hold the object it has looked up.
// A mutation losing a race fails with fserr.ConcurrentConflict.
package objstore

import (
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/pathlock"
)

type option struct {
	logger *slog.Logger
	format func([]string) string
}

// Option configures a store.
type Option func(*option)

// WithLogger sets the logger for structural mutations.
func WithLogger(logger *slog.Logger) Option {
	return func(o *option) {
		o.logger = logger
	}
}

// WithFormatter sets how names are rendered in errors and logs.
func WithFormatter(format func([]string) string) Option {
	return func(o *option) {
		o.format = format
	}
}

// Options aggregates multiple options into one.
func Options(opts ...Option) Option {
	return func(o *option) {
		for _, opt := range opts {
			opt(o)
		}
	}
}

func newOption() *option {
	return &option{
		format: func(names []string) string {
			return "/" + strings.Join(names, "/")
		},
	}
}

// Store is the index of a single root.
type Store struct {
	name   string
	root   *Object
	index  sync.Map
	locker pathlock.PathLocker
	logger *slog.Logger
	format func([]string) string
}

// New creates a store for the named root, with its root
// directory already in place.
func New(name string, opts ...Option) *Store {
	option := newOption()
	Options(opts...)(option)
	logger := option.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		name:   name,
		root:   newObject(Directory),
		logger: logger.With("root", name),
		format: option.format,
	}
	s.index.Store(pathlock.Key(nil), s.root)
	return s
}

// Name returns the name of the root this store serves.
func (s *Store) Name() string {
	return s.name
}

// Root returns the root directory.
func (s *Store) Root() *Object {
	return s.root
}

// Lookup finds the object at names.
func (s *Store) Lookup(names []string) (*Object, bool) {
	obj, ok := s.index.Load(pathlock.Key(names))
	if !ok {
		return nil, false
	}
	return obj.(*Object), true
}

// Len is the number of objects, including the root.
func (s *Store) Len() int {
	count := 0
	s.index.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}

func (s *Store) conflict(op string, names []string) error {
	s.logger.Warn("concurrent modification",
		"op", op, "path", s.format(names))
	return fserr.New(op, s.format(names), fserr.ConcurrentConflict)
}

// parentDir resolves the parent of names as a directory.
func (s *Store) parentDir(op string, names []string) (*Object, error) {
	parentNames := names[:len(names)-1]
	parent, ok := s.Lookup(parentNames)
	if !ok {
		return nil, fserr.Newf(op, s.format(names), fserr.NotFound,
			"parent %s does not exist", s.format(parentNames))
	}
	if !parent.IsDir() {
		return nil, fserr.Newf(op, s.format(names), fserr.NotADirectory,
			"parent %s is not a directory", s.format(parentNames))
	}
	return parent, nil
}

// checkNames rejects the names that cannot be keyed.
func (s *Store) checkNames(op string, names []string) error {
	for _, name := range names {
		if !pathlock.ValidName(name) {
			return fserr.Newf(op, s.format(names), fserr.InvalidPath,
				"invalid name %q", name)
		}
	}
	return nil
}

// Create inserts a new object of the kind at names.
func (s *Store) Create(names []string, kind Kind) (*Object, error) {
	path := s.format(names)
	if len(names) == 0 {
		return nil, fserr.New("create", path, fserr.AlreadyExists)
	}
	if err := s.checkNames("create", names); err != nil {
		return nil, err
	}
	if _, ok := s.Lookup(names); ok {
		return nil, fserr.New("create", path, fserr.AlreadyExists)
	}
	lock := s.locker.Lock(names)
	if lock == nil {
		if _, ok := s.Lookup(names); ok {
			return nil, fserr.New("create", path, fserr.AlreadyExists)
		}
		return nil, s.conflict("create", names)
	}
	defer lock.Unlock()
	parent, err := s.parentDir("create", names)
	if err != nil {
		return nil, err
	}
	obj := newObject(kind)
	if _, loaded := s.index.LoadOrStore(pathlock.Key(names), obj); loaded {
		return nil, fserr.New("create", path, fserr.AlreadyExists)
	}
	parent.members.Add(names[len(names)-1])
	s.logger.Debug("created", "path", path, "kind", kind, "id", obj.id)
	return obj, nil
}

// createRetries bounds how many times LookupOrCreate yields to
// another mutation of the same key.
const createRetries = 128

// LookupOrCreate returns the object at names, creating one of the
// kind when it is missing. When another creator wins the race the
// object it has created is returned instead, reporting whether
// the object has been created by this call.
func (s *Store) LookupOrCreate(names []string, kind Kind) (*Object, bool, error) {
	var err error
	for i := 0; i < createRetries; i++ {
		if obj, ok := s.Lookup(names); ok {
			return obj, false, nil
		}
		var obj *Object
		if obj, err = s.Create(names, kind); err == nil {
			return obj, true, nil
		}
		if !fserr.Is(err, fserr.AlreadyExists) &&
			!fserr.Is(err, fserr.ConcurrentConflict) {
			return nil, false, err
		}
		if i < 16 {
			runtime.Gosched()
		} else {
			time.Sleep(time.Duration(i) * time.Microsecond)
		}
	}
	return nil, false, err
}

// Delete removes the object at names. A directory must be empty.
func (s *Store) Delete(names []string) error {
	path := s.format(names)
	obj, ok := s.Lookup(names)
	if !ok {
		return fserr.New("delete", path, fserr.NotFound)
	}
	if len(names) == 0 {
		return fserr.Newf("delete", path, fserr.UnsupportedOperation,
			"cannot delete a root directory")
	}
	if obj.IsDir() && obj.members.Len() > 0 {
		return fserr.New("delete", path, fserr.DirectoryNotEmpty)
	}
	lock := s.locker.Lock(names)
	if lock == nil {
		return s.conflict("delete", names)
	}
	defer lock.Unlock()

	// With the writer lock held nothing can be created below,
	// but an earlier holder might have changed the entry.
	if obj.IsDir() && obj.members.Len() > 0 {
		return fserr.New("delete", path, fserr.DirectoryNotEmpty)
	}
	if !s.index.CompareAndDelete(pathlock.Key(names), obj) {
		return s.conflict("delete", names)
	}
	if parent, ok := s.Lookup(names[:len(names)-1]); ok && parent.IsDir() {
		parent.members.Remove(names[len(names)-1])
	}
	s.logger.Debug("deleted", "path", path, "id", obj.id)
	return nil
}

// List returns a snapshot of the member names of the directory
// at names, in sorted order. The snapshot is taken under the
// reader lock, so it never sees the directory half removed or
// half renamed.
func (s *Store) List(names []string) ([]string, error) {
	path := s.format(names)
	obj, ok := s.Lookup(names)
	if !ok {
		return nil, fserr.New("list", path, fserr.NotFound)
	}
	if !obj.IsDir() {
		return nil, fserr.New("list", path, fserr.NotADirectory)
	}
	lock := s.locker.RLock(names)
	if lock == nil {
		return nil, s.conflict("list", names)
	}
	defer lock.Unlock()
	if current, ok := s.Lookup(names); !ok || current != obj {
		return nil, s.conflict("list", names)
	}
	return obj.members.Snapshot(), nil
}
