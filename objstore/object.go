package objstore

import (
	"sync/atomic"
	"time"

	"github.com/aegistudio/go-memns/memfile"
)

// Kind tells a directory from a regular file.
type Kind int

const (
	Directory Kind = iota + 1
	RegularFile
)

func (k Kind) String() string {
	switch k {
	case Directory:
		return "directory"
	case RegularFile:
		return "regular file"
	default:
		return "unknown"
	}
}

// lastID is shared by every store so that identities never
// collide within the process.
var lastID atomic.Uint64

// Object is a directory or a regular file living in a store.
//
// The identity of an object never changes, including when it is
// moved to another path.
type Object struct {
	id      uint64
	kind    Kind
	members *Members
	content *memfile.Content
}

func newObject(kind Kind) *Object {
	obj := &Object{
		id:   lastID.Add(1),
		kind: kind,
	}
	switch kind {
	case Directory:
		obj.members = &Members{}
	case RegularFile:
		obj.content = &memfile.Content{}
	}
	return obj
}

func (o *Object) ID() uint64 {
	return o.id
}

func (o *Object) Kind() Kind {
	return o.kind
}

func (o *Object) IsDir() bool {
	return o.kind == Directory
}

func (o *Object) IsRegular() bool {
	return o.kind == RegularFile
}

// Members returns the member set of a directory, or nil for a
// regular file.
func (o *Object) Members() *Members {
	return o.members
}

// Content returns the content of a regular file, or nil for a
// directory.
func (o *Object) Content() *memfile.Content {
	return o.content
}

// Size is the content size of a regular file, and zero for a
// directory.
func (o *Object) Size() int64 {
	if o.content == nil {
		return 0
	}
	return o.content.Size()
}

// Epoch is reported for every time attribute, since no time is
// tracked for objects.
var Epoch = time.Unix(0, 0).UTC()

// Attributes is the fixed basic attribute set of an object.
type Attributes struct {
	Kind             Kind
	Size             int64
	FileKey          uint64
	LastModifiedTime time.Time
	LastAccessTime   time.Time
	CreationTime     time.Time
}

func (a Attributes) IsDirectory() bool {
	return a.Kind == Directory
}

func (a Attributes) IsRegularFile() bool {
	return a.Kind == RegularFile
}

// IsSymbolicLink is always false, links are not supported.
func (a Attributes) IsSymbolicLink() bool {
	return false
}

func (a Attributes) IsOther() bool {
	return false
}

// Attributes returns a snapshot of the object's attributes.
func (o *Object) Attributes() Attributes {
	return Attributes{
		Kind:             o.kind,
		Size:             o.Size(),
		FileKey:          o.id,
		LastModifiedTime: Epoch,
		LastAccessTime:   Epoch,
		CreationTime:     Epoch,
	}
}
