package memfile

import (
	"strings"

	"github.com/aegistudio/go-memns/fserr"
)

// Flag is the set of options a channel is opened with.
type Flag uint32

const (
	Read Flag = 1 << iota
	Write
	Append
	Create
	CreateNew
	TruncateExisting
	DeleteOnClose
	Sparse
	Sync
	DSync
)

// Unsupported is the set of flags rejected when opening.
const Unsupported = DeleteOnClose | Sparse | Sync | DSync

var flagNames = []struct {
	flag Flag
	name string
}{
	{Read, "READ"},
	{Write, "WRITE"},
	{Append, "APPEND"},
	{Create, "CREATE"},
	{CreateNew, "CREATE_NEW"},
	{TruncateExisting, "TRUNCATE_EXISTING"},
	{DeleteOnClose, "DELETE_ON_CLOSE"},
	{Sparse, "SPARSE"},
	{Sync, "SYNC"},
	{DSync, "DSYNC"},
}

// Has reports whether every flag in g is set.
func (f Flag) Has(g Flag) bool {
	return f&g == g
}

// HasAny reports whether at least one flag in g is set.
func (f Flag) HasAny(g Flag) bool {
	return f&g != 0
}

func (f Flag) String() string {
	var names []string
	for _, item := range flagNames {
		if f.Has(item.flag) {
			names = append(names, item.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// Validate rejects the flags that cannot be honoured by an
// in-memory file.
func (f Flag) Validate() error {
	if f.HasAny(Unsupported) {
		return fserr.Newf("open", "", fserr.UnsupportedOperation,
			"options %s are unsupported", f&Unsupported)
	}
	return nil
}
