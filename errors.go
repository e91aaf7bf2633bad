package memns

import (
	"github.com/aegistudio/go-memns/fserr"
)

// Error kinds reported by the operations of this package, test
// for them with errors.Is.
const (
	ErrNotFound               = fserr.NotFound
	ErrAlreadyExists          = fserr.AlreadyExists
	ErrNotADirectory          = fserr.NotADirectory
	ErrNotARegularFile        = fserr.NotARegularFile
	ErrDirectoryNotEmpty      = fserr.DirectoryNotEmpty
	ErrInvalidPath            = fserr.InvalidPath
	ErrIllegalArgument        = fserr.IllegalArgument
	ErrUnsupportedOperation   = fserr.UnsupportedOperation
	ErrAtomicMoveNotSupported = fserr.AtomicMoveNotSupported
	ErrConcurrentConflict     = fserr.ConcurrentConflict
	ErrClosedChannel          = fserr.ClosedChannel
	ErrNonReadableChannel     = fserr.NonReadableChannel
	ErrNonWritableChannel     = fserr.NonWritableChannel
	ErrClosedFileSystem       = fserr.ClosedFileSystem
)
