//go:build unix

package fserr

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

var kindErrnoMap = map[Kind]unix.Errno{
	NotFound:               unix.ENOENT,
	AlreadyExists:          unix.EEXIST,
	NotADirectory:          unix.ENOTDIR,
	NotARegularFile:        unix.EISDIR,
	DirectoryNotEmpty:      unix.ENOTEMPTY,
	InvalidPath:            unix.EINVAL,
	IllegalArgument:        unix.EINVAL,
	UnsupportedOperation:   unix.ENOTSUP,
	AtomicMoveNotSupported: unix.EXDEV,
	ConcurrentConflict:     unix.EBUSY,
	ClosedChannel:          unix.EBADF,
	NonReadableChannel:     unix.EBADF,
	NonWritableChannel:     unix.EBADF,
	ClosedFileSystem:       unix.ENXIO,
}

// Errno converts an error into the errno a POSIX host expects.
//
// Errors that already are an errno are passed through, and errors
// of unknown origin are reported as EIO.
func Errno(err error) unix.Errno {
	if err == nil {
		return 0
	}
	if kind := KindOf(err); kind != 0 {
		if errno, ok := kindErrnoMap[kind]; ok {
			return errno
		}
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	if errors.Is(err, io.EOF) {
		return 0
	}
	return unix.EIO
}
