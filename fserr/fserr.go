// Package fserr defines the error kinds shared by every layer of
// the in-memory namespace.
//
// A Kind is itself an error, so callers test for a failure class
// with errors.Is(err, fserr.NotFound) no matter how many times the
// error has been wrapped on its way up. Operation level failures
// are reported as *Error, carrying the operation and the path that
// was being worked on.
package fserr

import (
	"fmt"
	iofs "io/fs"

	"github.com/pkg/errors"
)

// Kind classifies a failure. The zero value is not a valid kind.
type Kind int

const (
	_ Kind = iota
	NotFound
	AlreadyExists
	NotADirectory
	NotARegularFile
	DirectoryNotEmpty
	InvalidPath
	IllegalArgument
	UnsupportedOperation
	AtomicMoveNotSupported
	ConcurrentConflict
	ClosedChannel
	NonReadableChannel
	NonWritableChannel
	ClosedFileSystem
)

var kindNames = map[Kind]string{
	NotFound:               "no such file or directory",
	AlreadyExists:          "file already exists",
	NotADirectory:          "not a directory",
	NotARegularFile:        "not a regular file",
	DirectoryNotEmpty:      "directory not empty",
	InvalidPath:            "invalid path",
	IllegalArgument:        "illegal argument",
	UnsupportedOperation:   "unsupported operation",
	AtomicMoveNotSupported: "atomic move not supported",
	ConcurrentConflict:     "concurrent modification",
	ClosedChannel:          "channel is closed",
	NonReadableChannel:     "channel not open for reading",
	NonWritableChannel:     "channel not open for writing",
	ClosedFileSystem:       "file system is closed",
}

func (k Kind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown error kind %d", int(k))
}

func (k Kind) String() string {
	return k.Error()
}

var kindStdErrors = map[Kind]error{
	NotFound:           iofs.ErrNotExist,
	AlreadyExists:      iofs.ErrExist,
	InvalidPath:        iofs.ErrInvalid,
	IllegalArgument:    iofs.ErrInvalid,
	NonReadableChannel: iofs.ErrPermission,
	NonWritableChannel: iofs.ErrPermission,
	ClosedChannel:      iofs.ErrClosed,
	ClosedFileSystem:   iofs.ErrClosed,
}

// Is makes the kinds match their io/fs counterparts, so that
// errors.Is(err, fs.ErrNotExist) holds for NotFound.
func (k Kind) Is(target error) bool {
	std, ok := kindStdErrors[k]
	return ok && std == target
}

// Error wraps a failure with the operation and the affected path.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an *Error of the given kind with a stack trace.
func New(op, path string, kind Kind) error {
	return errors.WithStack(&Error{Op: op, Path: path, Err: kind})
}

// Newf is like New but attaches a formatted detail message.
func Newf(op, path string, kind Kind, format string, args ...interface{}) error {
	return errors.WithStack(&Error{
		Op:   op,
		Path: path,
		Err:  errors.Wrapf(kind, format, args...),
	})
}

// WithOp attaches the operation and path to an error coming from a
// lower layer. Errors that already carry an *Error are returned as
// they are, the innermost operation being the most precise one.
func WithOp(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var fsErr *Error
	if errors.As(err, &fsErr) {
		return err
	}
	return &Error{Op: op, Path: path, Err: err}
}

// KindOf extracts the kind of an error, or zero if the error does
// not originate from this module.
func KindOf(err error) Kind {
	var kind Kind
	if errors.As(err, &kind) {
		return kind
	}
	return 0
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, kind)
}
