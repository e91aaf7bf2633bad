package fserr

import (
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

var kindNTStatusMap = map[Kind]windows.NTStatus{
	NotFound:               windows.STATUS_OBJECT_NAME_NOT_FOUND,
	AlreadyExists:          windows.STATUS_OBJECT_NAME_COLLISION,
	NotADirectory:          windows.STATUS_NOT_A_DIRECTORY,
	NotARegularFile:        windows.STATUS_FILE_IS_A_DIRECTORY,
	DirectoryNotEmpty:      windows.STATUS_DIRECTORY_NOT_EMPTY,
	InvalidPath:            windows.STATUS_OBJECT_NAME_INVALID,
	IllegalArgument:        windows.STATUS_INVALID_PARAMETER,
	UnsupportedOperation:   windows.STATUS_NOT_SUPPORTED,
	AtomicMoveNotSupported: windows.STATUS_NOT_SAME_DEVICE,
	ConcurrentConflict:     windows.STATUS_SHARING_VIOLATION,
	ClosedChannel:          windows.STATUS_FILE_CLOSED,
	NonReadableChannel:     windows.STATUS_ACCESS_DENIED,
	NonWritableChannel:     windows.STATUS_ACCESS_DENIED,
	ClosedFileSystem:       windows.STATUS_INVALID_HANDLE,
}

// NTStatus converts an error into the status code a Windows file
// system host expects.
func NTStatus(err error) windows.NTStatus {
	if err == nil {
		return windows.STATUS_SUCCESS
	}
	if kind := KindOf(err); kind != 0 {
		if status, ok := kindNTStatusMap[kind]; ok {
			return status
		}
	}
	var status windows.NTStatus
	if errors.As(err, &status) {
		return status
	}
	if errors.Is(err, io.EOF) {
		return windows.STATUS_END_OF_FILE
	}
	return windows.STATUS_INTERNAL_ERROR
}
