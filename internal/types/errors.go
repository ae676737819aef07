// File: internal/types/errors.go
package types

import "errors"

// Package-specific error variables that can be used with errors.Is() for
// error handling. Every failure surfaced by the driver wraps exactly one of
// these kinds.
var (
	// ErrInvalidArgument is returned for numeric parameters out of range
	// and for closed or unknown file handles.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidPath is returned when a path component does not exist, is
	// of the wrong type for the operation, or symlink expansion exceeds
	// MaxSymlinkDepth.
	ErrInvalidPath = errors.New("invalid path")

	// ErrFileAlreadyExist is returned on a name collision in the target
	// directory.
	ErrFileAlreadyExist = errors.New("file already exists")

	// ErrDescriptorNotFound is returned when an inode index is outside
	// the descriptor table.
	ErrDescriptorNotFound = errors.New("descriptor not found")

	// ErrOutOfBounds is returned when a read or write would cross the
	// file's logical size.
	ErrOutOfBounds = errors.New("out of bounds")

	// ErrNotEnoughMemory is returned when no free data block exists or a
	// file outgrows the double-indirect extent map.
	ErrNotEnoughMemory = errors.New("not enough memory")

	// ErrDirectoryNotEmpty is returned when removing a directory that
	// still holds entries beyond "." and "..".
	ErrDirectoryNotEmpty = errors.New("dir is not empty")
)
