// File: internal/interfaces/filesystem.go
package interfaces

import (
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// FileSystem is the top-level driver surface. Paths are slash-separated;
// a leading slash anchors resolution at the root directory, anything else
// resolves relative to the current working directory.
type FileSystem interface {
	// Mkfs initializes the device with an empty file system holding n
	// descriptors and a root directory at inode 0.
	Mkfs(n uint32) error

	// Create allocates a regular file at path.
	Create(path string) error

	// Link adds a hard link at dst referring to the regular file at src.
	Link(src, dst string) error

	// Unlink removes the name at path; the inode is reclaimed when its
	// last name goes away.
	Unlink(path string) error

	// Mkdir creates a directory at path with "." and ".." entries.
	Mkdir(path string) error

	// Rmdir removes the empty directory at path.
	Rmdir(path string) error

	// Symlink creates a symbolic link at linkPath whose body is target.
	Symlink(linkPath, target string) error

	// Open returns an opaque handle for the regular file at path.
	Open(path string) (string, error)

	// Close discards a handle returned by Open.
	Close(handle string) error

	// Read returns size bytes starting at offset from the open file.
	Read(handle string, offset, size uint32) ([]byte, error)

	// Write overwrites bytes at offset in the open file. Writes never
	// extend the file; call Truncate first.
	Write(handle string, offset uint32, data []byte) error

	// Truncate resizes the regular file at path to size bytes.
	Truncate(path string, size uint32) error

	// ReadDir returns the ordered entry list of the directory at path.
	ReadDir(path string) ([]types.Dentry, error)

	// Cd changes the current working directory.
	Cd(path string) error

	// Pwd returns the absolute path of the current working directory.
	Pwd() (string, error)

	// Lookup resolves path to a descriptor index. followTrailing selects
	// whether a symlink in the final component is expanded.
	Lookup(path string, followTrailing bool) (uint32, error)

	// Stat returns a snapshot of the descriptor behind path.
	Stat(path string) (types.Inode, error)

	// Usage reports allocator state.
	Usage() (types.UsageInfo, error)
}
