// File: internal/types/file_system_constants.go
package types

// On-disk record geometry. Block size and block count are properties of the
// device; everything here is fixed by the binary format and stable across
// releases.
const (
	// InodeSize is the number of bytes one descriptor record occupies in
	// the inode table. The packed fields take 60 bytes; the remaining 4
	// are reserved padding written as zeros.
	InodeSize = 64

	// DirectLinksCount is the number of direct block pointers held inline
	// in an inode record.
	DirectLinksCount = 10

	// AddressSize is the width of a stored block address in bytes.
	AddressSize = 4

	// FileNameSize is the width of the filename field in a directory
	// entry. Names shorter than the field are NUL-terminated; a name of
	// exactly this length is stored without a terminator.
	FileNameSize = 28

	// NSize is the width of the descriptor-count field that follows the
	// free-block bitmap, and of the inode number stored in a directory
	// entry.
	NSize = 4

	// DentrySize is the width of one packed directory entry.
	DentrySize = FileNameSize + NSize

	// MaxSymlinkDepth bounds the number of symbolic-link expansions a
	// single path resolution may perform.
	MaxSymlinkDepth = 5

	// RootInode is the descriptor index of the root directory.
	RootInode = 0
)

// Block address sentinels. Both live at the top of the 32-bit address space
// so they can never collide with a real block on any supported device.
const (
	// NanBlockAddress marks an extent-map slot that points nowhere.
	NanBlockAddress uint32 = 0xFFFFFFFF

	// ZeroBlockAddress marks a logical hole: reads yield a block of
	// zeros, the first write materializes a physical block.
	ZeroBlockAddress uint32 = 0xFFFFFFFE
)

// FileType is the 2-byte type tag stored in an inode record.
type FileType uint16

const (
	// FileTypeUnused marks a free descriptor slot.
	FileTypeUnused FileType = 0

	// FileTypeRegular is a regular file.
	FileTypeRegular FileType = 1

	// FileTypeDirectory is a directory.
	FileTypeDirectory FileType = 2

	// FileTypeSymlink is a symbolic link whose body is a UTF-8 path.
	FileTypeSymlink FileType = 3
)

// String returns a human-readable name for the file type.
func (t FileType) String() string {
	switch t {
	case FileTypeUnused:
		return "unused"
	case FileTypeRegular:
		return "regular"
	case FileTypeDirectory:
		return "directory"
	case FileTypeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}
