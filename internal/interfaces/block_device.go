// File: internal/interfaces/block_device.go
package interfaces

// BlockDeviceReader provides methods for reading from block devices
type BlockDeviceReader interface {
	// ReadBlock reads a single block at the specified address. The result
	// length is exactly BlockSize.
	ReadBlock(address uint32) ([]byte, error)

	// BlockSize returns the size of a single block in bytes
	BlockSize() uint32

	// BlockCount returns the total number of blocks on the device
	BlockCount() uint32
}

// BlockDeviceWriter provides methods for writing to block devices
type BlockDeviceWriter interface {
	// WriteBlock overwrites a single block at the specified address. The
	// data length must be exactly BlockSize.
	WriteBlock(address uint32, data []byte) error
}

// BlockDevice represents a complete uniform-block random-access medium.
// The file-system core assumes nothing beyond whole-block reads and
// whole-block overwrites.
type BlockDevice interface {
	BlockDeviceReader
	BlockDeviceWriter
}
