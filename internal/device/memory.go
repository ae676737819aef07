// File: internal/device/memory.go
package device

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// MemoryDevice is an in-memory block device: a flat byte buffer partitioned
// into equally sized blocks, supporting whole-block reads and overwrites
// only.
type MemoryDevice struct {
	blockSize  uint32
	blockCount uint32
	data       []byte
}

// NewMemoryDevice allocates a zero-filled device with the given geometry.
func NewMemoryDevice(blockSize, blockCount uint32) (*MemoryDevice, error) {
	if blockSize == 0 || blockCount == 0 {
		return nil, fmt.Errorf("%w: device geometry %dx%d", types.ErrInvalidArgument, blockSize, blockCount)
	}
	if blockSize%types.AddressSize != 0 {
		return nil, fmt.Errorf("%w: block size %d not a multiple of the address width", types.ErrInvalidArgument, blockSize)
	}
	return &MemoryDevice{
		blockSize:  blockSize,
		blockCount: blockCount,
		data:       make([]byte, int64(blockSize)*int64(blockCount)),
	}, nil
}

// NewMemoryDeviceFromBytes wraps an existing image buffer. The buffer length
// must be an exact multiple of blockSize.
func NewMemoryDeviceFromBytes(blockSize uint32, image []byte) (*MemoryDevice, error) {
	if blockSize == 0 || len(image) == 0 || len(image)%int(blockSize) != 0 {
		return nil, fmt.Errorf("%w: image length %d for block size %d", types.ErrInvalidArgument, len(image), blockSize)
	}
	return &MemoryDevice{
		blockSize:  blockSize,
		blockCount: uint32(len(image) / int(blockSize)),
		data:       image,
	}, nil
}

// BlockSize returns the size of a single block in bytes.
func (d *MemoryDevice) BlockSize() uint32 {
	return d.blockSize
}

// BlockCount returns the total number of blocks on the device.
func (d *MemoryDevice) BlockCount() uint32 {
	return d.blockCount
}

// ReadBlock returns a copy of the block at address.
func (d *MemoryDevice) ReadBlock(address uint32) ([]byte, error) {
	if address >= d.blockCount {
		return nil, fmt.Errorf("%w: block address %d of %d", types.ErrInvalidArgument, address, d.blockCount)
	}
	start := int64(address) * int64(d.blockSize)
	block := make([]byte, d.blockSize)
	copy(block, d.data[start:start+int64(d.blockSize)])
	return block, nil
}

// WriteBlock overwrites the block at address with data.
func (d *MemoryDevice) WriteBlock(address uint32, data []byte) error {
	if address >= d.blockCount {
		return fmt.Errorf("%w: block address %d of %d", types.ErrInvalidArgument, address, d.blockCount)
	}
	if uint32(len(data)) != d.blockSize {
		return fmt.Errorf("%w: write of %d bytes to a %d-byte block", types.ErrInvalidArgument, len(data), d.blockSize)
	}
	start := int64(address) * int64(d.blockSize)
	copy(d.data[start:], data)
	return nil
}

// Bytes exposes the raw device image. Callers must treat the result as
// read-only; it aliases device memory.
func (d *MemoryDevice) Bytes() []byte {
	return d.data
}
