// File: internal/managers/space/space_manager.go
package space

import (
	"encoding/binary"
	"fmt"

	"github.com/boljen/go-bitmap"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/managers/blockio"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// Manager owns the superblock: the free-block bitmap that opens the device
// and the descriptor-count field right behind it. Bit i of the bitmap is
// set exactly when block i is allocated; within each byte bit 0 is
// consulted first.
type Manager struct {
	dev interfaces.BlockDevice
}

// NewManager returns a superblock manager for dev.
func NewManager(dev interfaces.BlockDevice) *Manager {
	return &Manager{dev: dev}
}

// BitmapLength returns the size of the free-block bitmap in bytes.
func (m *Manager) BitmapLength() uint64 {
	return (uint64(m.dev.BlockCount()) + 7) / 8
}

// DescriptorCountOffset returns the byte offset of the N field.
func (m *Manager) DescriptorCountOffset() uint64 {
	return m.BitmapLength()
}

// DescriptorTableOffset returns the byte offset of the inode table.
func (m *Manager) DescriptorTableOffset() uint64 {
	return m.BitmapLength() + types.NSize
}

// SetBlockUsed flips the bitmap bit for blockIdx on. Reads the containing
// bitmap block, sets the bit, writes the block back.
func (m *Manager) SetBlockUsed(blockIdx uint32) error {
	return m.setBit(blockIdx, true)
}

// SetBlockFree flips the bitmap bit for blockIdx off.
func (m *Manager) SetBlockFree(blockIdx uint32) error {
	return m.setBit(blockIdx, false)
}

func (m *Manager) setBit(blockIdx uint32, used bool) error {
	if blockIdx >= m.dev.BlockCount() {
		return fmt.Errorf("%w: bitmap bit for block %d of %d", types.ErrInvalidArgument, blockIdx, m.dev.BlockCount())
	}

	bitsPerBlock := m.dev.BlockSize() * 8
	addr := blockIdx / bitsPerBlock

	block, err := m.dev.ReadBlock(addr)
	if err != nil {
		return err
	}
	bitmap.Bitmap(block).Set(int(blockIdx%bitsPerBlock), used)
	return m.dev.WriteBlock(addr, block)
}

// IsBlockUsed reports the bitmap bit for blockIdx.
func (m *Manager) IsBlockUsed(blockIdx uint32) (bool, error) {
	if blockIdx >= m.dev.BlockCount() {
		return false, fmt.Errorf("%w: bitmap bit for block %d of %d", types.ErrInvalidArgument, blockIdx, m.dev.BlockCount())
	}

	bitsPerBlock := m.dev.BlockSize() * 8
	block, err := m.dev.ReadBlock(blockIdx / bitsPerBlock)
	if err != nil {
		return false, err
	}
	return bitmap.Bitmap(block).Get(int(blockIdx % bitsPerBlock)), nil
}

// FirstFreeBlock scans the bitmap byte by byte, bit 0 first within each
// byte, and returns the lowest cleared bit's block index.
func (m *Manager) FirstFreeBlock() (uint32, error) {
	raw, err := blockio.ReadRange(m.dev, 0, uint32(m.BitmapLength()))
	if err != nil {
		return 0, err
	}

	bm := bitmap.Bitmap(raw)
	count := m.dev.BlockCount()
	for i := uint32(0); i < count; i++ {
		if !bm.Get(int(i)) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no free blocks", types.ErrNotEnoughMemory)
}

// FreeBlockCount counts cleared bitmap bits.
func (m *Manager) FreeBlockCount() (uint32, error) {
	raw, err := blockio.ReadRange(m.dev, 0, uint32(m.BitmapLength()))
	if err != nil {
		return 0, err
	}

	bm := bitmap.Bitmap(raw)
	free := uint32(0)
	for i := uint32(0); i < m.dev.BlockCount(); i++ {
		if !bm.Get(int(i)) {
			free++
		}
	}
	return free, nil
}

// ClearBitmap zeroes the whole free-block bitmap.
func (m *Manager) ClearBitmap() error {
	return blockio.WriteRange(m.dev, 0, make([]byte, m.BitmapLength()))
}

// SetDescriptorCount writes the N field.
func (m *Manager) SetDescriptorCount(n uint32) error {
	buf := make([]byte, types.NSize)
	binary.BigEndian.PutUint32(buf, n)
	return blockio.WriteRange(m.dev, m.DescriptorCountOffset(), buf)
}

// DescriptorCount reads the N field.
func (m *Manager) DescriptorCount() (uint32, error) {
	buf, err := blockio.ReadRange(m.dev, m.DescriptorCountOffset(), types.NSize)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf), nil
}

// MetadataBlockCount returns how many leading blocks the superblock and a
// table of n descriptors occupy. mkfs pre-marks these allocated.
func (m *Manager) MetadataBlockCount(n uint32) uint32 {
	metaBytes := m.DescriptorTableOffset() + uint64(n)*types.InodeSize
	blockSize := uint64(m.dev.BlockSize())
	return uint32((metaBytes + blockSize - 1) / blockSize)
}
