// File: internal/managers/descriptors/descriptor_table.go
package descriptors

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/managers/blockio"
	"github.com/deploymenttheory/go-unixfs/internal/managers/space"
	"github.com/deploymenttheory/go-unixfs/internal/parsers/records"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// Manager is the inode table: a fixed array of descriptor records placed
// right after the superblock, random-accessible by inode number. There is
// no free-inode bitmap; free descriptors are found by linear scan.
type Manager struct {
	dev   interfaces.BlockDevice
	space *space.Manager
}

// NewManager returns an inode table manager backed by dev.
func NewManager(dev interfaces.BlockDevice, sp *space.Manager) *Manager {
	return &Manager{dev: dev, space: sp}
}

func (m *Manager) recordOffset(ino uint32) uint64 {
	return m.space.DescriptorTableOffset() + uint64(ino)*types.InodeSize
}

// Get reads descriptor ino from the table. The record's ino field is
// overwritten with the requested index.
func (m *Manager) Get(ino uint32) (*types.Inode, error) {
	n, err := m.space.DescriptorCount()
	if err != nil {
		return nil, err
	}
	if ino >= n {
		return nil, fmt.Errorf("%w: descriptor %d of %d", types.ErrDescriptorNotFound, ino, n)
	}

	raw, err := blockio.ReadRange(m.dev, m.recordOffset(ino), types.InodeSize)
	if err != nil {
		return nil, err
	}
	inode, err := records.DecodeInode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode descriptor %d: %w", ino, err)
	}
	inode.Ino = ino
	return inode, nil
}

// Update writes the descriptor back into the table.
func (m *Manager) Update(inode *types.Inode) error {
	n, err := m.space.DescriptorCount()
	if err != nil {
		return err
	}
	if inode.Ino >= n {
		return fmt.Errorf("%w: descriptor %d of %d", types.ErrDescriptorNotFound, inode.Ino, n)
	}
	return blockio.WriteRange(m.dev, m.recordOffset(inode.Ino), records.EncodeInode(inode))
}

// FindUnused scans the table for the first descriptor with the UNUSED type
// tag.
func (m *Manager) FindUnused() (*types.Inode, error) {
	n, err := m.space.DescriptorCount()
	if err != nil {
		return nil, err
	}

	for ino := uint32(0); ino < n; ino++ {
		inode, err := m.Get(ino)
		if err != nil {
			return nil, err
		}
		if inode.Type == types.FileTypeUnused {
			return inode, nil
		}
	}
	return nil, fmt.Errorf("%w: no unused descriptors", types.ErrNotEnoughMemory)
}

// FreeCount counts UNUSED descriptors.
func (m *Manager) FreeCount() (uint32, error) {
	n, err := m.space.DescriptorCount()
	if err != nil {
		return 0, err
	}

	free := uint32(0)
	for ino := uint32(0); ino < n; ino++ {
		inode, err := m.Get(ino)
		if err != nil {
			return 0, err
		}
		if inode.Type == types.FileTypeUnused {
			free++
		}
	}
	return free, nil
}
