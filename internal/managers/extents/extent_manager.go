// File: internal/managers/extents/extent_manager.go
package extents

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/managers/space"
	"github.com/deploymenttheory/go-unixfs/internal/parsers/records"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// Manager maps a logical block index within a file onto a physical block
// address through the inode's 10-direct + single-indirect + double-indirect
// scheme. Indirect blocks are allocated lazily on first touch and released
// when their last slot goes away. The double-indirect region is treated as
// one flat array of AddressesPerBlock² slots.
//
// Callers own persistence: every method mutates the in-memory inode only;
// the descriptor table write-back happens above this layer.
type Manager struct {
	dev   interfaces.BlockDevice
	space *space.Manager
}

// NewManager returns an extent engine over dev with sp as its allocator.
func NewManager(dev interfaces.BlockDevice, sp *space.Manager) *Manager {
	return &Manager{dev: dev, space: sp}
}

// AddressesPerBlock returns how many block addresses one block holds.
func (m *Manager) AddressesPerBlock() uint32 {
	return m.dev.BlockSize() / types.AddressSize
}

// Capacity returns the maximum number of logical blocks one inode can map.
func (m *Manager) Capacity() uint64 {
	aib := uint64(m.AddressesPerBlock())
	return types.DirectLinksCount + aib + aib*aib
}

// Address returns the stored address of logical block k: a physical block,
// ZeroBlockAddress for a hole, or NanBlockAddress past the extent map.
func (m *Manager) Address(inode *types.Inode, k uint32) (uint32, error) {
	aib := m.AddressesPerBlock()

	if uint64(k) >= m.Capacity() {
		return 0, fmt.Errorf("%w: logical block %d exceeds extent capacity", types.ErrNotEnoughMemory, k)
	}

	if k < types.DirectLinksCount {
		return inode.StraightLinks[k], nil
	}

	if k < types.DirectLinksCount+aib {
		if inode.SingleIndirect == types.NanBlockAddress {
			return types.NanBlockAddress, nil
		}
		return m.readSlot(inode.SingleIndirect, k-types.DirectLinksCount)
	}

	if inode.DoubleIndirect == types.NanBlockAddress {
		return types.NanBlockAddress, nil
	}
	j := k - types.DirectLinksCount - aib
	inner, err := m.readSlot(inode.DoubleIndirect, j/aib)
	if err != nil {
		return 0, err
	}
	if inner == types.NanBlockAddress {
		return types.NanBlockAddress, nil
	}
	return m.readSlot(inner, j%aib)
}

// AppendSlot extends the extent map so that logical block k exists as a
// hole, allocating the indirect-map blocks the index needs. k must be the
// first slot past the current logical end.
func (m *Manager) AppendSlot(inode *types.Inode, k uint32) error {
	aib := m.AddressesPerBlock()

	if uint64(k) >= m.Capacity() {
		return fmt.Errorf("%w: logical block %d exceeds extent capacity", types.ErrNotEnoughMemory, k)
	}

	if k < types.DirectLinksCount {
		inode.StraightLinks[k] = types.ZeroBlockAddress
		return nil
	}

	if k < types.DirectLinksCount+aib {
		if inode.SingleIndirect == types.NanBlockAddress {
			addr, err := m.allocIndirectBlock()
			if err != nil {
				return err
			}
			inode.SingleIndirect = addr
		}
		return m.writeSlot(inode.SingleIndirect, k-types.DirectLinksCount, types.ZeroBlockAddress)
	}

	freshOuter := false
	if inode.DoubleIndirect == types.NanBlockAddress {
		addr, err := m.allocIndirectBlock()
		if err != nil {
			return err
		}
		inode.DoubleIndirect = addr
		freshOuter = true
	}

	j := k - types.DirectLinksCount - aib
	inner, err := m.readSlot(inode.DoubleIndirect, j/aib)
	if err != nil {
		return err
	}
	if inner == types.NanBlockAddress {
		inner, err = m.allocIndirectBlock()
		if err != nil {
			// Do not leak a just-claimed outer block on a failed
			// inner allocation.
			if freshOuter {
				_ = m.space.SetBlockFree(inode.DoubleIndirect)
				inode.DoubleIndirect = types.NanBlockAddress
			}
			return err
		}
		if err := m.writeSlot(inode.DoubleIndirect, j/aib, inner); err != nil {
			return err
		}
	}
	return m.writeSlot(inner, j%aib, types.ZeroBlockAddress)
}

// RemoveSlot erases logical block k from the extent map, freeing its
// physical block if one was materialized and trimming indirect-map blocks
// that become empty. k must be the last slot of the current logical end.
func (m *Manager) RemoveSlot(inode *types.Inode, k uint32) error {
	aib := m.AddressesPerBlock()

	addr, err := m.Address(inode, k)
	if err != nil {
		return err
	}
	if addr != types.ZeroBlockAddress && addr != types.NanBlockAddress {
		if err := m.space.SetBlockFree(addr); err != nil {
			return err
		}
	}

	if k < types.DirectLinksCount {
		inode.StraightLinks[k] = types.NanBlockAddress
		return nil
	}

	if k < types.DirectLinksCount+aib {
		j := k - types.DirectLinksCount
		if j == 0 {
			// Last slot of the single-indirect tier: the map block
			// itself goes away.
			if err := m.space.SetBlockFree(inode.SingleIndirect); err != nil {
				return err
			}
			inode.SingleIndirect = types.NanBlockAddress
			return nil
		}
		return m.writeSlot(inode.SingleIndirect, j, types.NanBlockAddress)
	}

	j := k - types.DirectLinksCount - aib
	jo, ji := j/aib, j%aib
	if ji != 0 {
		inner, err := m.readSlot(inode.DoubleIndirect, jo)
		if err != nil {
			return err
		}
		return m.writeSlot(inner, ji, types.NanBlockAddress)
	}

	// First slot of an inner map block: release the inner block, and the
	// outer one too when this was the first inner.
	inner, err := m.readSlot(inode.DoubleIndirect, jo)
	if err != nil {
		return err
	}
	if inner != types.NanBlockAddress {
		if err := m.space.SetBlockFree(inner); err != nil {
			return err
		}
	}
	if jo == 0 {
		if err := m.space.SetBlockFree(inode.DoubleIndirect); err != nil {
			return err
		}
		inode.DoubleIndirect = types.NanBlockAddress
		return nil
	}
	return m.writeSlot(inode.DoubleIndirect, jo, types.NanBlockAddress)
}

// Materialize guarantees logical block k is backed by a physical block,
// allocating and zeroing one when the slot holds the hole sentinel, and
// returns the physical address.
func (m *Manager) Materialize(inode *types.Inode, k uint32) (uint32, error) {
	addr, err := m.Address(inode, k)
	if err != nil {
		return 0, err
	}
	if addr == types.NanBlockAddress {
		return 0, fmt.Errorf("%w: logical block %d outside the extent map", types.ErrOutOfBounds, k)
	}
	if addr != types.ZeroBlockAddress {
		return addr, nil
	}

	fresh, err := m.allocBlock(0x00)
	if err != nil {
		return 0, err
	}
	if err := m.setAddress(inode, k, fresh); err != nil {
		return 0, err
	}
	return fresh, nil
}

// setAddress stores addr in slot k. The indirect chain for k must already
// exist.
func (m *Manager) setAddress(inode *types.Inode, k uint32, addr uint32) error {
	aib := m.AddressesPerBlock()

	if k < types.DirectLinksCount {
		inode.StraightLinks[k] = addr
		return nil
	}
	if k < types.DirectLinksCount+aib {
		return m.writeSlot(inode.SingleIndirect, k-types.DirectLinksCount, addr)
	}

	j := k - types.DirectLinksCount - aib
	inner, err := m.readSlot(inode.DoubleIndirect, j/aib)
	if err != nil {
		return err
	}
	return m.writeSlot(inner, j%aib, addr)
}

func (m *Manager) readSlot(mapBlock, slot uint32) (uint32, error) {
	block, err := m.dev.ReadBlock(mapBlock)
	if err != nil {
		return 0, err
	}
	return records.DecodeAddress(block[slot*types.AddressSize:]), nil
}

func (m *Manager) writeSlot(mapBlock, slot, addr uint32) error {
	block, err := m.dev.ReadBlock(mapBlock)
	if err != nil {
		return err
	}
	records.EncodeAddress(block[slot*types.AddressSize:], addr)
	return m.dev.WriteBlock(mapBlock, block)
}

// allocIndirectBlock claims a block for an indirect map and fills it with
// the NAN sentinel pattern so unused slots read as pointing nowhere.
func (m *Manager) allocIndirectBlock() (uint32, error) {
	return m.allocBlock(0xFF)
}

func (m *Manager) allocBlock(fill byte) (uint32, error) {
	addr, err := m.space.FirstFreeBlock()
	if err != nil {
		return 0, err
	}
	if err := m.space.SetBlockUsed(addr); err != nil {
		return 0, err
	}

	block := make([]byte, m.dev.BlockSize())
	if fill != 0 {
		for i := range block {
			block[i] = fill
		}
	}
	if err := m.dev.WriteBlock(addr, block); err != nil {
		return 0, err
	}
	return addr, nil
}
