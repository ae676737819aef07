// File: internal/services/file_service.go
package services

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/managers/descriptors"
	"github.com/deploymenttheory/go-unixfs/internal/managers/extents"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// FileService implements read, write and truncate against any inode
// regardless of its type tag; directories and symlinks store their bodies
// through the same engine. Reads of hole slots yield zeros without touching
// the device; the first write through a hole materializes a physical block.
type FileService struct {
	dev     interfaces.BlockDevice
	table   *descriptors.Manager
	extents *extents.Manager
}

// NewFileService returns a file I/O engine over dev.
func NewFileService(dev interfaces.BlockDevice, table *descriptors.Manager, ext *extents.Manager) *FileService {
	return &FileService{dev: dev, table: table, extents: ext}
}

func (s *FileService) blocksFor(size uint32) uint32 {
	blockSize := s.dev.BlockSize()
	return (size + blockSize - 1) / blockSize
}

// Read returns size bytes of the file body starting at offset.
func (s *FileService) Read(inode *types.Inode, offset, size uint32) ([]byte, error) {
	if uint64(offset)+uint64(size) > uint64(inode.Size) {
		return nil, fmt.Errorf("%w: read [%d, %d) of a %d-byte file",
			types.ErrOutOfBounds, offset, uint64(offset)+uint64(size), inode.Size)
	}

	blockSize := s.dev.BlockSize()
	out := make([]byte, size)
	done := uint32(0)
	for done < size {
		k := (offset + done) / blockSize
		inBlock := (offset + done) % blockSize
		n := blockSize - inBlock
		if n > size-done {
			n = size - done
		}

		addr, err := s.extents.Address(inode, k)
		if err != nil {
			return nil, err
		}
		switch addr {
		case types.ZeroBlockAddress:
			// Hole: the out buffer is already zeroed.
		case types.NanBlockAddress:
			return nil, fmt.Errorf("%w: logical block %d unmapped inside the file body", types.ErrOutOfBounds, k)
		default:
			block, err := s.dev.ReadBlock(addr)
			if err != nil {
				return nil, err
			}
			copy(out[done:done+n], block[inBlock:inBlock+n])
		}
		done += n
	}
	return out, nil
}

// Write overwrites bytes of the file body starting at offset. Writes never
// extend the file; grow with Truncate first.
func (s *FileService) Write(inode *types.Inode, offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(inode.Size) {
		return fmt.Errorf("%w: write [%d, %d) of a %d-byte file",
			types.ErrOutOfBounds, offset, uint64(offset)+uint64(len(data)), inode.Size)
	}

	blockSize := s.dev.BlockSize()
	done := uint32(0)
	for done < uint32(len(data)) {
		k := (offset + done) / blockSize
		inBlock := (offset + done) % blockSize
		n := blockSize - inBlock
		if n > uint32(len(data))-done {
			n = uint32(len(data)) - done
		}

		addr, err := s.extents.Materialize(inode, k)
		if err != nil {
			return err
		}
		block, err := s.dev.ReadBlock(addr)
		if err != nil {
			return err
		}
		copy(block[inBlock:inBlock+n], data[done:done+n])
		if err := s.dev.WriteBlock(addr, block); err != nil {
			return err
		}
		done += n
	}

	// Materialization may have rewritten direct slots.
	return s.table.Update(inode)
}

// Truncate resizes the file body. Growth appends hole slots only, so the
// re-expanded region of a shrink-then-grow cycle reads as zeros; shrinking
// frees materialized blocks, trims emptied indirect-map blocks and zeroes
// the tail of the new last block.
func (s *FileService) Truncate(inode *types.Inode, newSize uint32) error {
	current := s.blocksFor(inode.Size)
	required := s.blocksFor(newSize)

	switch {
	case newSize > inode.Size:
		for k := current; k < required; k++ {
			if err := s.extents.AppendSlot(inode, k); err != nil {
				// Leave the inode at its pre-call size.
				for r := k; r > current; r-- {
					_ = s.extents.RemoveSlot(inode, r-1)
				}
				return err
			}
		}

	case newSize < inode.Size:
		for k := current; k > required; k-- {
			if err := s.extents.RemoveSlot(inode, k-1); err != nil {
				return err
			}
		}
		if err := s.zeroTail(inode, newSize); err != nil {
			return err
		}
	}

	inode.Size = newSize
	return s.table.Update(inode)
}

// zeroTail clears the bytes of the new last block past newSize so a later
// regrowth reads zeros there.
func (s *FileService) zeroTail(inode *types.Inode, newSize uint32) error {
	blockSize := s.dev.BlockSize()
	cut := newSize % blockSize
	if cut == 0 {
		return nil
	}

	addr, err := s.extents.Address(inode, newSize/blockSize)
	if err != nil {
		return err
	}
	if addr == types.ZeroBlockAddress || addr == types.NanBlockAddress {
		return nil
	}

	block, err := s.dev.ReadBlock(addr)
	if err != nil {
		return err
	}
	for i := cut; i < blockSize; i++ {
		block[i] = 0
	}
	return s.dev.WriteBlock(addr, block)
}
