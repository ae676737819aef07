// File: internal/managers/blockio/range_io.go
package blockio

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// The metadata region (bitmap, descriptor count, inode table) is
// byte-addressed and its records may straddle block boundaries. ReadRange
// and WriteRange translate byte ranges into whole-block device I/O,
// read-modify-writing the edge blocks.

// ReadRange reads length bytes starting at byte offset on the device.
func ReadRange(dev interfaces.BlockDevice, offset uint64, length uint32) ([]byte, error) {
	blockSize := uint64(dev.BlockSize())
	if err := checkRange(dev, offset, uint64(length)); err != nil {
		return nil, err
	}

	out := make([]byte, length)
	done := uint32(0)
	for done < length {
		addr := uint32((offset + uint64(done)) / blockSize)
		inBlock := (offset + uint64(done)) % blockSize

		block, err := dev.ReadBlock(addr)
		if err != nil {
			return nil, err
		}

		n := copy(out[done:], block[inBlock:])
		done += uint32(n)
	}
	return out, nil
}

// WriteRange writes data starting at byte offset on the device, preserving
// the bytes around it within the edge blocks.
func WriteRange(dev interfaces.BlockDevice, offset uint64, data []byte) error {
	blockSize := uint64(dev.BlockSize())
	if err := checkRange(dev, offset, uint64(len(data))); err != nil {
		return err
	}

	done := 0
	for done < len(data) {
		addr := uint32((offset + uint64(done)) / blockSize)
		inBlock := (offset + uint64(done)) % blockSize
		n := int(blockSize - inBlock)
		if n > len(data)-done {
			n = len(data) - done
		}

		var block []byte
		if inBlock == 0 && n == int(blockSize) {
			// Whole-block overwrite, nothing to preserve.
			block = data[done : done+n]
		} else {
			read, err := dev.ReadBlock(addr)
			if err != nil {
				return err
			}
			copy(read[inBlock:], data[done:done+n])
			block = read
		}

		if err := dev.WriteBlock(addr, block); err != nil {
			return err
		}
		done += n
	}
	return nil
}

func checkRange(dev interfaces.BlockDevice, offset, length uint64) error {
	total := uint64(dev.BlockSize()) * uint64(dev.BlockCount())
	if offset+length > total {
		return fmt.Errorf("%w: byte range [%d, %d) on a %d-byte device",
			types.ErrInvalidArgument, offset, offset+length, total)
	}
	return nil
}
