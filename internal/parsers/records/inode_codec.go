// File: internal/parsers/records/inode_codec.go
package records

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// Packed descriptor layout, all integers big-endian:
//
//	offset  width  field
//	0       4      ino
//	4       2      type
//	6       2      refs
//	8       4      size
//	12      40     straight links (10 x 4)
//	52      4      single indirect
//	56      4      double indirect
//	60      4      reserved, written as zeros
const (
	inodeInoOffset    = 0
	inodeTypeOffset   = 4
	inodeRefsOffset   = 6
	inodeSizeOffset   = 8
	inodeLinksOffset  = 12
	inodeSingleOffset = inodeLinksOffset + types.DirectLinksCount*types.AddressSize
	inodeDoubleOffset = inodeSingleOffset + types.AddressSize
)

// EncodeInode packs a descriptor into its on-disk form.
func EncodeInode(inode *types.Inode) []byte {
	buf := make([]byte, types.InodeSize)
	binary.BigEndian.PutUint32(buf[inodeInoOffset:], inode.Ino)
	binary.BigEndian.PutUint16(buf[inodeTypeOffset:], uint16(inode.Type))
	binary.BigEndian.PutUint16(buf[inodeRefsOffset:], inode.Refs)
	binary.BigEndian.PutUint32(buf[inodeSizeOffset:], inode.Size)
	for i, addr := range inode.StraightLinks {
		binary.BigEndian.PutUint32(buf[inodeLinksOffset+i*types.AddressSize:], addr)
	}
	binary.BigEndian.PutUint32(buf[inodeSingleOffset:], inode.SingleIndirect)
	binary.BigEndian.PutUint32(buf[inodeDoubleOffset:], inode.DoubleIndirect)
	return buf
}

// DecodeInode unpacks a descriptor from its on-disk form.
func DecodeInode(data []byte) (*types.Inode, error) {
	if len(data) < types.InodeSize {
		return nil, fmt.Errorf("insufficient data for inode record: %d bytes", len(data))
	}

	inode := &types.Inode{}
	inode.Ino = binary.BigEndian.Uint32(data[inodeInoOffset:])
	inode.Type = types.FileType(binary.BigEndian.Uint16(data[inodeTypeOffset:]))
	inode.Refs = binary.BigEndian.Uint16(data[inodeRefsOffset:])
	inode.Size = binary.BigEndian.Uint32(data[inodeSizeOffset:])
	for i := range inode.StraightLinks {
		inode.StraightLinks[i] = binary.BigEndian.Uint32(data[inodeLinksOffset+i*types.AddressSize:])
	}
	inode.SingleIndirect = binary.BigEndian.Uint32(data[inodeSingleOffset:])
	inode.DoubleIndirect = binary.BigEndian.Uint32(data[inodeDoubleOffset:])
	return inode, nil
}

// EncodeAddress packs one block address.
func EncodeAddress(buf []byte, address uint32) {
	binary.BigEndian.PutUint32(buf, address)
}

// DecodeAddress unpacks one block address.
func DecodeAddress(buf []byte) uint32 {
	return binary.BigEndian.Uint32(buf)
}
