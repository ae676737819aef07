// File: internal/parsers/records/inode_codec_test.go
package records

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-unixfs/internal/types"
)

func TestInodeCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		inode types.Inode
	}{
		{
			name: "unused descriptor",
			inode: types.Inode{
				Ino:  7,
				Type: types.FileTypeUnused,
			},
		},
		{
			name: "regular file with direct blocks",
			inode: types.Inode{
				Ino:  1,
				Type: types.FileTypeRegular,
				Refs: 2,
				Size: 4096,
				StraightLinks: [types.DirectLinksCount]uint32{
					12, 13, types.ZeroBlockAddress, 15,
					types.NanBlockAddress, types.NanBlockAddress,
					types.NanBlockAddress, types.NanBlockAddress,
					types.NanBlockAddress, types.NanBlockAddress,
				},
				SingleIndirect: types.NanBlockAddress,
				DoubleIndirect: types.NanBlockAddress,
			},
		},
		{
			name: "directory with indirect blocks",
			inode: types.Inode{
				Ino:            0,
				Type:           types.FileTypeDirectory,
				Refs:           3,
				Size:           64 * types.DentrySize,
				StraightLinks:  [types.DirectLinksCount]uint32{20, 21, 22, 23, 24, 25, 26, 27, 28, 29},
				SingleIndirect: 30,
				DoubleIndirect: 31,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := EncodeInode(&tt.inode)
			require.Len(t, data, types.InodeSize)

			decoded, err := DecodeInode(data)
			require.NoError(t, err)
			assert.Equal(t, tt.inode, *decoded)
		})
	}
}

func TestEncodeInodeLayout(t *testing.T) {
	inode := types.Inode{
		Ino:            0x01020304,
		Type:           types.FileTypeSymlink,
		Refs:           0x0506,
		Size:           0x0708090A,
		SingleIndirect: types.NanBlockAddress,
		DoubleIndirect: types.NanBlockAddress,
	}
	inode.StraightLinks[0] = 0x0B0C0D0E

	data := EncodeInode(&inode)

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, data[0:4], "ino is big-endian")
	assert.Equal(t, []byte{0x00, 0x03}, data[4:6], "type tag")
	assert.Equal(t, []byte{0x05, 0x06}, data[6:8], "refs")
	assert.Equal(t, []byte{0x07, 0x08, 0x09, 0x0A}, data[8:12], "size")
	assert.Equal(t, []byte{0x0B, 0x0C, 0x0D, 0x0E}, data[12:16], "first direct link")
	assert.Equal(t, uint32(types.NanBlockAddress), binary.BigEndian.Uint32(data[52:56]))
	assert.Equal(t, []byte{0, 0, 0, 0}, data[60:64], "reserved tail")
}

func TestDecodeInodeShortBuffer(t *testing.T) {
	_, err := DecodeInode(make([]byte, types.InodeSize-1))
	require.Error(t, err)
}
