// File: internal/managers/space/space_manager_test.go
package space

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-unixfs/internal/device"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

func newManager(t *testing.T, blockSize, blockCount uint32) *Manager {
	t.Helper()
	dev, err := device.NewMemoryDevice(blockSize, blockCount)
	require.NoError(t, err)
	return NewManager(dev)
}

func TestLayoutOffsets(t *testing.T) {
	tests := []struct {
		name         string
		blockCount   uint32
		wantBitmap   uint64
		wantNOffset  uint64
		wantTableOff uint64
	}{
		{
			name:         "count divisible by eight",
			blockCount:   64,
			wantBitmap:   8,
			wantNOffset:  8,
			wantTableOff: 12,
		},
		{
			name:         "count with partial byte",
			blockCount:   65,
			wantBitmap:   9,
			wantNOffset:  9,
			wantTableOff: 13,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newManager(t, 64, tt.blockCount)
			assert.Equal(t, tt.wantBitmap, m.BitmapLength())
			assert.Equal(t, tt.wantNOffset, m.DescriptorCountOffset())
			assert.Equal(t, tt.wantTableOff, m.DescriptorTableOffset())
		})
	}
}

func TestBitFlipping(t *testing.T) {
	m := newManager(t, 64, 128)

	used, err := m.IsBlockUsed(5)
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, m.SetBlockUsed(5))
	used, err = m.IsBlockUsed(5)
	require.NoError(t, err)
	assert.True(t, used)

	require.NoError(t, m.SetBlockFree(5))
	used, err = m.IsBlockUsed(5)
	require.NoError(t, err)
	assert.False(t, used)
}

func TestFirstFreeBlockScansLowestBitFirst(t *testing.T) {
	m := newManager(t, 64, 16)

	for i := uint32(0); i < 4; i++ {
		require.NoError(t, m.SetBlockUsed(i))
	}

	free, err := m.FirstFreeBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(4), free)

	require.NoError(t, m.SetBlockFree(2))
	free, err = m.FirstFreeBlock()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), free)
}

func TestFirstFreeBlockExhausted(t *testing.T) {
	m := newManager(t, 64, 16)

	for i := uint32(0); i < 16; i++ {
		require.NoError(t, m.SetBlockUsed(i))
	}

	_, err := m.FirstFreeBlock()
	assert.True(t, errors.Is(err, types.ErrNotEnoughMemory))
}

func TestDescriptorCountField(t *testing.T) {
	m := newManager(t, 64, 24)

	require.NoError(t, m.SetDescriptorCount(17))
	n, err := m.DescriptorCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(17), n)
}

func TestFreeBlockCount(t *testing.T) {
	m := newManager(t, 64, 16)

	require.NoError(t, m.SetBlockUsed(0))
	require.NoError(t, m.SetBlockUsed(9))

	free, err := m.FreeBlockCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(14), free)
}

func TestMetadataBlockCount(t *testing.T) {
	m := newManager(t, 64, 64)

	// bitmap 8 + N 4 + 4*64 descriptor bytes = 268 bytes -> 5 blocks of 64.
	assert.Equal(t, uint32(5), m.MetadataBlockCount(4))
}
