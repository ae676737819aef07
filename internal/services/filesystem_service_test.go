// File: internal/services/filesystem_service_test.go
package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-unixfs/internal/device"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

func TestMkfsValidation(t *testing.T) {
	dev, err := device.NewMemoryDevice(128, 256)
	require.NoError(t, err)
	fs := NewFileSystemService(dev)

	tests := []struct {
		name    string
		n       uint32
		wantErr error
	}{
		{name: "too few descriptors", n: 1, wantErr: types.ErrInvalidArgument},
		{name: "zero descriptors", n: 0, wantErr: types.ErrInvalidArgument},
		{name: "metadata larger than device", n: 100000, wantErr: types.ErrNotEnoughMemory},
		{name: "minimum viable", n: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fs.Mkfs(tt.n)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestMkfsIsIdempotent(t *testing.T) {
	dev, err := device.NewMemoryDevice(128, 128)
	require.NoError(t, err)
	fs := NewFileSystemService(dev)

	require.NoError(t, fs.Mkfs(10))
	first := make([]byte, len(dev.Bytes()))
	copy(first, dev.Bytes())

	require.NoError(t, fs.Mkfs(10))
	assert.Equal(t, first, dev.Bytes(), "mkfs twice yields identical device state")
}

func TestCreateErrors(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Create("/f"))

	err := fs.Create("/f")
	assert.True(t, errors.Is(err, types.ErrFileAlreadyExist))

	err = fs.Create("/missing/f")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))

	err = fs.Create("/")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))
}

func TestCreateCollisionRollsBackDescriptor(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Create("/f"))

	free, err := fs.table.FreeCount()
	require.NoError(t, err)

	err = fs.Create("/f")
	require.True(t, errors.Is(err, types.ErrFileAlreadyExist))

	after, err := fs.table.FreeCount()
	require.NoError(t, err)
	assert.Equal(t, free, after, "the partially allocated inode returned to the pool")
}

func TestLinkRules(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Symlink("/s", "f"))

	require.NoError(t, fs.Link("/f", "/f2"))

	inode, err := fs.Stat("/f")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), inode.Refs)

	// Hard links to directories and symlinks are rejected.
	err = fs.Link("/d", "/d2")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))
	err = fs.Link("/s", "/s2")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))

	err = fs.Link("/f", "/f2")
	assert.True(t, errors.Is(err, types.ErrFileAlreadyExist))
}

func TestUnlinkRules(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Mkdir("/d"))

	err := fs.Unlink("/d")
	assert.True(t, errors.Is(err, types.ErrInvalidPath), "directories are not unlinked")

	err = fs.Unlink("/ghost")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))

	// Unlinking a symlink reclaims it without touching the target.
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Symlink("/s", "f"))
	require.NoError(t, fs.Unlink("/s"))
	_, err = fs.Lookup("/f", false)
	assert.NoError(t, err)
}

func TestMkdirRefCounts(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Mkdir("/d/sub1"))
	require.NoError(t, fs.Mkdir("/d/sub2"))

	d, err := fs.Stat("/d")
	require.NoError(t, err)
	// Parent entry + own "." + two subdirectory ".." entries.
	assert.Equal(t, uint16(4), d.Refs)

	sub, err := fs.Stat("/d/sub1")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), sub.Refs)

	root, err := fs.Stat("/")
	require.NoError(t, err)
	assert.Equal(t, uint16(3), root.Refs, "root: its two self entries plus /d's dot-dot")
}

func TestMkdirCollisionRollsBack(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Mkdir("/d"))

	free, err := fs.table.FreeCount()
	require.NoError(t, err)

	err = fs.Mkdir("/d")
	require.True(t, errors.Is(err, types.ErrFileAlreadyExist))

	after, err := fs.table.FreeCount()
	require.NoError(t, err)
	assert.Equal(t, free, after)
}

func TestRmdir(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Mkdir("/d/sub"))

	err := fs.Rmdir("/d")
	assert.True(t, errors.Is(err, types.ErrDirectoryNotEmpty))

	require.NoError(t, fs.Rmdir("/d/sub"))

	d, err := fs.Stat("/d")
	require.NoError(t, err)
	assert.Equal(t, uint16(2), d.Refs, "the sub's dot-dot reference is gone")

	require.NoError(t, fs.Rmdir("/d"))
	_, err = fs.Lookup("/d", false)
	assert.True(t, errors.Is(err, types.ErrInvalidPath))

	// The descriptors are back in the pool.
	free, err := fs.table.FreeCount()
	require.NoError(t, err)
	assert.Equal(t, uint32(15), free)
}

func TestRmdirRejectsRootAndFilesAndDotNames(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Mkdir("/d"))

	assert.True(t, errors.Is(fs.Rmdir("/"), types.ErrInvalidPath))
	assert.True(t, errors.Is(fs.Rmdir("/f"), types.ErrInvalidPath))
	assert.True(t, errors.Is(fs.Rmdir("/d/."), types.ErrInvalidPath))
	assert.True(t, errors.Is(fs.Rmdir("/d/.."), types.ErrInvalidPath))
}

func TestRmdirWithFilesInside(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Create("/d/f"))

	err := fs.Rmdir("/d")
	assert.True(t, errors.Is(err, types.ErrDirectoryNotEmpty),
		"a directory holding only files still is not empty")
}

func TestOpenReadWriteClose(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Truncate("/f", 64))

	h1, err := fs.Open("/f")
	require.NoError(t, err)
	h2, err := fs.Open("/f")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "every open hands out a fresh handle")

	require.NoError(t, fs.Write(h1, 0, []byte("shared state")))
	got, err := fs.Read(h2, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, []byte("shared state"), got)

	require.NoError(t, fs.Close(h1))
	_, err = fs.Read(h1, 0, 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))

	_, err = fs.Read("no-such-handle", 0, 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestOpenRules(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Symlink("/s", "f"))

	_, err := fs.Open("/d")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))

	// Opening through a symlink follows it to the file.
	h, err := fs.Open("/s")
	require.NoError(t, err)
	require.NoError(t, fs.Close(h))
}

func TestDanglingHandleAfterUnlink(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Create("/f"))
	require.NoError(t, fs.Truncate("/f", 10))

	h, err := fs.Open("/f")
	require.NoError(t, err)
	require.NoError(t, fs.Unlink("/f"))

	_, err = fs.Read(h, 0, 1)
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
	err = fs.Write(h, 0, []byte{1})
	assert.True(t, errors.Is(err, types.ErrInvalidArgument))
}

func TestTruncateRules(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)
	require.NoError(t, fs.Mkdir("/d"))
	require.NoError(t, fs.Symlink("/s", "d"))

	assert.True(t, errors.Is(fs.Truncate("/d", 10), types.ErrInvalidPath))
	assert.True(t, errors.Is(fs.Truncate("/s", 10), types.ErrInvalidPath))
	assert.True(t, errors.Is(fs.Truncate("/ghost", 10), types.ErrInvalidPath))
}

func TestCdAndPwd(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Mkdir("/a"))
	require.NoError(t, fs.Mkdir("/a/b"))
	require.NoError(t, fs.Mkdir("/a/b/c"))

	pwd, err := fs.Pwd()
	require.NoError(t, err)
	assert.Equal(t, "/", pwd)

	require.NoError(t, fs.Cd("/a/b"))
	pwd, err = fs.Pwd()
	require.NoError(t, err)
	assert.Equal(t, "/a/b", pwd)

	require.NoError(t, fs.Cd("c"))
	pwd, err = fs.Pwd()
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", pwd)

	require.NoError(t, fs.Cd(".."))
	require.NoError(t, fs.Cd(".."))
	require.NoError(t, fs.Cd(".."))
	pwd, err = fs.Pwd()
	require.NoError(t, err)
	assert.Equal(t, "/", pwd)

	err = fs.Cd("/a/missing")
	assert.True(t, errors.Is(err, types.ErrInvalidPath))
}

func TestCdThroughSymlink(t *testing.T) {
	fs := newTestFS(t, 128, 256, 16)
	require.NoError(t, fs.Mkdir("/target"))
	require.NoError(t, fs.Symlink("/jump", "target"))

	require.NoError(t, fs.Cd("/jump"))
	pwd, err := fs.Pwd()
	require.NoError(t, err)
	assert.Equal(t, "/target", pwd)
}

func TestUsage(t *testing.T) {
	fs := newTestFS(t, 128, 256, 8)

	u, err := fs.Usage()
	require.NoError(t, err)
	assert.Equal(t, uint32(128), u.BlockSize)
	assert.Equal(t, uint32(256), u.TotalBlocks)
	assert.Equal(t, uint32(8), u.TotalDescriptors)
	assert.Equal(t, uint32(7), u.FreeDescriptors, "root holds one descriptor")

	meta := fs.space.MetadataBlockCount(8)
	assert.Equal(t, fs.dev.BlockCount()-meta-1, u.FreeBlocks, "metadata plus the root body block are taken")
}

func TestDescriptorExhaustion(t *testing.T) {
	fs := newTestFS(t, 128, 256, 3)
	require.NoError(t, fs.Create("/a"))
	require.NoError(t, fs.Create("/b"))

	err := fs.Create("/c")
	assert.True(t, errors.Is(err, types.ErrNotEnoughMemory))
}
