// File: internal/services/filesystem_service.go
package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/managers/descriptors"
	"github.com/deploymenttheory/go-unixfs/internal/managers/extents"
	"github.com/deploymenttheory/go-unixfs/internal/managers/space"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// FileSystemService is the single-process driver translating path-based
// operations into block reads and writes. It owns the device exclusively;
// the open-file table and the working directory live in memory only and do
// not survive a restart.
type FileSystemService struct {
	dev      interfaces.BlockDevice
	space    *space.Manager
	table    *descriptors.Manager
	extents  *extents.Manager
	files    *FileService
	dirs     *DirectoryService
	resolver *PathResolver

	handles map[string]uint32
	cwd     uint32
}

// NewFileSystemService assembles a driver over dev. The device must either
// already hold a formatted file system or receive Mkfs before any other
// operation.
func NewFileSystemService(dev interfaces.BlockDevice) *FileSystemService {
	sp := space.NewManager(dev)
	table := descriptors.NewManager(dev, sp)
	ext := extents.NewManager(dev, sp)
	files := NewFileService(dev, table, ext)
	dirs := NewDirectoryService(table, files)

	return &FileSystemService{
		dev:      dev,
		space:    sp,
		table:    table,
		extents:  ext,
		files:    files,
		dirs:     dirs,
		resolver: NewPathResolver(table, files, dirs),
		handles:  make(map[string]uint32),
		cwd:      types.RootInode,
	}
}

var _ interfaces.FileSystem = (*FileSystemService)(nil)

// Mkfs initializes an empty file system with n descriptors: zeroed bitmap,
// descriptor count, a table of UNUSED records, metadata blocks pre-marked
// allocated, and a root directory at inode 0 holding "." and "..".
func (s *FileSystemService) Mkfs(n uint32) error {
	if n < 2 {
		return fmt.Errorf("%w: descriptor count %d, need at least 2", types.ErrInvalidArgument, n)
	}
	metaBlocks := s.space.MetadataBlockCount(n)
	if metaBlocks >= s.dev.BlockCount() {
		return fmt.Errorf("%w: metadata needs %d of %d blocks", types.ErrNotEnoughMemory, metaBlocks, s.dev.BlockCount())
	}

	if err := s.space.ClearBitmap(); err != nil {
		return err
	}
	if err := s.space.SetDescriptorCount(n); err != nil {
		return err
	}
	for i := uint32(0); i < metaBlocks; i++ {
		if err := s.space.SetBlockUsed(i); err != nil {
			return err
		}
	}

	for ino := uint32(0); ino < n; ino++ {
		record := &types.Inode{Ino: ino, Type: types.FileTypeUnused}
		record.ResetLinks()
		if err := s.table.Update(record); err != nil {
			return err
		}
	}

	root := &types.Inode{Ino: types.RootInode, Type: types.FileTypeDirectory}
	root.ResetLinks()
	if err := s.table.Update(root); err != nil {
		return err
	}
	if err := s.dirs.AddLink(root, types.RootInode, "."); err != nil {
		return err
	}
	if err := s.dirs.AddLink(root, types.RootInode, ".."); err != nil {
		return err
	}

	s.cwd = types.RootInode
	s.handles = make(map[string]uint32)
	return nil
}

// Create allocates a regular file at path and links it into its parent.
func (s *FileSystemService) Create(path string) error {
	parent, name, err := s.resolveParentDir(path)
	if err != nil {
		return err
	}

	inode, err := s.allocate(types.FileTypeRegular)
	if err != nil {
		return err
	}
	if err := s.dirs.AddLink(parent, inode.Ino, name); err != nil {
		return s.rollbackAllocation(inode, err)
	}
	return nil
}

// Link adds a hard link at dst to the regular file at src. Hard links to
// directories are rejected.
func (s *FileSystemService) Link(src, dst string) error {
	srcIno, err := s.resolver.Resolve(src, false, s.cwd)
	if err != nil {
		return err
	}
	srcInode, err := s.table.Get(srcIno)
	if err != nil {
		return err
	}
	if srcInode.Type != types.FileTypeRegular {
		return fmt.Errorf("%w: link source %q is %s, not a regular file", types.ErrInvalidPath, src, srcInode.Type)
	}

	parent, name, err := s.resolveParentDir(dst)
	if err != nil {
		return err
	}
	return s.dirs.AddLink(parent, srcIno, name)
}

// Unlink removes the name at path. Directories are removed with Rmdir.
func (s *FileSystemService) Unlink(path string) error {
	ino, err := s.resolver.Resolve(path, false, s.cwd)
	if err != nil {
		return err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return err
	}
	if inode.Type == types.FileTypeDirectory {
		return fmt.Errorf("%w: %q is a directory", types.ErrInvalidPath, path)
	}

	parent, name, err := s.resolveParentDir(path)
	if err != nil {
		return err
	}
	return s.dirs.RemoveLink(parent, name)
}

// Mkdir creates a directory at path with "." and ".." entries.
func (s *FileSystemService) Mkdir(path string) error {
	parent, name, err := s.resolveParentDir(path)
	if err != nil {
		return err
	}

	inode, err := s.allocate(types.FileTypeDirectory)
	if err != nil {
		return err
	}
	if err := s.dirs.AddLink(parent, inode.Ino, name); err != nil {
		return s.rollbackAllocation(inode, err)
	}

	// AddLink raised the new directory's link count through its own table
	// fetch; re-read before writing through this handle.
	inode, err = s.table.Get(inode.Ino)
	if err != nil {
		return err
	}
	if err := s.dirs.AddLink(inode, inode.Ino, "."); err != nil {
		_ = s.dirs.RemoveLink(parent, name)
		return err
	}
	if err := s.dirs.AddLink(inode, parent.Ino, ".."); err != nil {
		_ = s.dirs.RemoveLink(inode, ".")
		_ = s.dirs.RemoveLink(parent, name)
		return err
	}
	return nil
}

// Rmdir removes the empty directory at path.
func (s *FileSystemService) Rmdir(path string) error {
	_, name, err := s.resolveParentDir(path)
	if err != nil {
		return err
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: cannot remove %q", types.ErrInvalidPath, name)
	}

	ino, err := s.resolver.Resolve(path, false, s.cwd)
	if err != nil {
		return err
	}
	if ino == types.RootInode {
		return fmt.Errorf("%w: cannot remove the root directory", types.ErrInvalidPath)
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return err
	}
	if inode.Type != types.FileTypeDirectory {
		return fmt.Errorf("%w: %q is not a directory", types.ErrInvalidPath, path)
	}

	entries, err := s.dirs.Read(inode)
	if err != nil {
		return err
	}
	if len(entries) > 2 {
		return fmt.Errorf("%w: %q", types.ErrDirectoryNotEmpty, path)
	}

	if err := s.dirs.RemoveLink(inode, "."); err != nil {
		return err
	}
	if err := s.dirs.RemoveLink(inode, ".."); err != nil {
		return err
	}

	// Re-read the parent: dropping ".." changed its link count.
	parent, name, err := s.resolveParentDir(path)
	if err != nil {
		return err
	}
	return s.dirs.RemoveLink(parent, name)
}

// Symlink creates a symbolic link at linkPath whose body is target.
func (s *FileSystemService) Symlink(linkPath, target string) error {
	parent, name, err := s.resolveParentDir(linkPath)
	if err != nil {
		return err
	}

	inode, err := s.allocate(types.FileTypeSymlink)
	if err != nil {
		return err
	}
	if err := s.dirs.AddLink(parent, inode.Ino, name); err != nil {
		return s.rollbackAllocation(inode, err)
	}

	// AddLink raised the symlink's link count through its own table fetch;
	// re-read before writing the body through this handle.
	inode, err = s.table.Get(inode.Ino)
	if err != nil {
		return err
	}

	body := []byte(target)
	if err := s.files.Truncate(inode, uint32(len(body))); err != nil {
		_ = s.dirs.RemoveLink(parent, name)
		return err
	}
	if err := s.files.Write(inode, 0, body); err != nil {
		_ = s.dirs.RemoveLink(parent, name)
		return err
	}
	return nil
}

// Open returns a fresh opaque handle for the regular file at path.
// Handles carry no seek cursor; every read and write takes an offset.
func (s *FileSystemService) Open(path string) (string, error) {
	ino, err := s.resolver.Resolve(path, true, s.cwd)
	if err != nil {
		return "", err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return "", err
	}
	if inode.Type != types.FileTypeRegular {
		return "", fmt.Errorf("%w: %q is %s, not a regular file", types.ErrInvalidPath, path, inode.Type)
	}

	handle := uuid.NewString()
	s.handles[handle] = ino
	return handle, nil
}

// Close discards a handle. Closing an unknown handle is a no-op.
func (s *FileSystemService) Close(handle string) error {
	delete(s.handles, handle)
	return nil
}

// Read returns size bytes at offset from the open file behind handle.
func (s *FileSystemService) Read(handle string, offset, size uint32) ([]byte, error) {
	inode, err := s.handleInode(handle)
	if err != nil {
		return nil, err
	}
	return s.files.Read(inode, offset, size)
}

// Write overwrites bytes at offset in the open file behind handle.
func (s *FileSystemService) Write(handle string, offset uint32, data []byte) error {
	inode, err := s.handleInode(handle)
	if err != nil {
		return err
	}
	return s.files.Write(inode, offset, data)
}

// Truncate resizes the regular file at path.
func (s *FileSystemService) Truncate(path string, size uint32) error {
	ino, err := s.resolver.Resolve(path, false, s.cwd)
	if err != nil {
		return err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return err
	}
	if inode.Type != types.FileTypeRegular {
		return fmt.Errorf("%w: %q is %s, not a regular file", types.ErrInvalidPath, path, inode.Type)
	}
	return s.files.Truncate(inode, size)
}

// ReadDir returns the ordered entry list of the directory at path.
func (s *FileSystemService) ReadDir(path string) ([]types.Dentry, error) {
	ino, err := s.resolver.Resolve(path, true, s.cwd)
	if err != nil {
		return nil, err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return nil, err
	}
	if inode.Type != types.FileTypeDirectory {
		return nil, fmt.Errorf("%w: %q is not a directory", types.ErrInvalidPath, path)
	}
	return s.dirs.Read(inode)
}

// Cd changes the current working directory, following trailing symlinks.
func (s *FileSystemService) Cd(path string) error {
	ino, err := s.resolver.Resolve(path, true, s.cwd)
	if err != nil {
		return err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return err
	}
	if inode.Type != types.FileTypeDirectory {
		return fmt.Errorf("%w: %q is not a directory", types.ErrInvalidPath, path)
	}
	s.cwd = ino
	return nil
}

// Pwd walks parent entries up from the working directory, collecting the
// name each parent binds to its child, until the directory whose "." and
// ".." coincide — the root.
func (s *FileSystemService) Pwd() (string, error) {
	var parts []string

	current := s.cwd
	for {
		dir, err := s.table.Get(current)
		if err != nil {
			return "", err
		}
		entries, err := s.dirs.Read(dir)
		if err != nil {
			return "", err
		}

		self, parent := uint32(types.NanBlockAddress), uint32(types.NanBlockAddress)
		for _, entry := range entries {
			switch entry.Name {
			case ".":
				self = entry.Ino
			case "..":
				parent = entry.Ino
			}
		}
		if self == parent {
			break
		}

		parentInode, err := s.table.Get(parent)
		if err != nil {
			return "", err
		}
		parentEntries, err := s.dirs.Read(parentInode)
		if err != nil {
			return "", err
		}

		name := ""
		for _, entry := range parentEntries {
			if entry.Ino == current && entry.Name != "." && entry.Name != ".." {
				name = entry.Name
				break
			}
		}
		if name == "" {
			return "", fmt.Errorf("%w: directory %d not reachable from its parent", types.ErrInvalidPath, current)
		}

		parts = append(parts, name)
		current = parent
	}

	if len(parts) == 0 {
		return "/", nil
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return "/" + strings.Join(parts, "/"), nil
}

// Lookup resolves path to a descriptor index from the working directory.
func (s *FileSystemService) Lookup(path string, followTrailing bool) (uint32, error) {
	return s.resolver.Resolve(path, followTrailing, s.cwd)
}

// Stat returns a snapshot of the descriptor behind path without following
// a trailing symlink.
func (s *FileSystemService) Stat(path string) (types.Inode, error) {
	ino, err := s.resolver.Resolve(path, false, s.cwd)
	if err != nil {
		return types.Inode{}, err
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return types.Inode{}, err
	}
	return *inode, nil
}

// Usage reports allocator state by bitmap and table scan.
func (s *FileSystemService) Usage() (types.UsageInfo, error) {
	freeBlocks, err := s.space.FreeBlockCount()
	if err != nil {
		return types.UsageInfo{}, err
	}
	n, err := s.space.DescriptorCount()
	if err != nil {
		return types.UsageInfo{}, err
	}
	freeDescriptors, err := s.table.FreeCount()
	if err != nil {
		return types.UsageInfo{}, err
	}

	return types.UsageInfo{
		BlockSize:        s.dev.BlockSize(),
		TotalBlocks:      s.dev.BlockCount(),
		FreeBlocks:       freeBlocks,
		TotalDescriptors: n,
		FreeDescriptors:  freeDescriptors,
	}, nil
}

// resolveParentDir splits path into its final name and the directory it
// lives in, resolving the directory part with trailing symlinks followed.
func (s *FileSystemService) resolveParentDir(path string) (*types.Inode, string, error) {
	if path == "" || path == "/" {
		return nil, "", fmt.Errorf("%w: %q carries no final component", types.ErrInvalidPath, path)
	}

	name := path
	parentPath := ""
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		name = path[idx+1:]
		parentPath = path[:idx]
		if idx == 0 {
			parentPath = "/"
		}
	}
	if name == "" {
		return nil, "", fmt.Errorf("%w: empty component in %q", types.ErrInvalidPath, path)
	}

	parentIno, err := s.resolver.Resolve(parentPath, true, s.cwd)
	if err != nil {
		return nil, "", err
	}
	parent, err := s.table.Get(parentIno)
	if err != nil {
		return nil, "", err
	}
	if parent.Type != types.FileTypeDirectory {
		return nil, "", fmt.Errorf("%w: %q is not a directory", types.ErrInvalidPath, parentPath)
	}
	return parent, name, nil
}

// allocate claims the first unused descriptor and initializes it for a
// fresh life, with the whole extent map reset.
func (s *FileSystemService) allocate(fileType types.FileType) (*types.Inode, error) {
	inode, err := s.table.FindUnused()
	if err != nil {
		return nil, err
	}
	inode.Type = fileType
	inode.Refs = 0
	inode.Size = 0
	inode.ResetLinks()
	if err := s.table.Update(inode); err != nil {
		return nil, err
	}
	return inode, nil
}

// rollbackAllocation returns a partially created inode to the unused pool
// and re-raises cause.
func (s *FileSystemService) rollbackAllocation(inode *types.Inode, cause error) error {
	inode.Type = types.FileTypeUnused
	if err := s.table.Update(inode); err != nil {
		return err
	}
	return cause
}

// handleInode maps an open handle to its descriptor, rejecting handles
// whose inode was reclaimed while open.
func (s *FileSystemService) handleInode(handle string) (*types.Inode, error) {
	ino, ok := s.handles[handle]
	if !ok {
		return nil, fmt.Errorf("%w: unknown file handle", types.ErrInvalidArgument)
	}
	inode, err := s.table.Get(ino)
	if err != nil {
		return nil, err
	}
	if inode.Type != types.FileTypeRegular {
		return nil, fmt.Errorf("%w: handle refers to a %s inode", types.ErrInvalidArgument, inode.Type)
	}
	return inode, nil
}
