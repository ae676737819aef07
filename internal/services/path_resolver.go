// File: internal/services/path_resolver.go
package services

import (
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-unixfs/internal/managers/descriptors"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// ErrSymlinkDepthExceeded is raised when one resolution performs more
// symlink expansions than MaxSymlinkDepth allows.
var ErrSymlinkDepthExceeded = fmt.Errorf("%w: symlink max depth exceeded", types.ErrInvalidPath)

// PathResolver walks paths component-wise from the root or a base
// directory. Symlink bodies resolve relative to the directory containing
// the symlink; a shared expansion counter bounds the total number of
// expansions one resolution may perform, however the hops are nested.
type PathResolver struct {
	table *descriptors.Manager
	files *FileService
	dirs  *DirectoryService
}

// NewPathResolver returns a resolver reading through the given engines.
func NewPathResolver(table *descriptors.Manager, files *FileService, dirs *DirectoryService) *PathResolver {
	return &PathResolver{table: table, files: files, dirs: dirs}
}

// Resolve maps path to a descriptor index. base anchors relative paths;
// followTrailing selects whether a symlink in the final component is
// expanded (intermediate components always are).
func (r *PathResolver) Resolve(path string, followTrailing bool, base uint32) (uint32, error) {
	expansions := 0
	return r.resolve(path, followTrailing, &expansions, base)
}

func (r *PathResolver) resolve(path string, followTrailing bool, expansions *int, base uint32) (uint32, error) {
	if path == "/" {
		return types.RootInode, nil
	}
	if path == "" {
		return base, nil
	}

	name := path
	dirIno := base
	if idx := strings.LastIndex(path, "/"); idx >= 0 {
		name = path[idx+1:]
		parent := path[:idx]
		if idx == 0 {
			parent = "/"
		}
		var err error
		dirIno, err = r.resolve(parent, true, expansions, base)
		if err != nil {
			return 0, err
		}
	}
	// Empty components (trailing slashes, "a//b") are rejected, not
	// normalized.
	if name == "" {
		return 0, fmt.Errorf("%w: empty component in %q", types.ErrInvalidPath, path)
	}

	dir, err := r.table.Get(dirIno)
	if err != nil {
		return 0, err
	}
	if dir.Type != types.FileTypeDirectory {
		return 0, fmt.Errorf("%w: inode %d is not a directory", types.ErrInvalidPath, dirIno)
	}

	entry, found, err := r.dirs.Find(dir, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %q has no entry %q", types.ErrInvalidPath, path, name)
	}

	target, err := r.table.Get(entry.Ino)
	if err != nil {
		return 0, err
	}
	if target.Type == types.FileTypeSymlink && followTrailing {
		if *expansions >= types.MaxSymlinkDepth {
			return 0, ErrSymlinkDepthExceeded
		}
		*expansions++

		body, err := r.files.Read(target, 0, target.Size)
		if err != nil {
			return 0, err
		}
		return r.resolve(string(body), true, expansions, dirIno)
	}
	return entry.Ino, nil
}
