// File: internal/services/directory_service.go
package services

import (
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/managers/descriptors"
	"github.com/deploymenttheory/go-unixfs/internal/parsers/records"
	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// DirectoryService serializes the ordered entry list of a directory into
// the directory inode's file body. The body length is always a multiple of
// the packed entry width.
type DirectoryService struct {
	table *descriptors.Manager
	files *FileService
}

// NewDirectoryService returns a directory engine persisting through table
// and files.
func NewDirectoryService(table *descriptors.Manager, files *FileService) *DirectoryService {
	return &DirectoryService{table: table, files: files}
}

// Read decodes the full entry list of dir.
func (s *DirectoryService) Read(dir *types.Inode) ([]types.Dentry, error) {
	raw, err := s.files.Read(dir, 0, dir.Size)
	if err != nil {
		return nil, err
	}

	entries := make([]types.Dentry, 0, len(raw)/types.DentrySize)
	for off := 0; off+types.DentrySize <= len(raw); off += types.DentrySize {
		entry, err := records.DecodeDentry(raw[off : off+types.DentrySize])
		if err != nil {
			return nil, fmt.Errorf("failed to decode entry %d of directory %d: %w", off/types.DentrySize, dir.Ino, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Find returns the entry carrying name, if present.
func (s *DirectoryService) Find(dir *types.Inode, name string) (types.Dentry, bool, error) {
	entries, err := s.Read(dir)
	if err != nil {
		return types.Dentry{}, false, err
	}
	for _, entry := range entries {
		if entry.Name == name {
			return entry, true, nil
		}
	}
	return types.Dentry{}, false, nil
}

// AddLink appends an entry binding name to targetIno at the tail of dir and
// increments the target's hard-link count. Names longer than the filename
// field are truncated before the collision check so the stored form is the
// one compared.
func (s *DirectoryService) AddLink(dir *types.Inode, targetIno uint32, name string) error {
	if len(name) > types.FileNameSize {
		name = name[:types.FileNameSize]
	}
	if name == "" {
		return fmt.Errorf("%w: empty entry name", types.ErrInvalidPath)
	}

	if _, found, err := s.Find(dir, name); err != nil {
		return err
	} else if found {
		return fmt.Errorf("%w: %q in directory %d", types.ErrFileAlreadyExist, name, dir.Ino)
	}

	tail := dir.Size
	if err := s.files.Truncate(dir, tail+types.DentrySize); err != nil {
		return err
	}
	entry := records.EncodeDentry(types.Dentry{Name: name, Ino: targetIno})
	if err := s.files.Write(dir, tail, entry); err != nil {
		return err
	}

	// The target may be the directory itself ("." and root's "..");
	// mutate the live struct rather than a stale table copy.
	if targetIno == dir.Ino {
		dir.Refs++
		return s.table.Update(dir)
	}
	target, err := s.table.Get(targetIno)
	if err != nil {
		return err
	}
	target.Refs++
	return s.table.Update(target)
}

// RemoveLink deletes the entry carrying name from dir, re-serializing the
// surviving list from offset zero and truncating to exactly the new entry
// count. The target's hard-link count drops; at zero the inode's body is
// released and its descriptor returns to the unused pool.
func (s *DirectoryService) RemoveLink(dir *types.Inode, name string) error {
	entries, err := s.Read(dir)
	if err != nil {
		return err
	}

	at := -1
	for i, entry := range entries {
		if entry.Name == name {
			at = i
			break
		}
	}
	if at < 0 {
		return fmt.Errorf("%w: %q not found in directory %d", types.ErrInvalidPath, name, dir.Ino)
	}

	targetIno := entries[at].Ino
	remaining := append(entries[:at:at], entries[at+1:]...)

	packed := make([]byte, 0, len(remaining)*types.DentrySize)
	for _, entry := range remaining {
		packed = append(packed, records.EncodeDentry(entry)...)
	}
	if len(packed) > 0 {
		if err := s.files.Write(dir, 0, packed); err != nil {
			return err
		}
	}
	if err := s.files.Truncate(dir, uint32(len(packed))); err != nil {
		return err
	}

	if targetIno == dir.Ino {
		dir.Refs--
		if dir.Refs == 0 {
			return s.reclaim(dir)
		}
		return s.table.Update(dir)
	}

	target, err := s.table.Get(targetIno)
	if err != nil {
		return err
	}
	target.Refs--
	if target.Refs == 0 {
		return s.reclaim(target)
	}
	return s.table.Update(target)
}

// reclaim releases everything a dead inode owns and frees its descriptor.
func (s *DirectoryService) reclaim(inode *types.Inode) error {
	if err := s.files.Truncate(inode, 0); err != nil {
		return err
	}
	inode.Type = types.FileTypeUnused
	return s.table.Update(inode)
}
