// File: internal/types/file_system.go
package types

// Inode is the in-memory form of one descriptor record. All fields are
// stored big-endian on the device; see the records codec for the packed
// layout.
type Inode struct {
	// Ino is the descriptor index. Redundant on disk but stored.
	Ino uint32

	// Type distinguishes live descriptors from free slots.
	Type FileType

	// Refs is the hard-link count. A directory counts its entry in its
	// parent, its own "." entry, and one per child directory's "..".
	Refs uint16

	// Size is the logical byte length of the file body.
	Size uint32

	// StraightLinks holds the direct block addresses. Slots past the
	// logical end of the file hold NanBlockAddress.
	StraightLinks [DirectLinksCount]uint32

	// SingleIndirect is the address of a block holding further block
	// addresses, or NanBlockAddress while the file fits in the direct
	// slots.
	SingleIndirect uint32

	// DoubleIndirect is the address of a block holding single-indirect
	// block addresses, or NanBlockAddress.
	DoubleIndirect uint32
}

// ResetLinks reinitializes the whole extent map to the no-block sentinel.
// Freshly (re)allocated descriptors must start from this state or the
// extent engine's bounds logic is wrong.
func (i *Inode) ResetLinks() {
	for k := range i.StraightLinks {
		i.StraightLinks[k] = NanBlockAddress
	}
	i.SingleIndirect = NanBlockAddress
	i.DoubleIndirect = NanBlockAddress
}

// Dentry is one directory entry: a filename bound to a descriptor index.
type Dentry struct {
	Name string
	Ino  uint32
}

// UsageInfo summarizes allocator state for reporting surfaces.
type UsageInfo struct {
	BlockSize        uint32
	TotalBlocks      uint32
	FreeBlocks       uint32
	TotalDescriptors uint32
	FreeDescriptors  uint32
}
