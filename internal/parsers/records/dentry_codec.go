// File: internal/parsers/records/dentry_codec.go
package records

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-unixfs/internal/types"
)

// EncodeDentry packs a directory entry: the UTF-8 filename, zero padding up
// to the fixed field width, then the 4-byte inode number. A name longer
// than the field is truncated to fit; a name of exactly the field width is
// stored without a NUL terminator.
func EncodeDentry(entry types.Dentry) []byte {
	buf := make([]byte, types.DentrySize)
	name := []byte(entry.Name)
	if len(name) > types.FileNameSize {
		name = name[:types.FileNameSize]
	}
	copy(buf, name)
	binary.BigEndian.PutUint32(buf[types.FileNameSize:], entry.Ino)
	return buf
}

// DecodeDentry unpacks a directory entry. The filename is the bytes before
// the first NUL in the name field, or the whole field when no NUL exists.
func DecodeDentry(data []byte) (types.Dentry, error) {
	if len(data) < types.DentrySize {
		return types.Dentry{}, fmt.Errorf("insufficient data for directory entry: %d bytes", len(data))
	}

	nameField := data[:types.FileNameSize]
	if idx := bytes.IndexByte(nameField, 0); idx >= 0 {
		nameField = nameField[:idx]
	}

	return types.Dentry{
		Name: string(nameField),
		Ino:  binary.BigEndian.Uint32(data[types.FileNameSize:]),
	}, nil
}
