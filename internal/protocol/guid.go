package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// The client encodes GUIDs in the Windows mixed-endian layout: the first
// canonical group as a little-endian uint32, the next two as little-endian
// uint16, and the final 8 bytes raw.

// AppendGUID appends id to dst in wire layout and returns dst.
func AppendGUID(dst []byte, id uuid.UUID) []byte {
	dst = append(dst, id[3], id[2], id[1], id[0])
	dst = append(dst, id[5], id[4], id[7], id[6])
	return append(dst, id[8:]...)
}

// ReadGUID reads a wire-layout GUID and returns it in canonical form.
func (r *Reader) ReadGUID() (uuid.UUID, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ReadGUID: %w", err)
	}
	var id uuid.UUID
	id[0], id[1], id[2], id[3] = b[3], b[2], b[1], b[0]
	id[4], id[5] = b[5], b[4]
	id[6], id[7] = b[7], b[6]
	copy(id[8:], b[8:16])
	return id, nil
}
