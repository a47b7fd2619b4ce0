package protocol

import (
	"encoding/binary"
	"fmt"
)

// Reader is a cursor over a decompressed handshake payload.
// All multi-byte values are little-endian.
type Reader struct {
	data []byte
	pos  int
}

// NewReader creates a payload reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadUint8 reads a single byte.
func (r *Reader) ReadUint8() (uint8, error) {
	if r.pos+1 > len(r.data) {
		return 0, fmt.Errorf("ReadUint8: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := r.data[r.pos]
	r.pos++
	return val, nil
}

// ReadUint16 reads a uint16 (2 bytes, LE).
func (r *Reader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, fmt.Errorf("ReadUint16: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return val, nil
}

// ReadUint32 reads a uint32 (4 bytes, LE).
func (r *Reader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, fmt.Errorf("ReadUint32: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return val, nil
}

// ReadUint64 reads a uint64 (8 bytes, LE).
func (r *Reader) ReadUint64() (uint64, error) {
	if r.pos+8 > len(r.data) {
		return 0, fmt.Errorf("ReadUint64: not enough data (pos=%d, len=%d)", r.pos, len(r.data))
	}
	val := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return val, nil
}

// ReadBytes reads n bytes as a subslice of the payload (zero-copy).
// The result shares memory with the payload; callers that keep the bytes
// past the payload's lifetime must copy them.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("ReadBytes: negative count %d", n)
	}
	if r.pos+n > len(r.data) {
		return nil, fmt.Errorf("ReadBytes: not enough data (pos=%d, need=%d, len=%d)", r.pos, n, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadLPBytes reads a uint32 length prefix followed by that many bytes.
func (r *Reader) ReadLPBytes() ([]byte, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("ReadLPBytes: %w", err)
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return nil, fmt.Errorf("ReadLPBytes: %w", err)
	}
	return b, nil
}

// ReadLPString reads a length-prefixed byte string as a Go string.
func (r *Reader) ReadLPString() (string, error) {
	b, err := r.ReadLPBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}
