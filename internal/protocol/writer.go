package protocol

import (
	"bytes"
	"sync"

	"github.com/google/uuid"
)

// Writer builds handshake payloads.
// All multi-byte values are written little-endian.
type Writer struct {
	buf bytes.Buffer
}

// writerPool reduces allocations by reusing Writers across handshakes.
var writerPool = sync.Pool{
	New: func() any {
		w := &Writer{}
		w.buf.Grow(512)
		return w
	},
}

// GetWriter returns a Writer from the pool, reset and ready for use.
func GetWriter() *Writer {
	w := writerPool.Get().(*Writer)
	w.buf.Reset()
	return w
}

// Put returns the Writer to the pool for reuse.
// IMPORTANT: Do not use the Writer after calling Put.
func (w *Writer) Put() {
	writerPool.Put(w)
}

// WriteUint8 writes a single byte.
func (w *Writer) WriteUint8(v uint8) {
	w.buf.WriteByte(v)
}

// WriteUint32 writes a uint32 (4 bytes, LE).
func (w *Writer) WriteUint32(v uint32) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 24))
}

// WriteUint64 writes a uint64 (8 bytes, LE).
func (w *Writer) WriteUint64(v uint64) {
	w.buf.WriteByte(byte(v))
	w.buf.WriteByte(byte(v >> 8))
	w.buf.WriteByte(byte(v >> 16))
	w.buf.WriteByte(byte(v >> 24))
	w.buf.WriteByte(byte(v >> 32))
	w.buf.WriteByte(byte(v >> 40))
	w.buf.WriteByte(byte(v >> 48))
	w.buf.WriteByte(byte(v >> 56))
}

// WriteBytes writes b as-is.
func (w *Writer) WriteBytes(b []byte) {
	w.buf.Write(b)
}

// WriteLPBytes writes a uint32 length prefix followed by b.
func (w *Writer) WriteLPBytes(b []byte) {
	w.WriteUint32(uint32(len(b)))
	w.buf.Write(b)
}

// WriteLPString writes s as a length-prefixed byte string.
func (w *Writer) WriteLPString(s string) {
	w.WriteUint32(uint32(len(s)))
	w.buf.WriteString(s)
}

// WriteGUID writes id in the legacy wire layout (see AppendGUID).
func (w *Writer) WriteGUID(id uuid.UUID) {
	head := [8]byte{id[3], id[2], id[1], id[0], id[5], id[4], id[7], id[6]}
	w.buf.Write(head[:])
	w.buf.Write(id[8:])
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) {
	for i := 0; i < n; i++ {
		w.buf.WriteByte(0)
	}
}

// Bytes returns the payload built so far.
// The slice is only valid until the next write or Put.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Len returns the payload size in bytes.
func (w *Writer) Len() int {
	return w.buf.Len()
}
