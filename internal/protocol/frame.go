package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/ienet/ienet/internal/constants"
)

// Handshake frames carry a little-endian uint32 length prefix followed by
// a zlib stream. The prefix value includes the 4 prefix bytes themselves.

// ErrFrameTooLarge reports a handshake frame whose declared length exceeds
// constants.MaxHandshakeFrame.
var ErrFrameTooLarge = errors.New("handshake frame too large")

// DecodeFrame extracts one handshake frame from the front of buf and
// returns the decompressed payload together with the number of bytes
// consumed. consumed == 0 with a nil error means buf does not yet hold a
// complete frame and the caller should read more data before retrying.
func DecodeFrame(buf []byte) (payload []byte, consumed int, err error) {
	if len(buf) < constants.FrameLengthSize {
		return nil, 0, nil
	}

	frameLen := int(binary.LittleEndian.Uint32(buf))
	if frameLen > constants.MaxHandshakeFrame {
		return nil, 0, fmt.Errorf("%w: declared %d bytes", ErrFrameTooLarge, frameLen)
	}
	if frameLen < constants.FrameLengthSize {
		return nil, 0, fmt.Errorf("invalid frame length %d", frameLen)
	}
	if len(buf) < frameLen {
		return nil, 0, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(buf[constants.FrameLengthSize:frameLen]))
	if err != nil {
		return nil, 0, fmt.Errorf("opening zlib stream: %w", err)
	}
	defer zr.Close()

	payload, err = io.ReadAll(zr)
	if err != nil {
		return nil, 0, fmt.Errorf("decompressing frame: %w", err)
	}
	return payload, frameLen, nil
}

// EncodeFrame compresses payload into a length-prefixed handshake frame.
func EncodeFrame(payload []byte) []byte {
	buf := bytes.NewBuffer(make([]byte, constants.FrameLengthSize, constants.FrameLengthSize+len(payload)/2+64))

	zw := zlib.NewWriter(buf)
	_, _ = zw.Write(payload) // writes into bytes.Buffer cannot fail
	_ = zw.Close()

	frame := buf.Bytes()
	binary.LittleEndian.PutUint32(frame[:constants.FrameLengthSize], uint32(len(frame)))
	return frame
}
