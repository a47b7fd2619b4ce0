package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ienet/ienet/internal/constants"
)

// Command frames are NUL-terminated text lines: an optional '/', an ASCII
// verb, then whitespace-separated parameters. A parameter is bare (no
// whitespace or '"') or double-quoted; a quoted parameter may contain any
// byte except '"' and ends at the closing quote or at end of line.

// ErrLineTooLong reports that more than constants.MaxCommandLine bytes
// were buffered without a NUL terminator.
var ErrLineTooLong = errors.New("command line too long")

// ErrBadCommand reports a line the tokenizer could not parse.
var ErrBadCommand = errors.New("malformed command line")

// ScanLine extracts one command line from the front of buf, excluding the
// NUL terminator. consumed == 0 with a nil error means no complete line
// is buffered yet.
func ScanLine(buf []byte) (line []byte, consumed int, err error) {
	i := bytes.IndexByte(buf, 0)
	if i < 0 {
		if len(buf) > constants.MaxCommandLine {
			return nil, 0, fmt.Errorf("%w: %d bytes buffered", ErrLineTooLong, len(buf))
		}
		return nil, 0, nil
	}
	return buf[:i], i + 1, nil
}

// RawCommand is a tokenized command line. The verb is lowercased; params
// keep their raw bytes with quoting removed. Both alias the scanned line
// and are only valid until the caller reuses its read buffer.
type RawCommand struct {
	Verb   string
	Params [][]byte
}

// ParseRawCommand tokenizes one command line.
func ParseRawCommand(line []byte) (RawCommand, error) {
	rest := line
	if len(rest) > 0 && rest[0] == '/' {
		rest = rest[1:]
	}

	verbEnd := 0
	for verbEnd < len(rest) && isVerbByte(rest[verbEnd]) {
		verbEnd++
	}
	verb := strings.ToLower(string(rest[:verbEnd]))
	rest = rest[verbEnd:]

	if len(rest) == 0 {
		return RawCommand{Verb: verb}, nil
	}
	if !isSpaceByte(rest[0]) {
		return RawCommand{}, fmt.Errorf("%w: unexpected byte %q after verb", ErrBadCommand, rest[0])
	}
	rest = skipSpaces(rest)

	var params [][]byte
	for {
		param, after, ok := scanParam(rest)
		if !ok {
			break
		}
		params = append(params, param)
		rest = after

		// the next parameter needs at least one whitespace separator
		sep := skipSpaces(rest)
		if len(sep) == len(rest) {
			break
		}
		if _, _, ok := scanParam(sep); !ok {
			break
		}
		rest = sep
	}

	rest = skipSpaces(rest)
	if len(rest) != 0 {
		return RawCommand{}, fmt.Errorf("%w: trailing bytes after parameters", ErrBadCommand)
	}
	return RawCommand{Verb: verb, Params: params}, nil
}

// scanParam consumes one parameter from the front of rest.
func scanParam(rest []byte) (param, after []byte, ok bool) {
	if len(rest) == 0 {
		return nil, nil, false
	}

	if rest[0] == '"' {
		rest = rest[1:]
		end := bytes.IndexByte(rest, '"')
		if end < 0 {
			// unterminated quote runs to end of line
			return rest, rest[len(rest):], true
		}
		return rest[:end], rest[end+1:], true
	}

	end := 0
	for end < len(rest) && !isParamStop(rest[end]) {
		end++
	}
	if end == 0 {
		return nil, nil, false
	}
	return rest[:end], rest[end:], true
}

// AppendCommand renders an outbound command line into dst and returns
// dst. Every parameter is quoted and embedded '"' bytes are escaped as
// "%22"; the line is NUL-terminated.
func AppendCommand(dst []byte, verb string, params ...[]byte) []byte {
	dst = append(dst, verb...)
	for _, param := range params {
		dst = append(dst, ' ', '"')
		dst = appendEscaped(dst, param)
		dst = append(dst, '"')
	}
	return append(dst, 0)
}

func appendEscaped(dst, param []byte) []byte {
	for _, b := range param {
		if b == '"' {
			dst = append(dst, '%', '2', '2')
		} else {
			dst = append(dst, b)
		}
	}
	return dst
}

func isVerbByte(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// isSpaceByte matches the separator set between parameters.
func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

// isParamStop matches the bytes that terminate a bare parameter.
func isParamStop(b byte) bool {
	return b == ' ' || b == '\t' || b == '"'
}

func skipSpaces(rest []byte) []byte {
	for len(rest) > 0 && isSpaceByte(rest[0]) {
		rest = rest[1:]
	}
	return rest
}
