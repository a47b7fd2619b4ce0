// Package messages renders broker events into the wire formats the game
// client understands: zlib handshake frames during login and NUL-terminated
// command lines afterwards.
package messages

// ServerMessage is one outbound message in its complete wire form.
type ServerMessage interface {
	// AppendTo appends the wire encoding to dst and returns dst.
	AppendTo(dst []byte) []byte
}

// Encode renders msg into a fresh buffer.
func Encode(msg ServerMessage) []byte {
	return msg.AppendTo(nil)
}
