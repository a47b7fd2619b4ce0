package messages

import "github.com/ienet/ienet/internal/protocol"

// PublicMessage carries location chat to everyone at the sender's
// location.
type PublicMessage struct {
	Username string
	Message  []byte
}

func (m PublicMessage) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/send", []byte(m.Username), m.Message)
}

// PrivateMessage delivers a whisper to its recipient. Location is the
// sender's current location in rendered form.
type PrivateMessage struct {
	Location string
	From     string
	To       string
	Message  []byte
}

func (m PrivateMessage) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/msg",
		[]byte(m.Location), []byte(m.From), []byte(m.To), m.Message)
}

// PrivateMessageEcho confirms a sent whisper back to its author.
type PrivateMessageEcho struct {
	To      string
	Message []byte
}

func (m PrivateMessageEcho) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/msgc", []byte(m.To), m.Message)
}

// ErrorMessage reports a failed command to its sender.
type ErrorMessage struct {
	Error string
}

func (m ErrorMessage) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/error", []byte(m.Error))
}
