package protocol

import "bytes"

// ClientCommand is one parsed command-phase request. Variants own their
// data: nothing aliases the read buffer the line was scanned from, so the
// caller may reuse it immediately.
type ClientCommand interface {
	clientCommand()
}

// SendChat posts a message to every user at the sender's location.
type SendChat struct {
	Message []byte
}

// PrivateMessage delivers a message to a single user, or to the occupants
// of a channel ("#name" target) or game ("$name" target).
type PrivateMessage struct {
	Target  string
	Message []byte
}

// JoinChannel moves the sender into the named channel.
type JoinChannel struct {
	Channel string
}

// HostGame requests, confirms, or starts a hosted game depending on the
// game's current status. Password carries either the password bytes or
// the echoed invite token.
type HostGame struct {
	Name     string
	Password []byte
}

// JoinGame asks to join a hosted game with a password or invite token.
type JoinGame struct {
	Name     string
	Password []byte
}

// NoOp is an empty or whitespace-only line. It produces no reply.
type NoOp struct{}

// Unknown is a command with an unrecognized verb.
type Unknown struct {
	Verb string
}

// Malformed is a line that could not be interpreted. Reason is echoed
// back to the client.
type Malformed struct {
	Reason string
}

func (SendChat) clientCommand()       {}
func (PrivateMessage) clientCommand() {}
func (JoinChannel) clientCommand()    {}
func (HostGame) clientCommand()       {}
func (JoinGame) clientCommand()       {}
func (NoOp) clientCommand()           {}
func (Unknown) clientCommand()        {}
func (Malformed) clientCommand()      {}

// ParseClientCommand interprets one command line. Parse and arity
// failures are returned in-band as Malformed so the caller can echo an
// error instead of dropping the connection.
func ParseClientCommand(line []byte) ClientCommand {
	raw, err := ParseRawCommand(line)
	if err != nil {
		return Malformed{Reason: "Received message is invalid"}
	}

	if raw.Verb == "" && len(raw.Params) == 0 {
		return NoOp{}
	}

	switch raw.Verb {
	case "send":
		if len(raw.Params) < 1 {
			return missingParams(raw.Verb)
		}
		return SendChat{Message: joinParams(raw.Params)}
	case "msg":
		if len(raw.Params) < 2 {
			return missingParams(raw.Verb)
		}
		return PrivateMessage{
			Target:  string(raw.Params[0]),
			Message: joinParams(raw.Params[1:]),
		}
	case "join":
		if len(raw.Params) < 1 {
			return missingParams(raw.Verb)
		}
		return JoinChannel{Channel: string(raw.Params[0])}
	case "plays":
		// the first parameter is reserved and ignored
		if len(raw.Params) < 3 {
			return missingParams(raw.Verb)
		}
		return HostGame{
			Name:     string(raw.Params[1]),
			Password: bytes.Clone(raw.Params[2]),
		}
	case "playc":
		if len(raw.Params) < 2 {
			return missingParams(raw.Verb)
		}
		return JoinGame{
			Name:     string(raw.Params[0]),
			Password: bytes.Clone(raw.Params[1]),
		}
	default:
		return Unknown{Verb: raw.Verb}
	}
}

func missingParams(verb string) Malformed {
	return Malformed{Reason: "Missing parameters for /" + verb}
}

// joinParams joins message fragments with single spaces into one owned
// slice.
func joinParams(params [][]byte) []byte {
	return bytes.Join(params, []byte{' '})
}
