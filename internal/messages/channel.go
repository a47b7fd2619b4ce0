package messages

import (
	"strconv"

	"github.com/ienet/ienet/internal/protocol"
)

// ChannelCreated announces a new channel to all users.
type ChannelCreated struct {
	Name string
}

func (m ChannelCreated) AppendTo(dst []byte) []byte {
	// the client expects a second parameter; its meaning is unknown
	return protocol.AppendCommand(dst, "/$channel", []byte(m.Name), []byte("0"))
}

// ChannelDropped removes a channel from all users' listings.
type ChannelDropped struct {
	Name string
}

func (m ChannelDropped) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/&channel", []byte(m.Name))
}

// UserInChannel lists one existing occupant to a user entering a channel.
// Note the verb carries no slash.
type UserInChannel struct {
	Username string
}

func (m UserInChannel) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "$user", []byte(m.Username), []byte("0"))
}

// UserJoined announces an arrival to the occupants of a location. Origin
// is the rendered previous location; when empty the parameter is omitted.
type UserJoined struct {
	Username     string
	VersionIndex uint32
	Origin       string
}

func (m UserJoined) AppendTo(dst []byte) []byte {
	var tmp [10]byte
	idx := strconv.AppendUint(tmp[:0], uint64(m.VersionIndex), 10)

	if m.Origin == "" {
		return protocol.AppendCommand(dst, "/$user", []byte(m.Username), idx)
	}
	return protocol.AppendCommand(dst, "/$user", []byte(m.Username), idx, []byte(m.Origin))
}

// UserLeft announces a departure to the occupants of a location.
// Destination is the rendered next location; when empty (the user
// disconnected) the parameter is omitted.
type UserLeft struct {
	Username    string
	Destination string
}

func (m UserLeft) AppendTo(dst []byte) []byte {
	if m.Destination == "" {
		return protocol.AppendCommand(dst, "/&user", []byte(m.Username))
	}
	return protocol.AppendCommand(dst, "/&user", []byte(m.Username), []byte(m.Destination))
}

// ChannelJoined acknowledges a channel switch to the mover.
type ChannelJoined struct {
	Channel string
}

func (m ChannelJoined) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/join", []byte(m.Channel))
}
