package messages

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/protocol"
)

// CreateGame tells the host's client to create a local game session.
// The client echoes InviteToken back in the confirmation.
type CreateGame struct {
	Version     uuid.UUID
	Name        string
	Password    []byte
	InviteToken uuid.UUID
}

func (m CreateGame) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/plays",
		[]byte(m.Version.String()),
		[]byte(m.Name),
		m.Password,
		[]byte("0xcb"),
		[]byte(m.InviteToken.String()))
}

// JoinGame tells a joiner's client to connect to the host at HostIP.
type JoinGame struct {
	Version     uuid.UUID
	Name        string
	Password    []byte
	HostIP      net.IP
	InviteToken uuid.UUID
}

func (m JoinGame) AppendTo(dst []byte) []byte {
	ip4 := m.HostIP.To4()
	// the address parameter folds the octets of a.b.c.d little-endian,
	// so d ends up in the high byte
	addr := fmt.Sprintf("0x%08x", binary.LittleEndian.Uint32(ip4))
	return protocol.AppendCommand(dst, "/playc",
		[]byte(m.Version.String()),
		[]byte(m.Name),
		m.Password,
		[]byte(addr),
		[]byte(m.InviteToken.String()),
		[]byte(ip4.String()))
}

// GameOpened announces a joinable game to all users.
type GameOpened struct {
	Name        string
	InviteToken uuid.UUID
}

func (m GameOpened) AppendTo(dst []byte) []byte {
	zero := []byte("0")
	return protocol.AppendCommand(dst, "/$play",
		[]byte(m.Name), zero, zero, zero,
		[]byte(m.InviteToken.String()), zero)
}

// GameDropped removes a game from all users' listings.
type GameDropped struct {
	Name string
}

func (m GameDropped) AppendTo(dst []byte) []byte {
	return protocol.AppendCommand(dst, "/&play", []byte(m.Name))
}
