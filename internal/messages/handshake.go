package messages

import (
	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/protocol"
)

// IdentOK acknowledges an accepted ident exchange.
type IdentOK struct{}

func (IdentOK) AppendTo(dst []byte) []byte {
	w := protocol.GetWriter()
	defer w.Put()

	w.WriteUint32(0) // status OK
	w.WriteUint32(16)
	for _i := 0; _i < 4; _i++ {
		w.WriteUint32(constants.IdentSalt)
	}

	return append(dst, protocol.EncodeFrame(w.Bytes())...)
}

// Reject refuses an ident or login attempt without closing the
// connection.
type Reject struct {
	Reason string
}

func (m Reject) AppendTo(dst []byte) []byte {
	w := protocol.GetWriter()
	defer w.Put()

	w.WriteUint32(constants.RejectCode)
	w.WriteLPString(m.Reason)

	return append(dst, protocol.EncodeFrame(w.Bytes())...)
}

// Welcome completes a successful login. Apart from the identity strings
// and counters, the layout is a series of opaque values the client
// insists on; they are reproduced exactly as the retail server sent them.
type Welcome struct {
	ServerIdent    string
	WelcomeMessage string
	UsersTotal     uint32
	UsersOnline    uint32
	ChannelsTotal  uint32
	GamesTotal     uint32
	GamesAvailable uint32
	GameVersions   []string
	InitialChannel string
}

func (m Welcome) AppendTo(dst []byte) []byte {
	content := protocol.GetWriter()
	defer content.Put()

	content.WriteLPString(m.ServerIdent)
	content.WriteLPString(m.WelcomeMessage)
	content.WriteUint64(25)
	content.WriteUint32(24)
	content.WriteUint32(m.UsersTotal)
	content.WriteUint32(m.UsersOnline)
	content.WriteUint32(m.ChannelsTotal)
	content.WriteUint32(m.GamesTotal)
	content.WriteUint32(0)
	content.WriteUint32(18)
	content.WriteUint32(m.GamesAvailable)
	content.WriteUint32(16)

	// the version list appears three times, each 0xff-terminated
	for _i := 0; _i < 3; _i++ {
		for i, version := range m.GameVersions {
			content.WriteUint8(uint8(i))
			content.WriteLPString(version)
		}
		content.WriteUint8(0xff)
	}
	content.WriteUint8(0)

	content.WriteLPString(m.InitialChannel)
	content.WriteUint32(0)
	content.WriteZeros(16)
	content.WriteUint32(0)
	content.WriteZeros(16)

	payload := protocol.GetWriter()
	defer payload.Put()

	payload.WriteUint32(0) // status OK
	payload.WriteLPBytes(content.Bytes())

	return append(dst, protocol.EncodeFrame(payload.Bytes())...)
}
