package constants

import "github.com/google/uuid"

// EarthNet Lobby Protocol Constants
//
// The retail game client validates these values byte for byte. The client
// binary cannot be patched, so every constant here must be reproduced
// verbatim even where its meaning is unknown.

// Handshake Framing Constants
const (
	// FrameLengthSize is the handshake frame length prefix size
	// (little-endian uint32). The prefix value includes these 4 bytes.
	FrameLengthSize = 4

	// MaxHandshakeFrame is the maximum accepted handshake frame size in
	// bytes (length prefix included). Larger frames are malformed.
	MaxHandshakeFrame = 4096

	// MaxCommandLine is the maximum number of buffered bytes allowed
	// before a NUL terminator must appear in the command phase.
	MaxCommandLine = 1024
)

// Handshake Payload Constants
const (
	// IdentSalt is repeated four times in the ident reply. The retail
	// server sent exactly this value; its meaning is unknown.
	IdentSalt uint32 = 0x1aff3b3c

	// RejectCode is the status code carried by every reject payload.
	RejectCode uint32 = 2
)

// AllowedGameVersion is the single game build the server accepts during
// the ident exchange.
var AllowedGameVersion = uuid.MustParse("534ba248-a87c-4ce9-8bee-bc376aae6134")

// GameVersions is the version list announced in the welcome payload. The
// client matches its own build against entry names.
var GameVersions = []string{"tmp2.2"}

// Reject reasons recognized by the client UI.
const (
	// RejectWrongVersion is shown when the declared game version is not
	// AllowedGameVersion.
	RejectWrongVersion = "Wrong game version. Please install version 2.2"

	// RejectInvalidUsername is a client-side translation key, not prose.
	// The client renders its own localized message for it.
	RejectInvalidUsername = "translateInvalidCharactersInName"
)
