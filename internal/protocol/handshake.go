package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

// IdentPayload is the first handshake message sent by the client: the
// declared game version and a language tag.
type IdentPayload struct {
	GameVersion uuid.UUID
	Language    string
}

// ParseIdentPayload decodes a decompressed ident payload.
func ParseIdentPayload(payload []byte) (IdentPayload, error) {
	r := NewReader(payload)

	version, err := r.ReadGUID()
	if err != nil {
		return IdentPayload{}, fmt.Errorf("parsing ident payload: %w", err)
	}
	language, err := r.ReadLPString()
	if err != nil {
		return IdentPayload{}, fmt.Errorf("parsing ident payload: %w", err)
	}

	return IdentPayload{GameVersion: version, Language: language}, nil
}

// LoginPayload carries the username and password of a login attempt.
// The password is opaque bytes; it is never evaluated during login.
type LoginPayload struct {
	Username string
	Password []byte
}

// ParseLoginPayload decodes a decompressed login payload.
func ParseLoginPayload(payload []byte) (LoginPayload, error) {
	r := NewReader(payload)

	username, err := r.ReadLPString()
	if err != nil {
		return LoginPayload{}, fmt.Errorf("parsing login payload: %w", err)
	}
	password, err := r.ReadLPBytes()
	if err != nil {
		return LoginPayload{}, fmt.Errorf("parsing login payload: %w", err)
	}

	return LoginPayload{Username: username, Password: password}, nil
}
