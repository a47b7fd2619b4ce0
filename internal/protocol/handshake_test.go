package protocol

import (
	"bytes"
	"testing"

	"github.com/ienet/ienet/internal/constants"
)

func TestParseIdentPayload(t *testing.T) {
	w := GetWriter()
	defer w.Put()
	w.WriteGUID(constants.AllowedGameVersion)
	w.WriteLPString("en")

	ident, err := ParseIdentPayload(w.Bytes())
	if err != nil {
		t.Fatalf("ParseIdentPayload failed: %v", err)
	}
	if ident.GameVersion != constants.AllowedGameVersion {
		t.Fatalf("game version %s", ident.GameVersion)
	}
	if ident.Language != "en" {
		t.Fatalf("language %q", ident.Language)
	}
}

func TestParseIdentPayloadTruncated(t *testing.T) {
	w := GetWriter()
	defer w.Put()
	w.WriteGUID(constants.AllowedGameVersion)

	if _, err := ParseIdentPayload(w.Bytes()); err == nil {
		t.Fatal("want error for ident payload without language tag")
	}
}

func TestParseLoginPayload(t *testing.T) {
	w := GetWriter()
	defer w.Put()
	w.WriteLPString("foo")
	w.WriteLPBytes([]byte{0x01, 0x02, 0xff})

	login, err := ParseLoginPayload(w.Bytes())
	if err != nil {
		t.Fatalf("ParseLoginPayload failed: %v", err)
	}
	if login.Username != "foo" {
		t.Fatalf("username %q", login.Username)
	}
	if !bytes.Equal(login.Password, []byte{0x01, 0x02, 0xff}) {
		t.Fatalf("password %x", login.Password)
	}
}

func TestParseLoginPayloadTruncated(t *testing.T) {
	w := GetWriter()
	defer w.Put()
	w.WriteLPString("foo")

	if _, err := ParseLoginPayload(w.Bytes()); err == nil {
		t.Fatal("want error for login payload without password")
	}
}

func TestReaderLengthPrefixTooLarge(t *testing.T) {
	w := GetWriter()
	defer w.Put()
	w.WriteUint32(1 << 20) // length prefix far beyond the payload

	if _, err := NewReader(w.Bytes()).ReadLPBytes(); err == nil {
		t.Fatal("want error for oversized length prefix")
	}
}
