package messages

import (
	"bytes"
	"testing"

	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/protocol"
)

func decodeWholeFrame(t *testing.T, frame []byte) *protocol.Reader {
	t.Helper()
	payload, consumed, err := protocol.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("DecodeFrame() error: %v", err)
	}
	if consumed != len(frame) {
		t.Fatalf("DecodeFrame() consumed %d of %d bytes", consumed, len(frame))
	}
	return protocol.NewReader(payload)
}

func mustUint8(t *testing.T, r *protocol.Reader) uint8 {
	t.Helper()
	v, err := r.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8() error: %v", err)
	}
	return v
}

func mustUint32(t *testing.T, r *protocol.Reader) uint32 {
	t.Helper()
	v, err := r.ReadUint32()
	if err != nil {
		t.Fatalf("ReadUint32() error: %v", err)
	}
	return v
}

func mustUint64(t *testing.T, r *protocol.Reader) uint64 {
	t.Helper()
	v, err := r.ReadUint64()
	if err != nil {
		t.Fatalf("ReadUint64() error: %v", err)
	}
	return v
}

func mustLPString(t *testing.T, r *protocol.Reader) string {
	t.Helper()
	s, err := r.ReadLPString()
	if err != nil {
		t.Fatalf("ReadLPString() error: %v", err)
	}
	return s
}

func mustBytes(t *testing.T, r *protocol.Reader, n int) []byte {
	t.Helper()
	b, err := r.ReadBytes(n)
	if err != nil {
		t.Fatalf("ReadBytes(%d) error: %v", n, err)
	}
	return b
}

func TestIdentOK(t *testing.T) {
	r := decodeWholeFrame(t, Encode(IdentOK{}))

	if status := mustUint32(t, r); status != 0 {
		t.Errorf("status = %d, want 0", status)
	}
	if blobLen := mustUint32(t, r); blobLen != 16 {
		t.Errorf("blob length = %d, want 16", blobLen)
	}
	for i := 0; i < 4; i++ {
		if salt := mustUint32(t, r); salt != constants.IdentSalt {
			t.Errorf("salt[%d] = %#x, want %#x", i, salt, constants.IdentSalt)
		}
	}
	if r.Remaining() != 0 {
		t.Errorf("%d trailing bytes", r.Remaining())
	}
}

func TestReject(t *testing.T) {
	r := decodeWholeFrame(t, Encode(Reject{Reason: constants.RejectWrongVersion}))

	if code := mustUint32(t, r); code != constants.RejectCode {
		t.Errorf("code = %d, want %d", code, constants.RejectCode)
	}
	if reason := mustLPString(t, r); reason != constants.RejectWrongVersion {
		t.Errorf("reason = %q, want %q", reason, constants.RejectWrongVersion)
	}
	if r.Remaining() != 0 {
		t.Errorf("%d trailing bytes", r.Remaining())
	}
}

func TestWelcomeLayout(t *testing.T) {
	msg := Welcome{
		ServerIdent:    "IE::Net",
		WelcomeMessage: "Welcome!",
		UsersTotal:     7,
		UsersOnline:    3,
		ChannelsTotal:  2,
		GamesTotal:     5,
		GamesAvailable: 1,
		GameVersions:   []string{"tmp2.2"},
		InitialChannel: "General",
	}
	r := decodeWholeFrame(t, Encode(msg))

	if status := mustUint32(t, r); status != 0 {
		t.Fatalf("status = %d, want 0", status)
	}
	content, err := r.ReadLPBytes()
	if err != nil {
		t.Fatalf("ReadLPBytes() error: %v", err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("%d bytes after content", r.Remaining())
	}

	inner := protocol.NewReader(content)
	if got := mustLPString(t, inner); got != "IE::Net" {
		t.Errorf("server ident = %q", got)
	}
	if got := mustLPString(t, inner); got != "Welcome!" {
		t.Errorf("welcome message = %q", got)
	}
	if got := mustUint64(t, inner); got != 25 {
		t.Errorf("leading marker = %d, want 25", got)
	}
	if got := mustUint32(t, inner); got != 24 {
		t.Errorf("counter block marker = %d, want 24", got)
	}

	counters := []struct {
		name string
		want uint32
	}{
		{"users total", 7},
		{"users online", 3},
		{"channels total", 2},
		{"games total", 5},
		{"games running", 0},
		{"availability marker", 18},
		{"games available", 1},
		{"version block marker", 16},
	}
	for _, c := range counters {
		if got := mustUint32(t, inner); got != c.want {
			t.Errorf("%s = %d, want %d", c.name, got, c.want)
		}
	}

	for round := 0; round < 3; round++ {
		if idx := mustUint8(t, inner); idx != 0 {
			t.Errorf("round %d: version index = %d, want 0", round, idx)
		}
		if name := mustLPString(t, inner); name != "tmp2.2" {
			t.Errorf("round %d: version = %q, want %q", round, name, "tmp2.2")
		}
		if term := mustUint8(t, inner); term != 0xff {
			t.Errorf("round %d: terminator = %#x, want 0xff", round, term)
		}
	}
	if b := mustUint8(t, inner); b != 0 {
		t.Errorf("version list tail = %d, want 0", b)
	}

	if got := mustLPString(t, inner); got != "General" {
		t.Errorf("initial channel = %q", got)
	}
	for i := 0; i < 2; i++ {
		if got := mustUint32(t, inner); got != 0 {
			t.Errorf("trailer %d: marker = %d, want 0", i, got)
		}
		if pad := mustBytes(t, inner, 16); !bytes.Equal(pad, make([]byte, 16)) {
			t.Errorf("trailer %d: padding = %x", i, pad)
		}
	}
	if inner.Remaining() != 0 {
		t.Errorf("%d trailing content bytes", inner.Remaining())
	}
}

func TestWelcomeMultipleVersions(t *testing.T) {
	msg := Welcome{
		GameVersions:   []string{"tdm2.1", "tmp2.2"},
		InitialChannel: "General",
	}
	r := decodeWholeFrame(t, Encode(msg))

	mustUint32(t, r)
	content, err := r.ReadLPBytes()
	if err != nil {
		t.Fatalf("ReadLPBytes() error: %v", err)
	}

	inner := protocol.NewReader(content)
	mustLPString(t, inner)
	mustLPString(t, inner)
	mustUint64(t, inner)
	for _i := 0; _i < 9; _i++ {
		mustUint32(t, inner)
	}

	for round := 0; round < 3; round++ {
		for i, want := range []string{"tdm2.1", "tmp2.2"} {
			if idx := mustUint8(t, inner); int(idx) != i {
				t.Errorf("round %d: version index = %d, want %d", round, idx, i)
			}
			if name := mustLPString(t, inner); name != want {
				t.Errorf("round %d: version = %q, want %q", round, name, want)
			}
		}
		if term := mustUint8(t, inner); term != 0xff {
			t.Errorf("round %d: terminator = %#x, want 0xff", round, term)
		}
	}
}
