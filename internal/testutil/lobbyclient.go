package testutil

import (
	"net"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/protocol"
)

// LobbyClient упрощает написание integration тестов: говорит с сервером
// по настоящему wire-протоколу (zlib handshake, затем NUL-строки).
type LobbyClient struct {
	t    testing.TB
	conn net.Conn
	buf  []byte // непрочитанный остаток входящих байтов
}

// DialLobby подключается к лобби-серверу по указанному адресу.
// Использует t.Cleanup() для автоматического закрытия соединения.
func DialLobby(t testing.TB, addr string) *LobbyClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("dial lobby server: %v", err)
	}
	t.Cleanup(func() {
		_ = conn.Close()
	})

	return &LobbyClient{
		t:    t,
		conn: NewConnWithDeadline(conn, 5*time.Second),
	}
}

// Close закрывает соединение. Повторный вызов безопасен.
func (c *LobbyClient) Close() error {
	return c.conn.Close()
}

// SendIdent отправляет ident frame с указанной версией игры.
func (c *LobbyClient) SendIdent(version uuid.UUID, language string) {
	c.t.Helper()
	w := protocol.GetWriter()
	defer w.Put()
	w.WriteGUID(version)
	w.WriteLPString(language)
	c.write(protocol.EncodeFrame(w.Bytes()))
}

// SendLogin отправляет login frame.
func (c *LobbyClient) SendLogin(username, password string) {
	c.t.Helper()
	w := protocol.GetWriter()
	defer w.Put()
	w.WriteLPString(username)
	w.WriteLPBytes([]byte(password))
	c.write(protocol.EncodeFrame(w.Bytes()))
}

// SendCommand отправляет одну командную строку; NUL добавляется сам.
func (c *LobbyClient) SendCommand(line string) {
	c.t.Helper()
	c.write(append([]byte(line), 0))
}

// Login проходит весь handshake с допустимой версией игры и указанным
// именем, включая чтение welcome. Fatal при любом отказе сервера.
func (c *LobbyClient) Login(username string) {
	c.t.Helper()

	c.SendIdent(constants.AllowedGameVersion, "en")
	if status := frameStatus(c.t, c.ReadFrame()); status != 0 {
		c.t.Fatalf("ident rejected with status %d", status)
	}

	c.SendLogin(username, "-")
	if status := frameStatus(c.t, c.ReadFrame()); status != 0 {
		c.t.Fatalf("login rejected with status %d", status)
	}
}

// ReadFrame читает один handshake frame и возвращает распакованный payload.
func (c *LobbyClient) ReadFrame() []byte {
	c.t.Helper()
	for {
		payload, consumed, err := protocol.DecodeFrame(c.buf)
		if err != nil {
			c.t.Fatalf("decode frame: %v", err)
		}
		if consumed > 0 {
			c.buf = c.buf[consumed:]
			return payload
		}
		c.fill()
	}
}

// ReadCommand читает одну командную строку без завершающего NUL.
func (c *LobbyClient) ReadCommand() string {
	c.t.Helper()
	for {
		line, consumed, err := protocol.ScanLine(c.buf)
		if err != nil {
			c.t.Fatalf("scan command line: %v", err)
		}
		if consumed > 0 {
			c.buf = c.buf[consumed:]
			return string(line)
		}
		c.fill()
	}
}

// ExpectClosed ждёт пока сервер закроет соединение со своей стороны.
func (c *LobbyClient) ExpectClosed() {
	c.t.Helper()
	chunk := make([]byte, 1)
	if n, err := c.conn.Read(chunk); err == nil {
		c.t.Fatalf("expected server to close the connection, read %d bytes", n)
	}
}

func (c *LobbyClient) write(data []byte) {
	c.t.Helper()
	if _, err := c.conn.Write(data); err != nil {
		c.t.Fatalf("write to lobby server: %v", err)
	}
}

func (c *LobbyClient) fill() {
	c.t.Helper()
	chunk := make([]byte, 4096)
	n, err := c.conn.Read(chunk)
	if err != nil {
		c.t.Fatalf("read from lobby server: %v", err)
	}
	c.buf = append(c.buf, chunk[:n]...)
}

// frameStatus возвращает первый u32 из payload (0 = успех, 2 = отказ).
func frameStatus(t testing.TB, payload []byte) uint32 {
	t.Helper()
	status, err := protocol.NewReader(payload).ReadUint32()
	if err != nil {
		t.Fatalf("reading frame status: %v", err)
	}
	return status
}
