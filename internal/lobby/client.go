package lobby

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/broker"
	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/messages"
	"github.com/ienet/ienet/internal/metrics"
	"github.com/ienet/ienet/internal/protocol"
)

const (
	// sendQueueSize bounds the per-client outbound queue. The broker
	// drops messages instead of blocking when it fills up.
	sendQueueSize = 64

	readChunkSize = 4096
)

// allowedUsernameChars is the byte set the client's own name entry
// screen permits.
const allowedUsernameChars = "abcdefghijklmnopqrstuvwxyz" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"0123456789" +
	"-_.|()[]{}"

type clientState uint8

const (
	stateConnected clientState = iota // awaiting the ident frame
	stateGreeted                      // ident accepted, awaiting login
	stateLoggedIn                     // command phase, events go to the broker
)

// client is one connection's session state. The reader goroutine owns
// it exclusively; the writer only touches conn and the send queue.
type client struct {
	conn net.Conn
	ip   net.IP
	id   uuid.UUID

	state       clientState
	username    string
	gameVersion uuid.UUID

	send         chan []byte
	adopted      bool // true once the broker owns the send queue
	writeTimeout time.Duration
}

func newClient(conn net.Conn, ip net.IP, writeTimeout time.Duration) *client {
	return &client{
		conn:         conn,
		ip:           ip,
		id:           uuid.New(),
		state:        stateConnected,
		send:         make(chan []byte, sendQueueSize),
		writeTimeout: writeTimeout,
	}
}

// run owns the connection until either side is finished. The reader
// runs on the calling goroutine; a dedicated writer drains the
// outbound queue.
func (c *client) run(ctx context.Context, b *broker.Broker, m *metrics.Metrics) {
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump(ctx)
		// Разбудить читателя: без Close он может висеть на Read вечно.
		c.conn.Close()
	}()

	err := c.readLoop(ctx, b, m)
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		slog.Debug("connection closed", "remote", c.ip, "username", c.username)
	} else {
		slog.Info("dropping connection", "remote", c.ip, "username", c.username, "error", err)
	}

	if c.adopted {
		// The broker owns the queue now; it closes it when the user is
		// removed, and the close releases the writer.
		if err := b.Submit(ctx, broker.DropClient{ID: c.id}); err != nil {
			slog.Debug("drop event not delivered", "id", c.id, "error", err)
		}
	} else {
		close(c.send)
	}
	<-writerDone
}

func (c *client) readLoop(ctx context.Context, b *broker.Broker, m *metrics.Metrics) error {
	var buf []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, err := c.conn.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			rest, perr := c.consume(ctx, buf, b, m)
			if perr != nil {
				return perr
			}
			buf = rest
		}
		if err != nil {
			return err
		}
	}
}

// consume processes every complete frame in buf and returns the
// unconsumed remainder.
func (c *client) consume(ctx context.Context, buf []byte, b *broker.Broker, m *metrics.Metrics) ([]byte, error) {
	for {
		if c.state == stateLoggedIn {
			line, consumed, err := protocol.ScanLine(buf)
			if err != nil {
				return nil, err
			}
			if consumed == 0 {
				return buf, nil
			}
			buf = buf[consumed:]

			cmd := protocol.ParseClientCommand(line)
			if err := b.Submit(ctx, broker.Command{ID: c.id, Command: cmd}); err != nil {
				return nil, err
			}
			continue
		}

		// The length prefix bounds a frame to MaxHandshakeFrame bytes,
		// so an unfinished frame never buffers more than that.
		payload, consumed, err := protocol.DecodeFrame(buf)
		if err != nil {
			m.ConnectionsRejected.WithLabelValues(metrics.RejectHandshake).Inc()
			return nil, err
		}
		if consumed == 0 {
			return buf, nil
		}
		buf = buf[consumed:]

		if err := c.handshakeFrame(ctx, payload, b, m); err != nil {
			return nil, err
		}
	}
}

// handshakeFrame advances the pre-login state machine by one frame.
// Rejections keep the current state: the client is expected to retry.
func (c *client) handshakeFrame(ctx context.Context, payload []byte, b *broker.Broker, m *metrics.Metrics) error {
	switch c.state {
	case stateConnected:
		ident, err := protocol.ParseIdentPayload(payload)
		if err != nil {
			m.ConnectionsRejected.WithLabelValues(metrics.RejectHandshake).Inc()
			return err
		}
		if ident.GameVersion != constants.AllowedGameVersion {
			slog.Info("rejecting unsupported game version",
				"remote", c.ip, "version", ident.GameVersion)
			m.ConnectionsRejected.WithLabelValues(metrics.RejectVersion).Inc()
			return c.push(messages.Encode(messages.Reject{Reason: constants.RejectWrongVersion}))
		}

		c.gameVersion = ident.GameVersion
		c.state = stateGreeted
		slog.Debug("ident accepted", "remote", c.ip, "language", ident.Language)
		return c.push(messages.Encode(messages.IdentOK{}))

	default: // stateGreeted
		login, err := protocol.ParseLoginPayload(payload)
		if err != nil {
			m.ConnectionsRejected.WithLabelValues(metrics.RejectHandshake).Inc()
			return err
		}
		if !validUsername(login.Username) {
			slog.Info("rejecting invalid username", "remote", c.ip, "username", login.Username)
			m.ConnectionsRejected.WithLabelValues(metrics.RejectUsername).Inc()
			return c.push(messages.Encode(messages.Reject{Reason: constants.RejectInvalidUsername}))
		}

		ev := broker.NewUser{
			ID:          c.id,
			Username:    login.Username,
			GameVersion: c.gameVersion,
			IP:          c.ip,
			Send:        c.send,
		}
		if err := b.Submit(ctx, ev); err != nil {
			return err
		}
		c.username = login.Username
		c.adopted = true
		c.state = stateLoggedIn
		return nil
	}
}

// push queues an outbound frame while the handshake still owns the
// queue. Mirrors the broker's non-blocking sends.
func (c *client) push(frame []byte) error {
	select {
	case c.send <- frame:
		return nil
	default:
		return errors.New("outbound queue full during handshake")
	}
}

// writePump is the dedicated writer: it drains the outbound queue onto
// the socket, batching whatever piled up behind the first message into
// a single writev.
func (c *client) writePump(ctx context.Context) {
	bufs := make(net.Buffers, 0, 16)

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return // queue closed, the user was removed
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				slog.Warn("set write deadline failed", "remote", c.ip, "error", err)
				return
			}

			queued := len(c.send)
			if queued == 0 {
				if _, err := c.conn.Write(msg); err != nil {
					slog.Warn("write failed", "remote", c.ip, "error", err)
					return
				}
				continue
			}

			bufs = bufs[:0]
			bufs = append(bufs, msg)
			for _i := 0; _i < queued; _i++ {
				bufs = append(bufs, <-c.send)
			}
			if _, err := bufs.WriteTo(c.conn); err != nil {
				slog.Warn("batch write failed", "remote", c.ip, "error", err)
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

func validUsername(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if strings.IndexByte(allowedUsernameChars, name[i]) < 0 {
			return false
		}
	}
	return true
}
