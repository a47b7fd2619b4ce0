// Package lobby accepts client connections and drives each one through
// the handshake into the command phase. Handlers never touch shared
// state; everything past login is submitted to the broker as events.
package lobby

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"github.com/ienet/ienet/internal/broker"
	"github.com/ienet/ienet/internal/config"
	"github.com/ienet/ienet/internal/metrics"
)

// Server is the lobby front door: a TCP acceptor that spawns one
// session per client.
type Server struct {
	cfg     config.Lobby
	broker  *broker.Broker
	metrics *metrics.Metrics

	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a lobby server. The broker must be running before
// Serve is called.
func NewServer(cfg config.Lobby, b *broker.Broker, m *metrics.Metrics) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = config.DefaultLobby().WriteTimeout
	}
	return &Server{cfg: cfg, broker: b, metrics: m}
}

// Addr возвращает адрес, на котором слушает сервер.
// Возвращает nil если сервер ещё не запущен.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close закрывает listener и останавливает сервер.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// Run begins listening on the configured bind address and serves until
// ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Bind, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	return s.Serve(ctx, ln)
}

// Serve принимает готовый listener и запускает accept loop.
// Используется для тестирования с произвольным listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("lobby server started", "address", ln.Addr())
		acceptLoop(ctx, &wg, s, ln)
	}()

	wg.Wait()

	return nil
}

func acceptLoop(
	ctx context.Context,
	wg *sync.WaitGroup,
	srv *Server,
	ln net.Listener,
) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			conn, err := ln.Accept()
			if err != nil {
				if errors.Is(err, net.ErrClosed) {
					return
				}
				slog.Error("Failed to accept new connection", "error", err)
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				handleConnection(ctx, srv, conn)
			}()
		}
	}
}

func handleConnection(ctx context.Context, srv *Server, conn net.Conn) {
	done := make(chan struct{})
	defer close(done)
	defer conn.Close()

	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	ip := remoteIPv4(conn)
	if ip == nil {
		// The protocol carries the host address as a 32-bit value, so
		// only IPv4 peers can be served.
		slog.Info("refusing non-IPv4 peer", "remote", conn.RemoteAddr())
		srv.metrics.ConnectionsRejected.WithLabelValues(metrics.RejectIPv6).Inc()
		return
	}

	srv.metrics.ConnectionsAccepted.Inc()
	slog.Info("new connection", "remote", ip)

	c := newClient(conn, ip, srv.cfg.WriteTimeout)
	c.run(ctx, srv.broker, srv.metrics)
}

// remoteIPv4 returns the peer's IPv4 address, nil for anything else.
func remoteIPv4(conn net.Conn) net.IP {
	addr, ok := conn.RemoteAddr().(*net.TCPAddr)
	if !ok {
		return nil
	}
	return addr.IP.To4()
}
