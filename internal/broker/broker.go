// Package broker owns the server's entire mutable state: who is online,
// which channels exist, and which games are being hosted. All mutation
// happens on the single goroutine running Run, fed by a bounded event
// channel; connection handlers never touch state directly. Fan-out back
// to clients goes through bounded per-user queues that are never allowed
// to block the loop.
package broker

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/config"
	"github.com/ienet/ienet/internal/constants"
	"github.com/ienet/ienet/internal/messages"
	"github.com/ienet/ienet/internal/metrics"
	"github.com/ienet/ienet/internal/protocol"
)

// eventQueueSize bounds the inbound event channel. Handlers block while
// submitting, which rate-limits chatty clients to the broker's drain
// rate.
const eventQueueSize = 256

// Broker is the single-writer state machine behind the lobby.
type Broker struct {
	cfg     config.Lobby
	metrics *metrics.Metrics
	events  chan Event

	users    *users
	channels *channels
	games    *games

	lastStats statsSnapshot
	now       func() time.Time
}

// New creates a broker. Run must be started before events are submitted.
func New(cfg config.Lobby, m *metrics.Metrics) *Broker {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = config.DefaultLobby().SweepInterval
	}
	if cfg.RequestedGameTTL <= 0 {
		cfg.RequestedGameTTL = config.DefaultLobby().RequestedGameTTL
	}
	return &Broker{
		cfg:      cfg,
		metrics:  m,
		events:   make(chan Event, eventQueueSize),
		users:    newUsers(m),
		channels: newChannels(),
		games:    newGames(),
		now:      time.Now,
	}
}

// Submit queues an event for the broker loop, blocking while the queue
// is full. It fails only when ctx is done.
func (b *Broker) Submit(ctx context.Context, ev Event) error {
	select {
	case b.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run consumes events until ctx is done. A periodic sweep expires
// abandoned game requests even when no events arrive.
func (b *Broker) Run(ctx context.Context) error {
	slog.Info("broker loop starting", "sweep_interval", b.cfg.SweepInterval)

	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-b.events:
			b.handleEvent(ev)
		case <-ticker.C:
			b.housekeeping()
		case <-ctx.Done():
			slog.Info("broker loop shutting down", "users", b.users.count())
			b.users.closeAll()
			return nil
		}
	}
}

func (b *Broker) handleEvent(ev Event) {
	b.metrics.EventsProcessed.Inc()

	switch ev := ev.(type) {
	case NewUser:
		b.handleNewUser(ev)
	case Command:
		b.handleCommand(ev)
	case DropClient:
		slog.Info("client disconnected, dropping", "id", ev.ID)
		b.users.remove(ev.ID)
	}

	b.housekeeping()
}

func (b *Broker) handleNewUser(ev NewUser) {
	if b.users.byUsername(ev.Username) != nil {
		slog.Info("username already logged in, dropping client",
			"username", ev.Username, "id", ev.ID)
		b.metrics.ConnectionsRejected.WithLabelValues(metrics.RejectDuplicate).Inc()
		close(ev.Send)
		return
	}

	u := &user{
		id:          ev.ID,
		username:    ev.Username,
		location:    NowhereLocation(),
		gameVersion: ev.GameVersion,
		ip:          ev.IP,
		send:        ev.Send,
	}
	slog.Info("user logged in", "id", u.id, "username", u.username)

	stats := b.computeStats()
	b.users.send(u, messages.Welcome{
		ServerIdent:    b.cfg.ServerName,
		WelcomeMessage: b.cfg.WelcomeMessage,
		UsersTotal:     stats.usersTotal,
		UsersOnline:    stats.usersOnline,
		ChannelsTotal:  stats.channelsTotal,
		GamesTotal:     stats.gamesTotal,
		GamesAvailable: stats.gamesOpen,
		GameVersions:   constants.GameVersions,
		InitialChannel: b.cfg.DefaultChannel,
	})
	b.channels.announceAll(b.users, u)
	b.games.announceOpen(b.users, u)

	b.users.insert(u)
	b.joinChannel(u, b.cfg.DefaultChannel)
	b.metrics.LoginsTotal.Inc()
}

func (b *Broker) handleCommand(ev Command) {
	u := b.users.get(ev.ID)
	if u == nil {
		slog.Info("received command for unknown client", "id", ev.ID)
		return
	}

	switch cmd := ev.Command.(type) {
	case protocol.SendChat:
		b.publicMessage(u, cmd.Message)
	case protocol.PrivateMessage:
		b.privateMessage(u, cmd.Target, cmd.Message)
	case protocol.JoinChannel:
		b.joinChannel(u, cmd.Channel)
	case protocol.HostGame:
		b.hostGame(u, cmd.Name, cmd.Password)
	case protocol.JoinGame:
		b.joinGame(u, cmd.Name, cmd.Password)
	case protocol.NoOp:
	case protocol.Malformed:
		b.users.send(u, messages.ErrorMessage{Error: cmd.Reason})
	case protocol.Unknown:
		b.users.send(u, messages.ErrorMessage{Error: "Unknown command: " + cmd.Verb})
	}
}

func (b *Broker) publicMessage(u *user, message []byte) {
	b.users.sendToLocation(u.location, messages.PublicMessage{
		Username: u.username,
		Message:  message,
	})
}

func (b *Broker) privateMessage(u *user, target string, message []byte) {
	switch {
	case strings.HasPrefix(target, "#"):
		ch := b.channels.get(target[1:])
		if ch == nil {
			b.users.send(u, messages.ErrorMessage{Error: "Channel does not exist"})
			return
		}
		to := "#" + ch.name
		b.users.send(u, messages.PrivateMessageEcho{To: to, Message: message})
		b.users.sendToLocation(ch.location(), messages.PrivateMessage{
			Location: u.location.String(),
			From:     u.username,
			To:       to,
			Message:  message,
		})

	case strings.HasPrefix(target, "$"):
		g := b.games.get(target[1:])
		if g == nil {
			b.users.send(u, messages.ErrorMessage{Error: "Game does not exist"})
			return
		}
		to := "$" + g.name
		b.users.send(u, messages.PrivateMessageEcho{To: to, Message: message})
		b.users.sendToLocation(g.location(), messages.PrivateMessage{
			Location: u.location.String(),
			From:     u.username,
			To:       to,
			Message:  message,
		})

	default:
		recipient := b.users.byUsername(target)
		if recipient == nil {
			b.users.send(u, messages.ErrorMessage{Error: "User does not exist"})
			return
		}
		b.users.send(u, messages.PrivateMessageEcho{To: recipient.username, Message: message})
		b.users.send(recipient, messages.PrivateMessage{
			Location: u.location.String(),
			From:     u.username,
			To:       recipient.username,
			Message:  message,
		})
	}
}

// joinChannel is also the tail of a successful login, which places the
// user in the default channel.
func (b *Broker) joinChannel(u *user, name string) {
	if !validName(name, allowedChannelChars) {
		b.users.send(u, messages.ErrorMessage{Error: "Invalid channel name"})
		return
	}

	ch := b.channels.getOrCreate(b.users, name)
	if ch.location() == u.location {
		slog.Debug("user already in requested channel", "username", u.username, "channel", ch.name)
		return
	}

	b.users.send(u, messages.ChannelJoined{Channel: ch.name})
	for _, occupant := range b.users.inLocation(ch.location()) {
		b.users.send(u, messages.UserInChannel{Username: occupant.username})
	}

	b.users.relocate(u, ch.location())
}

// hostGame drives the three-step hosting handshake: request a game,
// confirm it with the echoed invite token, then start it.
func (b *Broker) hostGame(u *user, name string, password []byte) {
	if !validName(name, allowedGameChars) {
		b.users.send(u, messages.ErrorMessage{Error: "Invalid game name"})
		return
	}

	g := b.games.get(name)
	if g == nil {
		b.games.create(b.users, u, name, password, b.now())
		return
	}

	token, err := uuid.ParseBytes(password)
	if g.status == gameStarted || g.hostedBy != u.id || err != nil {
		b.users.send(u, messages.ErrorMessage{Error: "Game already exists."})
		return
	}

	if g.status == gameRequested {
		b.games.open(b.users, g, token)
		b.users.relocate(u, g.location())
	} else {
		b.games.start(b.users, g)
	}
}

func (b *Broker) joinGame(u *user, name string, password []byte) {
	g := b.games.get(name)
	if g == nil {
		b.users.send(u, messages.ErrorMessage{Error: "Game does not exist"})
		return
	}

	// A password that parses to the invite token means the client was
	// already vouched for; seat it directly.
	if token, err := uuid.ParseBytes(password); err == nil && token == g.id {
		slog.Info("user joined game", "username", u.username, "game", g.name)
		b.users.relocate(u, g.location())
		return
	}

	if bytes.Equal(password, g.password) {
		b.users.send(u, messages.JoinGame{
			Version:     u.gameVersion,
			Name:        g.name,
			Password:    password,
			HostIP:      g.hostIP,
			InviteToken: g.id,
		})
		return
	}

	b.users.send(u, messages.ErrorMessage{Error: "Invalid password"})
}

// housekeeping runs after every event and on the sweep tick: empty
// channels and stale games are reaped, and changed stats are broadcast.
func (b *Broker) housekeeping() {
	b.channels.reapEmpty(b.users)
	b.games.reapStale(b.users, b.now(), b.cfg.RequestedGameTTL)

	stats := b.computeStats()
	if stats != b.lastStats {
		b.users.sendToAll(stats.message())
		b.lastStats = stats
	}

	b.metrics.UsersOnline.Set(float64(stats.usersOnline))
	b.metrics.ChannelsActive.Set(float64(stats.channelsTotal))
	b.metrics.GamesTotal.Set(float64(stats.gamesTotal))
	b.metrics.GamesOpen.Set(float64(stats.gamesOpen))
}

func validName(name, allowed string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if strings.IndexByte(allowed, name[i]) < 0 {
			return false
		}
	}
	return true
}
