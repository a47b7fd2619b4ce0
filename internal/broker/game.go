package broker

import (
	"bytes"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/messages"
)

const allowedGameChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_+.| "

// gameStatus tracks a hosted game through its lifecycle.
type gameStatus uint8

const (
	// gameRequested: the host asked to create the game but has not
	// confirmed it yet. Not advertised; expires after a TTL.
	gameRequested gameStatus = iota
	// gameOpen: confirmed and advertised; peers may join.
	gameOpen
	// gameStarted: play began; delisted but kept while occupied.
	gameStarted
)

// game is one hosted match record.
type game struct {
	hostedBy    uuid.UUID
	hostIP      net.IP
	id          uuid.UUID // invite token, zero until the host confirms
	gameVersion uuid.UUID
	name        string
	password    []byte
	status      gameStatus
	createdAt   time.Time
}

func (g *game) location() Location {
	return GameLocation(g.name)
}

// games holds all live game records keyed by lowercased name.
type games struct {
	byKey map[string]*game
}

func newGames() *games {
	return &games{byKey: make(map[string]*game)}
}

func (gs *games) count() int {
	return len(gs.byKey)
}

func (gs *games) countOpen() int {
	open := 0
	for _, g := range gs.byKey {
		if g.status == gameOpen {
			open++
		}
	}
	return open
}

func (gs *games) get(name string) *game {
	return gs.byKey[strings.ToLower(name)]
}

// create records a Requested game and sends the host a create order
// carrying a fresh invite token. The token is not stored: whatever GUID
// the host echoes back at confirmation becomes the real one.
func (gs *games) create(us *users, host *user, name string, password []byte, now time.Time) {
	slog.Info("game requested", "username", host.username, "game", name)
	g := &game{
		hostedBy:    host.id,
		hostIP:      host.ip,
		id:          uuid.Nil,
		gameVersion: host.gameVersion,
		name:        name,
		password:    bytes.Clone(password),
		status:      gameRequested,
		createdAt:   now,
	}
	us.send(host, messages.CreateGame{
		Version:     g.gameVersion,
		Name:        g.name,
		Password:    g.password,
		InviteToken: uuid.New(),
	})
	gs.byKey[strings.ToLower(name)] = g
}

// open promotes a Requested game and advertises it to everyone.
func (gs *games) open(us *users, g *game, token uuid.UUID) {
	slog.Info("game open", "game", g.name, "token", token)
	g.id = token
	g.status = gameOpen
	us.sendToAll(messages.GameOpened{Name: g.name, InviteToken: g.id})
}

// start delists an Open game. The record stays until its lobby empties.
func (gs *games) start(us *users, g *game) {
	slog.Info("game started", "game", g.name)
	g.status = gameStarted
	us.sendToAll(messages.GameDropped{Name: g.name})
}

func (gs *games) remove(us *users, key string) {
	g, ok := gs.byKey[key]
	if !ok {
		return
	}
	slog.Info("removing game", "game", g.name)
	delete(gs.byKey, key)
	// Requested games were never advertised and Started games were
	// delisted at start, so only Open removals need a broadcast.
	if g.status == gameOpen {
		us.sendToAll(messages.GameDropped{Name: g.name})
	}
}

// reapStale drops Requested games older than ttl and any other game
// whose lobby is empty.
func (gs *games) reapStale(us *users, now time.Time, ttl time.Duration) {
	occupied := us.occupied()
	for key, g := range gs.byKey {
		if g.status == gameRequested {
			if now.Sub(g.createdAt) > ttl {
				gs.remove(us, key)
			}
			continue
		}
		if _, ok := occupied[g.location()]; !ok {
			gs.remove(us, key)
		}
	}
}

// announceOpen sends the joinable-game listing to one user during login.
func (gs *games) announceOpen(us *users, u *user) {
	for _, g := range gs.byKey {
		if g.status == gameOpen {
			us.send(u, messages.GameOpened{Name: g.name, InviteToken: g.id})
		}
	}
}
