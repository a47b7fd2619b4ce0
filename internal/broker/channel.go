package broker

import (
	"log/slog"
	"strings"

	"github.com/ienet/ienet/internal/messages"
)

const allowedChannelChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"

// channel is a chat room. The name keeps the case its first creator
// used; lookups go through the lowercased key.
type channel struct {
	name string
}

func (c *channel) location() Location {
	return ChannelLocation(c.name)
}

// channels holds all live chat rooms keyed by lowercased name.
type channels struct {
	byKey map[string]*channel
}

func newChannels() *channels {
	return &channels{byKey: make(map[string]*channel)}
}

func (cs *channels) count() int {
	return len(cs.byKey)
}

func (cs *channels) get(name string) *channel {
	return cs.byKey[strings.ToLower(name)]
}

// getOrCreate returns the named channel, creating it and announcing the
// creation to every user if it does not exist yet.
func (cs *channels) getOrCreate(us *users, name string) *channel {
	key := strings.ToLower(name)
	if ch, ok := cs.byKey[key]; ok {
		return ch
	}

	slog.Info("creating channel", "channel", name)
	ch := &channel{name: name}
	cs.byKey[key] = ch
	us.sendToAll(messages.ChannelCreated{Name: ch.name})
	return ch
}

func (cs *channels) remove(us *users, key string) {
	ch, ok := cs.byKey[key]
	if !ok {
		return
	}
	slog.Info("removing channel", "channel", ch.name)
	delete(cs.byKey, key)
	us.sendToAll(messages.ChannelDropped{Name: ch.name})
}

// reapEmpty drops every channel with no occupants.
func (cs *channels) reapEmpty(us *users) {
	occupied := us.occupied()
	for key, ch := range cs.byKey {
		if _, ok := occupied[ch.location()]; !ok {
			cs.remove(us, key)
		}
	}
}

// announceAll sends the channel listing to one user during login.
func (cs *channels) announceAll(us *users, u *user) {
	for _, ch := range cs.byKey {
		us.send(u, messages.ChannelCreated{Name: ch.name})
	}
}
