package broker

import "github.com/ienet/ienet/internal/messages"

// statsSnapshot is the counter set shown in the client's status bar.
// With no account store the total and online user counts coincide.
type statsSnapshot struct {
	usersTotal    uint32
	usersOnline   uint32
	channelsTotal uint32
	gamesTotal    uint32
	gamesOpen     uint32
}

func (b *Broker) computeStats() statsSnapshot {
	online := uint32(b.users.count())
	return statsSnapshot{
		usersTotal:    online,
		usersOnline:   online,
		channelsTotal: uint32(b.channels.count()),
		gamesTotal:    uint32(b.games.count()),
		gamesOpen:     uint32(b.games.countOpen()),
	}
}

func (s statsSnapshot) message() messages.StatsSync {
	return messages.StatsSync{
		UsersTotal:    s.usersTotal,
		UsersOnline:   s.usersOnline,
		ChannelsTotal: s.channelsTotal,
		GamesTotal:    s.gamesTotal,
		GamesOpen:     s.gamesOpen,
	}
}
