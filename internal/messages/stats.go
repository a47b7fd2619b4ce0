package messages

import (
	"strconv"

	"github.com/ienet/ienet/internal/protocol"
)

// StatsSync refreshes the counters shown in the client's status bar.
// Slots five and six are always "0" and the empty string.
type StatsSync struct {
	UsersTotal    uint32
	UsersOnline   uint32
	ChannelsTotal uint32
	GamesTotal    uint32
	GamesOpen     uint32
}

func (m StatsSync) AppendTo(dst []byte) []byte {
	num := func(v uint32) []byte {
		return strconv.AppendUint(nil, uint64(v), 10)
	}
	return protocol.AppendCommand(dst, "/syncstats",
		num(m.UsersTotal),
		num(m.UsersOnline),
		num(m.ChannelsTotal),
		num(m.GamesTotal),
		[]byte("0"),
		[]byte(""),
		num(m.GamesOpen))
}
