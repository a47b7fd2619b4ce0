package broker

import (
	"net"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/protocol"
)

// Event is one unit of work submitted to the broker loop. Connection
// handlers produce events; only the broker consumes them.
type Event interface {
	event()
}

// NewUser hands a freshly logged-in connection over to the broker. Send
// is the connection's outbound queue; the broker owns it from here on
// and closes it when the user is removed.
type NewUser struct {
	ID          uuid.UUID
	Username    string
	GameVersion uuid.UUID
	IP          net.IP
	Send        chan []byte
}

// Command carries one parsed client command.
type Command struct {
	ID      uuid.UUID
	Command protocol.ClientCommand
}

// DropClient reports that a connection's reader has finished. It is the
// last event a connection submits.
type DropClient struct {
	ID uuid.UUID
}

func (NewUser) event()    {}
func (Command) event()    {}
func (DropClient) event() {}
