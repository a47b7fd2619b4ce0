package broker

import (
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"

	"github.com/ienet/ienet/internal/messages"
	"github.com/ienet/ienet/internal/metrics"
)

// user is one logged-in client as the broker sees it.
type user struct {
	id          uuid.UUID
	username    string
	location    Location
	gameVersion uuid.UUID
	ip          net.IP
	send        chan []byte
}

// users indexes live users by id and by lowercased username. All message
// delivery funnels through this collection so queue overflow is handled
// in one place.
type users struct {
	byID    map[uuid.UUID]*user
	byName  map[string]uuid.UUID
	metrics *metrics.Metrics
}

func newUsers(m *metrics.Metrics) *users {
	return &users{
		byID:    make(map[uuid.UUID]*user),
		byName:  make(map[string]uuid.UUID),
		metrics: m,
	}
}

func (us *users) count() int {
	return len(us.byID)
}

func (us *users) get(id uuid.UUID) *user {
	return us.byID[id]
}

// byUsername resolves a user by name, case-insensitively.
func (us *users) byUsername(name string) *user {
	id, ok := us.byName[strings.ToLower(name)]
	if !ok {
		return nil
	}
	return us.byID[id]
}

func (us *users) inLocation(loc Location) []*user {
	var found []*user
	for _, u := range us.byID {
		if u.location == loc {
			found = append(found, u)
		}
	}
	return found
}

// occupied returns the set of locations holding at least one user.
func (us *users) occupied() map[Location]struct{} {
	occ := make(map[Location]struct{}, len(us.byID))
	for _, u := range us.byID {
		occ[u.location] = struct{}{}
	}
	return occ
}

// push queues one rendered message without blocking. A full queue means
// the client is slow or dead; the message is dropped and the reader's
// eventual DropClient cleans the user up.
func (us *users) push(u *user, rendered []byte) {
	select {
	case u.send <- rendered:
	default:
		slog.Warn("outbound queue full, dropping message", "username", u.username, "id", u.id)
		us.metrics.MessagesDropped.Inc()
	}
}

func (us *users) send(u *user, m messages.ServerMessage) {
	us.push(u, messages.Encode(m))
}

// sendToAll renders m once and queues it for every live user.
func (us *users) sendToAll(m messages.ServerMessage) {
	rendered := messages.Encode(m)
	for _, u := range us.byID {
		us.push(u, rendered)
	}
}

// sendToLocation renders m once and queues it for every user at loc.
func (us *users) sendToLocation(loc Location, m messages.ServerMessage) {
	rendered := messages.Encode(m)
	for _, u := range us.byID {
		if u.location == loc {
			us.push(u, rendered)
		}
	}
}

// insert announces the new user to their location's occupants and then
// registers them. Announcing first keeps the user out of their own
// arrival broadcast.
func (us *users) insert(u *user) {
	us.sendToLocation(u.location, messages.UserJoined{Username: u.username})
	us.byName[strings.ToLower(u.username)] = u.id
	us.byID[u.id] = u
}

// relocate moves a user to next, announcing the arrival to the new
// location and the departure to the old one. The mover is unregistered
// while the announcements go out so they see neither side.
func (us *users) relocate(u *user, next Location) {
	prev := u.location
	if prev == next {
		return
	}

	delete(us.byID, u.id)

	joined := messages.UserJoined{Username: u.username}
	if !prev.IsNowhere() {
		joined.Origin = prev.String()
	}
	us.sendToLocation(next, joined)
	us.sendToLocation(prev, messages.UserLeft{Username: u.username, Destination: next.String()})

	u.location = next
	us.byID[u.id] = u
}

// remove unregisters a user, tells their location they are gone, and
// closes the outbound queue so the connection's writer exits.
func (us *users) remove(id uuid.UUID) {
	u, ok := us.byID[id]
	if !ok {
		return
	}
	delete(us.byID, id)
	delete(us.byName, strings.ToLower(u.username))

	us.sendToLocation(u.location, messages.UserLeft{Username: u.username})
	close(u.send)
}

// closeAll closes every outbound queue. Used at broker shutdown to
// unwind the connection writers.
func (us *users) closeAll() {
	for id, u := range us.byID {
		delete(us.byID, id)
		delete(us.byName, strings.ToLower(u.username))
		close(u.send)
	}
}
