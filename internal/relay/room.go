package relay

import (
	"SketchRoom/internal/board"
	"SketchRoom/internal/presence"
	"SketchRoom/internal/protocol"
)

// room holds one board's authoritative in-memory state. All access happens
// under the server lock.
type room struct {
	id       string
	snapshot board.Snapshot
	users    map[string]presence.User
	members  map[*member]struct{}
}

// join registers the member, seeds it with the room's current board and
// user list, and announces it to everyone else. A re-join from the same
// user (transport reconnect) is an upsert, not a duplicate.
func (s *Server) join(m *member, j protocol.JoinRoom) {
	r, ok := s.rooms[j.RoomID]
	if !ok {
		r = &room{
			id:      j.RoomID,
			users:   make(map[string]presence.User),
			members: make(map[*member]struct{}),
		}
		s.rooms[j.RoomID] = r
		s.log.Printf("room %q created", j.RoomID)
	}

	// A member hopping rooms leaves the old one first.
	if m.room != nil && m.room != r {
		s.leave(m, m.userID)
	}

	m.userID = j.User.ID
	m.room = r
	r.members[m] = struct{}{}

	u := j.User
	u.Active = true
	r.users[u.ID] = u

	// Seed the joiner, then tell the others.
	r.emitTo(protocol.EventLoadBoard, protocol.BoardUpdate{
		RoomID: r.id,
		Lines:  r.snapshot.Lines,
		Shapes: r.snapshot.Shapes,
	}, nil, m)
	r.emitTo(protocol.EventUserList, r.userList(), nil, m)
	r.emitTo(protocol.EventUserJoined, u, m)

	s.log.Printf("room %q: %s joined (%d member(s))", r.id, u.ID, len(r.members))
}

// leave drops the member from its room, tells the remaining members, and
// garbage-collects the room when the last member is gone. After a transport
// reconnect the same user briefly holds two members; the user record and the
// userLeft broadcast wait until the last of them is gone, so cleaning up the
// stale socket never drops a still-connected user.
func (s *Server) leave(m *member, userID string) {
	r := m.room
	if r == nil {
		return
	}
	delete(r.members, m)
	m.room = nil

	if userID != "" && !r.hasUser(userID) {
		delete(r.users, userID)
		r.emitTo(protocol.EventUserLeft, userID, nil)
	}

	if len(r.members) == 0 {
		delete(s.rooms, r.id)
		s.log.Printf("room %q emptied and dropped", r.id)
		return
	}
	s.log.Printf("room %q: %s left (%d member(s))", r.id, userID, len(r.members))
}

// hasUser reports whether any current member carries this userID.
func (r *room) hasUser(userID string) bool {
	for m := range r.members {
		if m.userID == userID {
			return true
		}
	}
	return false
}

func (r *room) userList() []presence.User {
	out := make([]presence.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out
}

// broadcast relays a prebuilt envelope to every member except the sender.
func (r *room) broadcast(ev protocol.Event, except *member) {
	for m := range r.members {
		if m == except {
			continue
		}
		m.send(ev)
	}
}

// emitTo wraps a payload and sends it either to the listed members, or to
// everyone but except when no members are listed.
func (r *room) emitTo(name string, payload any, except *member, only ...*member) {
	ev, err := protocol.New(name, payload)
	if err != nil {
		return
	}
	if len(only) > 0 {
		for _, m := range only {
			m.send(ev)
		}
		return
	}
	r.broadcast(ev, except)
}
