// Package presence tracks the users currently in a room: who they are,
// where their cursor is, and whether they are still alive. The tracker is
// plain data with no locking; the sync client serializes all access on its
// event loop.
package presence

import (
	"sort"
	"time"

	"SketchRoom/internal/geom"
)

// User is one participant as seen on the wire and in the local set.
type User struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Color    string      `json:"color"`
	Cursor   *geom.Point `json:"cursor,omitempty"`
	Active   bool        `json:"isActive"`
	LastSeen time.Time   `json:"-"`
}

// Tracker owns the local view of the room's user set.
type Tracker struct {
	users map[string]*User
	now   func() time.Time // injectable for the staleness tests
}

func NewTracker() *Tracker {
	return &Tracker{
		users: make(map[string]*User),
		now:   time.Now,
	}
}

// Upsert inserts the user or merges the non-empty fields into an existing
// record. Either way the user comes back alive.
func (t *Tracker) Upsert(u User) {
	cur, ok := t.users[u.ID]
	if !ok {
		cp := u
		cp.Active = true
		cp.LastSeen = t.now()
		t.users[u.ID] = &cp
		return
	}
	if u.Name != "" {
		cur.Name = u.Name
	}
	if u.Color != "" {
		cur.Color = u.Color
	}
	if u.Cursor != nil {
		cur.Cursor = u.Cursor
	}
	cur.Active = true
	cur.LastSeen = t.now()
}

// ReplaceAll swaps in the authoritative user list, everyone marked active.
func (t *Tracker) ReplaceAll(users []User) {
	t.users = make(map[string]*User, len(users))
	for _, u := range users {
		cp := u
		cp.Active = true
		cp.LastSeen = t.now()
		t.users[u.ID] = &cp
	}
}

// Remove drops a user, typically on a userLeft event.
func (t *Tracker) Remove(id string) {
	delete(t.users, id)
}

// SetCursor updates one user's cursor and refreshes their liveness.
// Unknown users are ignored; a userJoined will introduce them first.
func (t *Tracker) SetCursor(id string, p geom.Point) {
	u, ok := t.users[id]
	if !ok {
		return
	}
	u.Cursor = &p
	u.Active = true
	u.LastSeen = t.now()
}

// Sweep evicts every user whose LastSeen is older than staleAfter and
// returns the evicted ids.
func (t *Tracker) Sweep(staleAfter time.Duration) []string {
	cutoff := t.now().Add(-staleAfter)
	var evicted []string
	for id, u := range t.users {
		if u.LastSeen.Before(cutoff) {
			evicted = append(evicted, id)
			delete(t.users, id)
		}
	}
	return evicted
}

// List returns a copy of the user set in stable id order.
func (t *Tracker) List() []User {
	out := make([]User, 0, len(t.users))
	for _, u := range t.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a copy of one user.
func (t *Tracker) Get(id string) (User, bool) {
	u, ok := t.users[id]
	if !ok {
		return User{}, false
	}
	return *u, true
}

// Len returns the number of tracked users.
func (t *Tracker) Len() int { return len(t.users) }
