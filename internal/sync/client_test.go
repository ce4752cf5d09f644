package sync_test

import (
	"encoding/json"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SketchRoom/internal/board"
	"SketchRoom/internal/geom"
	"SketchRoom/internal/net"
	"SketchRoom/internal/presence"
	"SketchRoom/internal/protocol"
	"SketchRoom/internal/sync"
)

// fakeTransport records outbound events and lets tests inject inbound ones.
type fakeTransport struct {
	sent   chan protocol.Event
	events chan protocol.Event
	status chan net.Status
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		sent:   make(chan protocol.Event, 256),
		events: make(chan protocol.Event, 256),
		status: make(chan net.Status, 8),
	}
}

func (f *fakeTransport) Send(ev protocol.Event) error {
	f.sent <- ev
	return nil
}
func (f *fakeTransport) Events() <-chan protocol.Event { return f.events }
func (f *fakeTransport) Status() <-chan net.Status     { return f.status }
func (f *fakeTransport) Close() error                  { return nil }

// drain empties the outbound queue and returns what was there.
func (f *fakeTransport) drain() []protocol.Event {
	var out []protocol.Event
	for {
		select {
		case ev := <-f.sent:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func newClient(t *testing.T, tr *fakeTransport, id string) *sync.Client {
	t.Helper()
	c := sync.New(
		sync.Config{RoomID: "room-1", Heartbeat: time.Hour, SweepEvery: time.Hour},
		tr,
		presence.MemoryStore{},
		presence.User{ID: id, Name: "Heron", Color: "#e6194b"},
		sync.Hooks{},
	)
	t.Cleanup(c.Close)
	return c
}

func commitStroke(c *sync.Client) {
	c.BeginStroke(board.ToolPen, "#000000", 2, geom.Point{X: 0, Y: 0})
	c.AppendPoint(geom.Point{X: 5, Y: 5})
	c.CommitGesture()
}

func TestCommitEmitsDrawAndPushesHistory(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	commitStroke(c)

	f := c.Frame()
	require.Equal(t, 1, len(f.Lines))
	assert.Equal(t, []float64{0, 0, 5, 5}, f.Lines[0].Points)
	assert.Equal(t, 2, c.HistoryLen())
	assert.True(t, f.CanUndo)

	evs := tr.drain()
	require.Equal(t, 1, len(evs))
	assert.Equal(t, protocol.EventDraw, evs[0].Event)

	d, ok := protocol.DecodeDraw(evs[0].Data)
	require.True(t, ok)
	assert.Equal(t, "room-1", d.RoomID)
	require.NotNil(t, d.Stroke)
	assert.Equal(t, []float64{0, 0, 5, 5}, d.Stroke.Points)
}

func TestEndToEndDrawPropagation(t *testing.T) {
	trA, trB := newFakeTransport(), newFakeTransport()
	a := newClient(t, trA, "A")
	b := newClient(t, trB, "B")

	commitStroke(a)

	// Relay: rebroadcast A's event to B.
	select {
	case ev := <-trA.sent:
		trB.events <- ev
	case <-time.After(time.Second):
		t.Fatal("client A never emitted")
	}

	require.Eventually(t, func() bool {
		f := b.Frame()
		return len(f.Lines) == 1
	}, time.Second, 5*time.Millisecond)

	f := b.Frame()
	assert.Equal(t, []float64{0, 0, 5, 5}, f.Lines[0].Points)
	assert.Equal(t, "#000000", f.Lines[0].Color)
	assert.Equal(t, 2.0, f.Lines[0].LineWidth)
	// Initial empty snapshot + this commit.
	assert.Equal(t, 2, b.HistoryLen())
}

func TestEraseMissTouchesNothing(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	commitStroke(c)
	<-tr.sent // the commit's draw; receiving it proves the commit ran

	c.EraseAt(geom.Point{X: 500, Y: 500}, 3)

	f := c.Frame() // Frame round-trips the loop, so the erase is done
	assert.Equal(t, 1, len(f.Lines))
	assert.Equal(t, 2, c.HistoryLen())
	assert.Empty(t, tr.drain(), "a no-op erase must not hit the network")
}

func TestEraseHitReplacesAndBroadcasts(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	commitStroke(c)
	<-tr.sent // the commit's draw; receiving it proves the commit ran

	c.EraseAt(geom.Point{X: 0, Y: 0}, 10) // swallows the whole stroke

	f := c.Frame()
	assert.Equal(t, 0, len(f.Lines))
	assert.Equal(t, 3, c.HistoryLen())

	evs := tr.drain()
	require.Equal(t, 1, len(evs))
	assert.Equal(t, protocol.EventUpdateBoard, evs[0].Event)
	sn, ok := protocol.DecodeBoardUpdate(evs[0].Data)
	require.True(t, ok)
	assert.Equal(t, 0, len(sn.Lines))
}

func TestUndoRedoBroadcastFullSnapshots(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	c.Undo() // at index 0: no-op, no traffic
	c.Frame()
	assert.Empty(t, tr.drain())

	commitStroke(c)
	<-tr.sent // the commit's draw; receiving it proves the commit ran

	c.Undo()
	f := c.Frame()
	assert.Equal(t, 0, len(f.Lines))
	evs := tr.drain()
	require.Equal(t, 1, len(evs))
	assert.Equal(t, protocol.EventUpdateBoard, evs[0].Event)

	c.Redo()
	f = c.Frame()
	assert.Equal(t, 1, len(f.Lines))
	evs = tr.drain()
	require.Equal(t, 1, len(evs))
	assert.Equal(t, protocol.EventUpdateBoard, evs[0].Event)

	c.Redo() // at the end: no-op
	c.Frame()
	assert.Empty(t, tr.drain())
}

func TestInboundClearResetsEverything(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")
	commitStroke(c)
	<-tr.sent // the commit's draw; receiving it proves the commit ran

	ev, err := protocol.New(protocol.EventClearBoard, protocol.ClearBoard{RoomID: "room-1"})
	require.NoError(t, err)
	tr.events <- ev

	require.Eventually(t, func() bool {
		f := c.Frame()
		return len(f.Lines) == 0 && !f.CanUndo
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, c.HistoryLen())
}

func TestInboundLoadBoardSeedsState(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	tr.events <- protocol.Event{
		Event: protocol.EventLoadBoard,
		Data:  json.RawMessage(`[{"points":[0,0,9,9],"tool":"pen","color":"#000000","lineWidth":1}]`),
	}

	require.Eventually(t, func() bool {
		return len(c.Frame().Lines) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 2, c.HistoryLen())
}

func TestMalformedInboundIsIgnored(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	tr.events <- protocol.Event{Event: protocol.EventDraw, Data: json.RawMessage(`{"weird":true}`)}
	tr.events <- protocol.Event{Event: protocol.EventUpdateBoard, Data: json.RawMessage(`"nope"`)}
	tr.events <- protocol.Event{Event: "totallyUnknown", Data: json.RawMessage(`{}`)}

	// A valid event afterwards still applies: the loop survived.
	tr.events <- protocol.Event{
		Event: protocol.EventDraw,
		Data:  json.RawMessage(`{"points":[0,0,1,1],"tool":"pen","color":"#000000","lineWidth":1}`),
	}
	require.Eventually(t, func() bool {
		return len(c.Frame().Lines) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestPresenceEventsFlowIntoFrame(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")

	tr.events <- protocol.Event{Event: protocol.EventUserJoined, Data: json.RawMessage(`{"id":"B","name":"Otter","color":"#3cb44b"}`)}
	tr.events <- protocol.Event{Event: protocol.EventCursorUpdate, Data: json.RawMessage(`{"userId":"B","cursor":{"x":7,"y":8}}`)}

	require.Eventually(t, func() bool {
		f := c.Frame()
		return len(f.Users) == 1 && f.Users[0].Cursor != nil
	}, time.Second, 5*time.Millisecond)

	// Self never shows up as a peer.
	tr.events <- protocol.Event{Event: protocol.EventUserList, Data: json.RawMessage(`[{"id":"A"},{"id":"B"},{"id":"C"}]`)}
	require.Eventually(t, func() bool {
		return len(c.Frame().Users) == 2
	}, time.Second, 5*time.Millisecond)

	tr.events <- protocol.Event{Event: protocol.EventUserLeft, Data: json.RawMessage(`"B"`)}
	require.Eventually(t, func() bool {
		return len(c.Frame().Users) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestConnectAnnouncesJoin(t *testing.T) {
	tr := newFakeTransport()
	c := newClient(t, tr, "A")
	_ = c

	tr.status <- net.StatusConnected

	select {
	case ev := <-tr.sent:
		require.Equal(t, protocol.EventJoinRoom, ev.Event)
		j, ok := protocol.DecodeJoinRoom(ev.Data)
		require.True(t, ok)
		assert.Equal(t, "A", j.User.ID)
		assert.Equal(t, "room-1", j.RoomID)
	case <-time.After(time.Second):
		t.Fatal("no join announcement after connect")
	}
}

func TestDisconnectStatusWaitsForGraceWindow(t *testing.T) {
	tr := newFakeTransport()

	var mu stdsync.Mutex
	var transitions []bool
	hooks := sync.Hooks{OnStatus: func(connected bool) {
		mu.Lock()
		transitions = append(transitions, connected)
		mu.Unlock()
	}}

	c := sync.New(
		sync.Config{RoomID: "room-1", Heartbeat: time.Hour, SweepEvery: time.Hour, ReconnectGrace: 80 * time.Millisecond},
		tr, presence.MemoryStore{}, presence.User{ID: "A"}, hooks,
	)
	defer c.Close()

	tr.status <- net.StatusConnected
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) == 1 && transitions[0]
	}, time.Second, 5*time.Millisecond)

	// A short drop that recovers inside the window: no flap.
	tr.status <- net.StatusDisconnected
	tr.status <- net.StatusConnected
	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	for _, connected := range transitions {
		assert.True(t, connected, "status must never flip to disconnected")
	}
	mu.Unlock()

	// A sustained drop flips after the window elapses.
	tr.status <- net.StatusDisconnected
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(transitions) > 0 && !transitions[len(transitions)-1]
	}, time.Second, 5*time.Millisecond)
}

func TestHeartbeatReEmitsLastCursor(t *testing.T) {
	tr := newFakeTransport()
	c := sync.New(
		sync.Config{RoomID: "room-1", Heartbeat: 15 * time.Millisecond, SweepEvery: time.Hour},
		tr, presence.MemoryStore{}, presence.User{ID: "A"}, sync.Hooks{},
	)
	defer c.Close()

	tr.status <- net.StatusConnected
	c.MoveCursor(geom.Point{X: 3, Y: 4})

	moves := 0
	require.Eventually(t, func() bool {
		for _, ev := range tr.drain() {
			if ev.Event == protocol.EventCursorMove {
				moves++
			}
		}
		return moves >= 2 // the explicit move plus at least one heartbeat
	}, time.Second, 5*time.Millisecond)
}

func TestSweepEvictsSilentPeers(t *testing.T) {
	tr := newFakeTransport()
	c := sync.New(
		sync.Config{RoomID: "room-1", Heartbeat: time.Hour, SweepEvery: 15 * time.Millisecond, StaleAfter: 30 * time.Millisecond},
		tr, presence.MemoryStore{}, presence.User{ID: "A"}, sync.Hooks{},
	)
	defer c.Close()

	tr.events <- protocol.Event{Event: protocol.EventUserJoined, Data: json.RawMessage(`{"id":"B","name":"Otter"}`)}
	require.Eventually(t, func() bool {
		return len(c.Frame().Users) == 1
	}, time.Second, 5*time.Millisecond)

	// B goes silent; the sweep evicts them once LastSeen ages out.
	require.Eventually(t, func() bool {
		return len(c.Frame().Users) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestLeaveEmitsAndForgetsIdentity(t *testing.T) {
	tr := newFakeTransport()
	store := presence.MemoryStore{}
	self, err := presence.LoadOrCreate(store, "room-1")
	require.NoError(t, err)

	c := sync.New(sync.Config{RoomID: "room-1", Heartbeat: time.Hour, SweepEvery: time.Hour},
		tr, store, self, sync.Hooks{})

	c.Leave()

	var sawLeave bool
	for _, ev := range tr.drain() {
		if ev.Event == protocol.EventLeaveRoom {
			l, ok := protocol.DecodeLeaveRoom(ev.Data)
			require.True(t, ok)
			assert.Equal(t, self.ID, l.UserID)
			sawLeave = true
		}
	}
	assert.True(t, sawLeave)

	_, ok := store.Get("room-1")
	assert.False(t, ok, "identity must be discarded on explicit leave")
}
