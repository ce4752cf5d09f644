// Package sync owns the collaboration engine: it turns local gestures into
// outbound protocol events and applies inbound events to the board, the
// history and the presence set.
//
// Everything runs on one event loop goroutine. Local calls are funneled in
// as closures, inbound frames arrive on the transport channel, and the
// heartbeat/sweep/grace timers live inside the loop — so board, history and
// tracker need no locks: there is no parallelism, only interleaving.
package sync

import (
	"log"
	"os"
	"time"

	"SketchRoom/internal/board"
	"SketchRoom/internal/geom"
	"SketchRoom/internal/net"
	"SketchRoom/internal/presence"
	"SketchRoom/internal/protocol"
)

// Timer defaults; Config overrides are normalized in New.
const (
	DefaultHeartbeat      = 5 * time.Second
	DefaultSweepEvery     = 5 * time.Second
	DefaultStaleAfter     = 15 * time.Second
	DefaultReconnectGrace = 3 * time.Second
)

// Config wires a Client to its room and timers.
type Config struct {
	RoomID         string
	Heartbeat      time.Duration
	SweepEvery     time.Duration
	StaleAfter     time.Duration
	ReconnectGrace time.Duration
}

// Hooks are render/status callbacks, invoked from the event loop after a
// state change. Either may be nil.
type Hooks struct {
	OnChange func()               // board/presence changed; re-render
	OnStatus func(connected bool) // connection status display
}

// Frame is the render view handed to the drawing surface: committed
// content, the in-progress gesture, and every remote cursor.
type Frame struct {
	Lines       []board.Stroke
	Shapes      []board.Shape
	ActiveLine  *board.Stroke
	ActiveShape *board.Shape
	Users       []presence.User
	Connected   bool
	CanUndo     bool
	CanRedo     bool
}

// Client is the sync engine for one room.
type Client struct {
	cfg   Config
	hooks Hooks
	log   *log.Logger

	transport net.Transport
	store     presence.Store
	self      presence.User

	board   *board.Board
	history *board.History
	tracker *presence.Tracker

	actions chan func()
	done    chan struct{}
	stopped chan struct{}

	// Loop-owned connection state.
	connected  bool
	lastCursor *geom.Point
}

// New builds a client and starts its event loop. The transport's
// connect/disconnect lifecycle stays with the caller; the client only
// announces itself whenever the transport (re)connects.
func New(cfg Config, transport net.Transport, store presence.Store, self presence.User, hooks Hooks) *Client {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = DefaultSweepEvery
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.ReconnectGrace <= 0 {
		cfg.ReconnectGrace = DefaultReconnectGrace
	}

	c := &Client{
		cfg:       cfg,
		hooks:     hooks,
		log:       log.New(os.Stdout, "[sync] ", log.LstdFlags),
		transport: transport,
		store:     store,
		self:      self,
		board:     board.New(),
		history:   board.NewHistory(),
		tracker:   presence.NewTracker(),
		actions:   make(chan func(), 64),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	go c.run()
	return c
}

// Self returns this client's identity.
func (c *Client) Self() presence.User { return c.self }

// Close stops the event loop and its timers. It does not close the
// transport: the caller constructed it, the caller tears it down.
func (c *Client) Close() {
	select {
	case <-c.done:
		return
	default:
		close(c.done)
	}
	<-c.stopped
}

// Leave is the explicit exit: withdraw presence, discard the persisted
// identity so the next join to this room starts fresh, then stop.
func (c *Client) Leave() {
	sent := make(chan struct{})
	c.do(func() {
		defer close(sent)
		c.emit(protocol.EventLeaveRoom, protocol.LeaveRoom{RoomID: c.cfg.RoomID, UserID: c.self.ID})
		if err := presence.Forget(c.store, c.cfg.RoomID); err != nil {
			c.log.Printf("forget identity: %v", err)
		}
	})
	select {
	case <-sent:
	case <-c.done:
	}
	c.Close()
}

// --- Local operations (called from the UI goroutine) ---

func (c *Client) BeginStroke(tool, color string, width float64, p geom.Point) {
	c.do(func() {
		c.board.BeginStroke(tool, color, width, p.X, p.Y)
		c.changed()
	})
}

func (c *Client) AppendPoint(p geom.Point) {
	c.do(func() {
		c.board.AppendPoint(p.X, p.Y)
		c.changed()
	})
}

func (c *Client) BeginShape(tool, color string, p geom.Point) {
	c.do(func() {
		c.board.BeginShape(tool, color, p.X, p.Y)
		c.changed()
	})
}

func (c *Client) UpdateShape(p geom.Point) {
	c.do(func() {
		c.board.UpdateShape(p.X, p.Y)
		c.changed()
	})
}

// CommitGesture finalizes the active stroke/shape, records the commit
// point and broadcasts the increment.
func (c *Client) CommitGesture() {
	c.do(func() {
		st, sh, ok := c.board.Commit()
		if !ok {
			c.changed()
			return
		}
		c.history.Push(c.board.Snapshot())
		c.emit(protocol.EventDraw, protocol.Draw{RoomID: c.cfg.RoomID, Stroke: st, Shape: sh})
		c.changed()
	})
}

// EraseAt runs one segmentation pass. radius is already in world units
// (screen radius divided by the viewport scale). A pass that touches
// nothing mutates nothing and sends nothing.
func (c *Client) EraseAt(p geom.Point, radius float64) {
	c.do(func() {
		out, changed := board.EraseAt(c.board.Snapshot(), p.X, p.Y, radius)
		if !changed {
			return
		}
		c.board.ReplaceAll(out)
		c.history.Push(out)
		c.broadcastSnapshot(out)
		c.changed()
	})
}

// Undo steps the history back and resynchronizes peers with the full
// resulting snapshot.
func (c *Client) Undo() {
	c.do(func() {
		sn, ok := c.history.Undo()
		if !ok {
			return
		}
		c.board.ReplaceAll(sn)
		c.broadcastSnapshot(sn)
		c.changed()
	})
}

// Redo mirrors Undo forward.
func (c *Client) Redo() {
	c.do(func() {
		sn, ok := c.history.Redo()
		if !ok {
			return
		}
		c.board.ReplaceAll(sn)
		c.broadcastSnapshot(sn)
		c.changed()
	})
}

// ClearBoard empties board and history for every room member.
func (c *Client) ClearBoard() {
	c.do(func() {
		c.board.Clear()
		c.history.Reset()
		c.emit(protocol.EventClearBoard, protocol.ClearBoard{RoomID: c.cfg.RoomID})
		c.changed()
	})
}

// MoveCursor publishes this client's world-space cursor. The heartbeat
// re-emits the last position to keep us alive on peers between moves.
func (c *Client) MoveCursor(p geom.Point) {
	c.do(func() {
		c.lastCursor = &p
		c.emit(protocol.EventCursorMove, protocol.CursorMove{
			RoomID: c.cfg.RoomID, UserID: c.self.ID, Cursor: p,
		})
	})
}

// Frame returns the current render view, synchronized through the loop.
func (c *Client) Frame() Frame {
	reply := make(chan Frame, 1)
	c.do(func() {
		sn := c.board.Snapshot()
		act, actSh := c.board.Active()
		reply <- Frame{
			Lines:       sn.Lines,
			Shapes:      sn.Shapes,
			ActiveLine:  act,
			ActiveShape: actSh,
			Users:       c.tracker.List(),
			Connected:   c.connected,
			CanUndo:     c.history.CanUndo(),
			CanRedo:     c.history.CanRedo(),
		}
	})
	select {
	case f := <-reply:
		return f
	case <-c.done:
		return Frame{}
	}
}

// HistoryLen is exposed for tests.
func (c *Client) HistoryLen() int {
	reply := make(chan int, 1)
	c.do(func() { reply <- c.history.Len() })
	select {
	case n := <-reply:
		return n
	case <-c.done:
		return 0
	}
}

// --- Event loop ---

func (c *Client) do(fn func()) {
	select {
	case c.actions <- fn:
	case <-c.done:
	}
}

func (c *Client) run() {
	defer close(c.stopped)

	heartbeat := time.NewTicker(c.cfg.Heartbeat)
	defer heartbeat.Stop()
	sweep := time.NewTicker(c.cfg.SweepEvery)
	defer sweep.Stop()

	// The grace timer only exists while a disconnect is pending; a nil
	// channel keeps its select arm dormant otherwise.
	var grace *time.Timer
	var graceC <-chan time.Time
	defer func() {
		if grace != nil {
			grace.Stop()
		}
	}()

	for {
		select {
		case <-c.done:
			return

		case fn := <-c.actions:
			fn()

		case ev, ok := <-c.transport.Events():
			if !ok {
				return
			}
			c.apply(ev)

		case st := <-c.transport.Status():
			switch st {
			case net.StatusConnected:
				if grace != nil {
					grace.Stop()
					grace, graceC = nil, nil
				}
				c.connected = true
				c.announce()
				c.setStatus(true)
			case net.StatusDisconnected:
				// Hold the status for a grace window: short drops
				// recover without flapping the UI.
				if grace == nil && c.connected {
					grace = time.NewTimer(c.cfg.ReconnectGrace)
					graceC = grace.C
				}
			}

		case <-graceC:
			grace, graceC = nil, nil
			c.connected = false
			c.setStatus(false)

		case <-heartbeat.C:
			if c.connected && c.lastCursor != nil {
				c.emit(protocol.EventCursorMove, protocol.CursorMove{
					RoomID: c.cfg.RoomID, UserID: c.self.ID, Cursor: *c.lastCursor,
				})
			}

		case <-sweep.C:
			if evicted := c.tracker.Sweep(c.cfg.StaleAfter); len(evicted) > 0 {
				c.log.Printf("swept %d stale user(s)", len(evicted))
				c.changed()
			}
		}
	}
}

// announce (re)joins the room, carrying the persisted identity so the
// relay and peers can re-register us after a reconnect.
func (c *Client) announce() {
	c.emit(protocol.EventJoinRoom, protocol.JoinRoom{RoomID: c.cfg.RoomID, User: c.self})
	c.log.Printf("joined room %q as %s (%s)", c.cfg.RoomID, c.self.Name, c.self.ID)
}

// apply routes one inbound event. Payloads that fail their shape check are
// dropped; nothing inbound can crash the loop.
func (c *Client) apply(ev protocol.Event) {
	switch ev.Event {
	case protocol.EventDraw:
		d, ok := protocol.DecodeDraw(ev.Data)
		if !ok {
			c.log.Printf("drop malformed draw")
			return
		}
		if d.Stroke != nil {
			c.board.AddStroke(*d.Stroke)
		} else if d.Shape != nil {
			c.board.AddShape(*d.Shape)
		}
		c.history.Push(c.board.Snapshot())
		c.changed()

	case protocol.EventUpdateBoard:
		sn, ok := protocol.DecodeBoardUpdate(ev.Data)
		if !ok {
			c.log.Printf("drop malformed updateBoard")
			return
		}
		// Last full state wins; a concurrent peer snapshot simply
		// overwrites ours. The protocol carries no version to merge on.
		c.board.ReplaceAll(sn)
		c.history.Push(sn)
		c.changed()

	case protocol.EventClearBoard:
		c.board.Clear()
		c.history.Reset()
		c.changed()

	case protocol.EventLoadBoard:
		sn, ok := protocol.DecodeLoadBoard(ev.Data)
		if !ok {
			c.log.Printf("drop malformed loadBoard")
			return
		}
		c.board.ReplaceAll(sn)
		c.history.Reset()
		if !sn.Empty() {
			c.history.Push(sn)
		}
		c.changed()

	case protocol.EventUserJoined:
		u, ok := protocol.DecodeUser(ev.Data)
		if !ok || u.ID == c.self.ID {
			return
		}
		c.tracker.Upsert(u)
		c.changed()

	case protocol.EventUserLeft:
		id, ok := protocol.DecodeUserID(ev.Data)
		if !ok {
			return
		}
		c.tracker.Remove(id)
		c.changed()

	case protocol.EventCursorUpdate:
		cu, ok := protocol.DecodeCursorUpdate(ev.Data)
		if !ok || cu.UserID == c.self.ID {
			return
		}
		c.tracker.SetCursor(cu.UserID, cu.Cursor)
		c.changed()

	case protocol.EventUserList:
		users, ok := protocol.DecodeUserList(ev.Data)
		if !ok {
			return
		}
		peers := users[:0:0]
		for _, u := range users {
			if u.ID != c.self.ID {
				peers = append(peers, u)
			}
		}
		c.tracker.ReplaceAll(peers)
		c.changed()

	default:
		c.log.Printf("drop unknown event %q", ev.Event)
	}
}

func (c *Client) broadcastSnapshot(sn board.Snapshot) {
	c.emit(protocol.EventUpdateBoard, protocol.BoardUpdate{
		RoomID: c.cfg.RoomID,
		Lines:  sn.Lines,
		Shapes: sn.Shapes,
	})
}

// emit sends one event, best effort. A failed send is logged and lost:
// there is no retry queue, later snapshots repair the difference.
func (c *Client) emit(name string, payload any) {
	ev, err := protocol.New(name, payload)
	if err != nil {
		c.log.Printf("emit %s: %v", name, err)
		return
	}
	if err := c.transport.Send(ev); err != nil {
		c.log.Printf("emit %s: %v", name, err)
	}
}

func (c *Client) changed() {
	if c.hooks.OnChange != nil {
		c.hooks.OnChange()
	}
}

func (c *Client) setStatus(connected bool) {
	if c.hooks.OnStatus != nil {
		c.hooks.OnStatus(connected)
	}
}
