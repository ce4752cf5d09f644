// Package relay is the rebroadcast server: it keeps each room's
// authoritative snapshot and user set in memory and fans every event out
// to the room's other members. It resolves no conflicts — events are
// relayed in arrival order and the last full snapshot wins.
package relay

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SketchRoom/internal/protocol"
)

const (
	writeTimeout = 5 * time.Second
	outQueueSize = 64
)

// Server accepts websocket clients and routes their events into rooms.
type Server struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	rooms map[string]*room
}

func NewServer() *Server {
	return &Server{
		log: log.New(os.Stdout, "[relay] ", log.LstdFlags|log.Lmicroseconds),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // LAN tool
		},
		rooms: make(map[string]*room),
	}
}

// Handler upgrades the connection and pumps it until it drops.
func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		m := &member{out: make(chan protocol.Event, outQueueSize)}
		done := make(chan struct{})

		// Writer goroutine: one writer per conn, serialized by the channel.
		go func() {
			for {
				select {
				case <-done:
					return
				case ev, ok := <-m.out:
					if !ok {
						return
					}
					raw, err := json.Marshal(ev)
					if err != nil {
						continue
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
					if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
						return
					}
				}
			}
		}()

		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				break
			}
			ev, err := protocol.Decode(raw)
			if err != nil {
				s.log.Printf("drop frame from %s: %v", conn.RemoteAddr(), err)
				continue
			}
			s.Dispatch(m, ev)
		}

		close(done)
		s.Disconnect(m)
	}
}

// member is one connected client. out is its serialized write queue; a
// member that cannot keep up loses events rather than stalling the room.
type member struct {
	out    chan protocol.Event
	userID string
	room   *room
}

func (m *member) send(ev protocol.Event) {
	select {
	case m.out <- ev:
	default:
	}
}

// Dispatch applies one inbound event under the server lock. Unknown or
// malformed events are logged and dropped.
func (s *Server) Dispatch(m *member, ev protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch ev.Event {
	case protocol.EventJoinRoom:
		j, ok := protocol.DecodeJoinRoom(ev.Data)
		if !ok {
			s.log.Printf("drop malformed joinRoom")
			return
		}
		s.join(m, j)

	case protocol.EventLeaveRoom:
		l, ok := protocol.DecodeLeaveRoom(ev.Data)
		if !ok {
			return
		}
		s.leave(m, l.UserID)

	case protocol.EventDraw:
		d, ok := protocol.DecodeDraw(ev.Data)
		if !ok || m.room == nil {
			return
		}
		if d.Stroke != nil {
			m.room.snapshot.Lines = append(m.room.snapshot.Lines, *d.Stroke)
		} else if d.Shape != nil {
			m.room.snapshot.Shapes = append(m.room.snapshot.Shapes, *d.Shape)
		}
		m.room.broadcast(ev, m)

	case protocol.EventUpdateBoard:
		sn, ok := protocol.DecodeBoardUpdate(ev.Data)
		if !ok || m.room == nil {
			return
		}
		m.room.snapshot = sn
		m.room.broadcast(ev, m)

	case protocol.EventClearBoard:
		if _, ok := protocol.DecodeClearBoard(ev.Data); !ok || m.room == nil {
			return
		}
		m.room.snapshot.Lines = nil
		m.room.snapshot.Shapes = nil
		m.room.broadcast(ev, m)

	case protocol.EventCursorMove:
		c, ok := protocol.DecodeCursorMove(ev.Data)
		if !ok || m.room == nil {
			return
		}
		if u, found := m.room.users[c.UserID]; found {
			u.Cursor = &c.Cursor
			m.room.users[c.UserID] = u
		}
		m.room.emitTo(protocol.EventCursorUpdate, protocol.CursorUpdate{
			UserID: c.UserID, Cursor: c.Cursor,
		}, m)

	default:
		s.log.Printf("drop unhandled event %q", ev.Event)
	}
}

// Disconnect cleans up after a dropped socket: same path as an explicit
// leave, so abrupt exits still broadcast userLeft.
func (s *Server) Disconnect(m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leave(m, m.userID)
}
