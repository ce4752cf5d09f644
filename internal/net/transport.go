package net

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SketchRoom/internal/protocol"
)

// Status is a transport lifecycle notification.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
)

// Transport carries protocol events to and from the relay. The sync client
// owns the lifecycle of whichever implementation it is handed.
type Transport interface {
	Send(ev protocol.Event) error
	Events() <-chan protocol.Event
	Status() <-chan Status
	Close() error
}

const (
	writeTimeout   = 5 * time.Second
	redialBase     = time.Second
	redialMax      = 10 * time.Second
	eventQueueSize = 64
)

// WSTransport is the websocket Transport. It redials with capped backoff
// after a connection drop and reports each transition on Status; it never
// retries individual sends — a send on a down connection is simply lost,
// and later full-snapshot events repair the difference.
type WSTransport struct {
	url string
	log *log.Logger

	mu   sync.Mutex
	conn *websocket.Conn

	events chan protocol.Event
	status chan Status
	done   chan struct{}
	once   sync.Once
}

// Dial starts a websocket transport against the relay URL. The connection
// is established asynchronously; watch Status for the first connect.
func Dial(url string) *WSTransport {
	t := &WSTransport{
		url:    url,
		log:    log.New(os.Stdout, "[transport] ", log.LstdFlags),
		events: make(chan protocol.Event, eventQueueSize),
		status: make(chan Status, 8),
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

// Events yields decoded inbound events until Close.
func (t *WSTransport) Events() <-chan protocol.Event { return t.events }

// Status yields connect/disconnect transitions.
func (t *WSTransport) Status() <-chan Status { return t.status }

// Send writes one event to the relay. Fails fast while disconnected.
func (t *WSTransport) Send(ev protocol.Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Event, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("send %s: not connected", ev.Event)
	}
	_ = t.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := t.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		return fmt.Errorf("send %s: %w", ev.Event, err)
	}
	return nil
}

// Close tears the transport down on every exit path; safe to call twice.
func (t *WSTransport) Close() error {
	t.once.Do(func() {
		close(t.done)
		t.mu.Lock()
		if t.conn != nil {
			_ = t.conn.Close()
		}
		t.mu.Unlock()
	})
	return nil
}

// run dials, pumps the reader, and redials forever until Close.
func (t *WSTransport) run() {
	defer close(t.events)

	backoff := redialBase
	for {
		select {
		case <-t.done:
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
		if err != nil {
			t.log.Printf("dial %s: %v (retrying in %s)", t.url, err, backoff)
			select {
			case <-t.done:
				return
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > redialMax {
				backoff = redialMax
			}
			continue
		}
		backoff = redialBase

		// Close may have landed while the dial was in flight. Check under
		// the lock so a shutdown either sees the installed conn or we see
		// done here and discard the fresh conn ourselves.
		t.mu.Lock()
		select {
		case <-t.done:
			t.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		t.conn = conn
		t.mu.Unlock()
		t.notify(StatusConnected)

		t.readLoop(conn)

		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		_ = conn.Close()

		select {
		case <-t.done:
			return
		default:
			t.notify(StatusDisconnected)
		}
	}
}

// readLoop decodes frames into events until the connection drops.
// Undecodable frames are logged and skipped, never fatal.
func (t *WSTransport) readLoop(conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		ev, err := protocol.Decode(raw)
		if err != nil {
			t.log.Printf("drop frame: %v", err)
			continue
		}
		select {
		case t.events <- ev:
		case <-t.done:
			return
		}
	}
}

// notify never blocks: if the consumer lags, stale transitions are dropped
// in favor of the newest one.
func (t *WSTransport) notify(s Status) {
	for {
		select {
		case t.status <- s:
			return
		default:
			select {
			case <-t.status:
			default:
			}
		}
	}
}
