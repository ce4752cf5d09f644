// Package protocol defines the JSON events exchanged with the relay. Every
// message is an {event, data} envelope; payload decoding happens once, here,
// so the rest of the engine only ever sees well-formed variants.
package protocol

import (
	"encoding/json"
	"fmt"

	"SketchRoom/internal/board"
	"SketchRoom/internal/geom"
	"SketchRoom/internal/presence"
)

// Event names. Outbound, inbound or both; see each payload type.
const (
	EventJoinRoom     = "joinRoom"
	EventLeaveRoom    = "leaveRoom"
	EventCursorMove   = "cursorMove"
	EventDraw         = "draw"
	EventUpdateBoard  = "updateBoard"
	EventClearBoard   = "clearBoard"
	EventLoadBoard    = "loadBoard"
	EventUserJoined   = "userJoined"
	EventUserLeft     = "userLeft"
	EventCursorUpdate = "cursorUpdate"
	EventUserList     = "userList"
)

// Event is the wire envelope.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// New builds an envelope around a payload.
func New(name string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", name, err)
	}
	return Event{Event: name, Data: raw}, nil
}

// Decode parses an envelope off the wire.
func Decode(b []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if e.Event == "" {
		return Event{}, fmt.Errorf("decode event: missing event name")
	}
	return e, nil
}

// JoinRoom announces this client's presence (outbound).
type JoinRoom struct {
	RoomID string        `json:"roomId"`
	User   presence.User `json:"user"`
}

// LeaveRoom withdraws presence (outbound).
type LeaveRoom struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// CursorMove carries this client's world-space cursor (outbound).
type CursorMove struct {
	RoomID string     `json:"roomId"`
	UserID string     `json:"userId"`
	Cursor geom.Point `json:"cursor"`
}

// CursorUpdate is the relay's rebroadcast of a peer's cursor (inbound).
type CursorUpdate struct {
	UserID string     `json:"userId"`
	Cursor geom.Point `json:"cursor"`
}

// Draw is one committed stroke or shape (both directions). Exactly one of
// Stroke/Shape is set after decoding.
type Draw struct {
	RoomID string
	Stroke *board.Stroke
	Shape  *board.Shape
}

// MarshalJSON writes the envelope form {roomId, strokeData}.
func (d Draw) MarshalJSON() ([]byte, error) {
	var strokeData any
	switch {
	case d.Stroke != nil:
		strokeData = d.Stroke
	case d.Shape != nil:
		strokeData = d.Shape
	}
	return json.Marshal(struct {
		RoomID     string `json:"roomId"`
		StrokeData any    `json:"strokeData"`
	}{d.RoomID, strokeData})
}

// BoardUpdate is a full-snapshot replace, used by erase/undo/redo (both
// directions).
type BoardUpdate struct {
	RoomID string         `json:"roomId"`
	Lines  []board.Stroke `json:"lines"`
	Shapes []board.Shape  `json:"shapes"`
}

// ClearBoard empties the board and history (both directions).
type ClearBoard struct {
	RoomID string `json:"roomId"`
}
