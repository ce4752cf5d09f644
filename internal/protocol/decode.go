package protocol

import (
	"encoding/json"

	"SketchRoom/internal/board"
	"SketchRoom/internal/presence"
)

// Inbound payload decoders. Every decoder is total: malformed or
// unrecognized payloads come back ok=false and are dropped by the caller,
// never an error up the apply loop.

// drawWire mirrors the three accepted draw payload forms: the
// {roomId, strokeData} envelope, a bare stroke, or a bare shape.
type drawWire struct {
	RoomID     string          `json:"roomId"`
	StrokeData json.RawMessage `json:"strokeData"`
}

// DecodeDraw resolves the draw tagged union once: a payload with a
// "points" field is a stroke; a "type" of rectangle/circle is a shape;
// anything else is rejected.
func DecodeDraw(raw json.RawMessage) (Draw, bool) {
	body := raw
	var env drawWire
	if err := json.Unmarshal(raw, &env); err == nil && len(env.StrokeData) > 0 {
		body = env.StrokeData
	}

	var probe struct {
		Points []float64 `json:"points"`
		Type   string    `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return Draw{}, false
	}

	switch {
	case probe.Points != nil:
		var st board.Stroke
		if err := json.Unmarshal(body, &st); err != nil || !st.Valid() || len(st.Points)%2 != 0 {
			return Draw{}, false
		}
		return Draw{RoomID: env.RoomID, Stroke: &st}, true
	case probe.Type == board.ToolRectangle || probe.Type == board.ToolCircle:
		var sh board.Shape
		if err := json.Unmarshal(body, &sh); err != nil {
			return Draw{}, false
		}
		return Draw{RoomID: env.RoomID, Shape: &sh}, true
	}
	return Draw{}, false
}

// DecodeBoardUpdate parses a full-snapshot replace.
func DecodeBoardUpdate(raw json.RawMessage) (board.Snapshot, bool) {
	var u BoardUpdate
	if err := json.Unmarshal(raw, &u); err != nil {
		return board.Snapshot{}, false
	}
	return sanitize(board.Snapshot{Lines: u.Lines, Shapes: u.Shapes}), true
}

// DecodeLoadBoard parses the initial snapshot sent to a new joiner: either
// a bare stroke array (the legacy form) or {lines?, shapes?}.
func DecodeLoadBoard(raw json.RawMessage) (board.Snapshot, bool) {
	var lines []board.Stroke
	if err := json.Unmarshal(raw, &lines); err == nil {
		return sanitize(board.Snapshot{Lines: lines}), true
	}
	return DecodeBoardUpdate(raw)
}

// DecodeUser parses a userJoined payload.
func DecodeUser(raw json.RawMessage) (presence.User, bool) {
	var u presence.User
	if err := json.Unmarshal(raw, &u); err != nil || u.ID == "" {
		return presence.User{}, false
	}
	return u, true
}

// DecodeUserList parses a full presence replacement.
func DecodeUserList(raw json.RawMessage) ([]presence.User, bool) {
	var users []presence.User
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, false
	}
	return users, true
}

// DecodeUserID parses a userLeft payload: a bare string, with the
// {userId} envelope accepted too.
func DecodeUserID(raw json.RawMessage) (string, bool) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return id, true
	}
	var env struct {
		UserID string `json:"userId"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.UserID != "" {
		return env.UserID, true
	}
	return "", false
}

// DecodeCursorUpdate parses a peer cursor move.
func DecodeCursorUpdate(raw json.RawMessage) (CursorUpdate, bool) {
	var cu CursorUpdate
	if err := json.Unmarshal(raw, &cu); err != nil || cu.UserID == "" {
		return CursorUpdate{}, false
	}
	return cu, true
}

// DecodeJoinRoom parses a join announcement (relay side).
func DecodeJoinRoom(raw json.RawMessage) (JoinRoom, bool) {
	var j JoinRoom
	if err := json.Unmarshal(raw, &j); err != nil || j.User.ID == "" {
		return JoinRoom{}, false
	}
	return j, true
}

// DecodeLeaveRoom parses a leave announcement (relay side).
func DecodeLeaveRoom(raw json.RawMessage) (LeaveRoom, bool) {
	var l LeaveRoom
	if err := json.Unmarshal(raw, &l); err != nil || l.UserID == "" {
		return LeaveRoom{}, false
	}
	return l, true
}

// DecodeCursorMove parses a client cursor move (relay side).
func DecodeCursorMove(raw json.RawMessage) (CursorMove, bool) {
	var c CursorMove
	if err := json.Unmarshal(raw, &c); err != nil || c.UserID == "" {
		return CursorMove{}, false
	}
	return c, true
}

// DecodeClearBoard parses a clear request.
func DecodeClearBoard(raw json.RawMessage) (ClearBoard, bool) {
	var c ClearBoard
	if err := json.Unmarshal(raw, &c); err != nil {
		return ClearBoard{}, false
	}
	return c, true
}

// sanitize drops strokes too short to render; inbound snapshots are
// trusted otherwise.
func sanitize(sn board.Snapshot) board.Snapshot {
	kept := sn.Lines[:0:0]
	for _, st := range sn.Lines {
		if st.Valid() && len(st.Points)%2 == 0 {
			kept = append(kept, st)
		}
	}
	sn.Lines = kept
	return sn
}
