package board

// History is a linear undo/redo log of board snapshots. Slot 0 is always
// the empty board, so the index stays within [0, len-1] and undoing the
// first commit lands on a blank canvas.
type History struct {
	log   []Snapshot
	index int
}

// NewHistory returns a log seeded with a single empty snapshot.
func NewHistory() *History {
	return &History{log: []Snapshot{{}}}
}

// Push records a new commit point. Any redo branch beyond the current
// index is discarded first.
func (h *History) Push(sn Snapshot) {
	h.log = append(h.log[:h.index+1], sn.Clone())
	h.index = len(h.log) - 1
}

// Undo steps back one snapshot. ok=false at the start of the log.
func (h *History) Undo() (Snapshot, bool) {
	if h.index == 0 {
		return Snapshot{}, false
	}
	h.index--
	return h.log[h.index].Clone(), true
}

// Redo steps forward one snapshot. ok=false at the end of the log.
func (h *History) Redo() (Snapshot, bool) {
	if h.index >= len(h.log)-1 {
		return Snapshot{}, false
	}
	h.index++
	return h.log[h.index].Clone(), true
}

// Reset drops everything and leaves a single empty snapshot at index 0.
func (h *History) Reset() {
	h.log = []Snapshot{{}}
	h.index = 0
}

// Len returns the number of snapshots in the log.
func (h *History) Len() int { return len(h.log) }

// Index returns the current position in the log.
func (h *History) Index() int { return h.index }

// CanUndo and CanRedo drive toolbar button state.
func (h *History) CanUndo() bool { return h.index > 0 }
func (h *History) CanRedo() bool { return h.index < len(h.log)-1 }
