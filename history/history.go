// Package history coordinates undo/redo across independent state trackers.
//
// Each subsystem that carries undoable state implements Tracker. A Meta
// container owns the registered trackers and the snapshot stacks: an undo
// point is an ordered list of exactly the trackers that had pending
// changes at checkpoint time, and undoing replays that list in order.
package history

// Tracker is one undoable unit of state.
//
// CreateUndoPoint captures the current state as a revision and reports
// whether anything had changed since the previous revision. Undo and Redo
// move one revision backwards or forwards. MarkSaved clears the pending
// flag without touching revisions. RestoreLastUndoPoint reverts to the
// last checkpoint without consuming a redo entry; it exists for rollback
// after a failed batch operation, not for normal undo.
type Tracker interface {
	Changed() bool
	CreateUndoPoint() bool
	Undo()
	Redo()
	MarkSaved()
	RestoreLastUndoPoint()
}

// Meta fans undo/redo out to registered trackers.
//
// Trackers register once at startup into one of two ordered lists. World
// trackers hold world state and drive the top-level unsaved-changes
// signal; non-world trackers (selection, tool state) participate in
// undo points but never mark the world dirty on their own.
//
// Meta performs no internal locking: callers serialize access.
type Meta struct {
	world    []Tracker
	nonWorld []Tracker

	undo [][]Tracker
	redo [][]Tracker

	// savedDepth is the undo stack depth at the last MarkSaved.
	savedDepth int
}

// NewMeta returns an empty container with no registered trackers.
func NewMeta() *Meta {
	return &Meta{}
}

// Register appends t to the world or non-world list. Registration order is
// the order trackers are checkpointed and replayed in.
func (m *Meta) Register(t Tracker, world bool) {
	if world {
		m.world = append(m.world, t)
	} else {
		m.nonWorld = append(m.nonWorld, t)
	}
}

// selected returns the trackers an undo point covers, world first, each
// list in registration order.
func (m *Meta) selected(nonWorldOnly bool) []Tracker {
	if nonWorldOnly {
		return m.nonWorld
	}
	out := make([]Tracker, 0, len(m.world)+len(m.nonWorld))
	out = append(out, m.world...)
	return append(out, m.nonWorld...)
}

// CreateUndoPoint checkpoints the selected trackers and pushes an ordered
// snapshot of those that reported a change. An empty snapshot is not
// pushed. Returns whether a snapshot was pushed.
func (m *Meta) CreateUndoPoint(nonWorldOnly bool) bool {
	var snap []Tracker
	for _, t := range m.selected(nonWorldOnly) {
		if t.CreateUndoPoint() {
			snap = append(snap, t)
		}
	}
	if len(snap) == 0 {
		return false
	}
	m.undo = append(m.undo, snap)
	m.redo = m.redo[:0]
	return true
}

// Undo pops the top snapshot and undoes every tracker in it, in the
// snapshot's stored order. A no-op when the undo stack is empty.
func (m *Meta) Undo() {
	if len(m.undo) == 0 {
		return
	}
	snap := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	for _, t := range snap {
		t.Undo()
	}
	m.redo = append(m.redo, snap)
}

// Redo re-applies the most recently undone snapshot. A no-op when the redo
// stack is empty.
func (m *Meta) Redo() {
	if len(m.redo) == 0 {
		return
	}
	snap := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	for _, t := range snap {
		t.Redo()
	}
	m.undo = append(m.undo, snap)
}

// UndoCount returns the number of undoable snapshots.
func (m *Meta) UndoCount() int { return len(m.undo) }

// RedoCount returns the number of redoable snapshots.
func (m *Meta) RedoCount() int { return len(m.redo) }

// Changed reports whether there are unsaved changes: the undo stack has
// moved since the last MarkSaved, or any world tracker has pending edits.
// Non-world trackers never trip this signal.
func (m *Meta) Changed() bool {
	if len(m.undo) != m.savedDepth {
		return true
	}
	for _, t := range m.world {
		if t.Changed() {
			return true
		}
	}
	return false
}

// MarkSaved records the current position as saved and clears every
// tracker's pending flag. Revision history is untouched.
func (m *Meta) MarkSaved() {
	m.savedDepth = len(m.undo)
	for _, t := range m.world {
		t.MarkSaved()
	}
	for _, t := range m.nonWorld {
		t.MarkSaved()
	}
}

// RestoreLastUndoPoint reverts every registered tracker to its last
// checkpoint without consuming redo entries. Used to roll back a failed
// batch operation.
func (m *Meta) RestoreLastUndoPoint() {
	for _, t := range m.world {
		t.RestoreLastUndoPoint()
	}
	for _, t := range m.nonWorld {
		t.RestoreLastUndoPoint()
	}
}
