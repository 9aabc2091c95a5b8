package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTracker records calls and simulates a single dirty flag.
type stubTracker struct {
	name  string
	dirty bool
	calls *[]string
}

func (s *stubTracker) Changed() bool { return s.dirty }

func (s *stubTracker) CreateUndoPoint() bool {
	had := s.dirty
	s.dirty = false
	return had
}

func (s *stubTracker) Undo()                 { *s.calls = append(*s.calls, s.name+".undo") }
func (s *stubTracker) Redo()                 { *s.calls = append(*s.calls, s.name+".redo") }
func (s *stubTracker) MarkSaved()            { s.dirty = false }
func (s *stubTracker) RestoreLastUndoPoint() { *s.calls = append(*s.calls, s.name+".restore") }

func newStubs(calls *[]string, names ...string) []*stubTracker {
	out := make([]*stubTracker, len(names))
	for i, n := range names {
		out[i] = &stubTracker{name: n, calls: calls}
	}
	return out
}

// TestSnapshotOnlyHoldsChangedTrackers checkpoints three trackers of which
// two have pending changes; only those two participate in undo and redo.
func TestSnapshotOnlyHoldsChangedTrackers(t *testing.T) {
	var calls []string
	ts := newStubs(&calls, "a", "b", "c")
	m := NewMeta()
	for _, s := range ts {
		m.Register(s, true)
	}

	ts[0].dirty = true
	ts[2].dirty = true
	require.True(t, m.CreateUndoPoint(false))
	require.Equal(t, 1, m.UndoCount())

	m.Undo()
	assert.Equal(t, []string{"a.undo", "c.undo"}, calls)
	assert.Equal(t, 0, m.UndoCount())
	assert.Equal(t, 1, m.RedoCount())

	calls = calls[:0]
	m.Redo()
	assert.Equal(t, []string{"a.redo", "c.redo"}, calls)
	assert.Equal(t, 1, m.UndoCount())
}

// TestIdempotentCheckpoint verifies that a second checkpoint with no new
// edits pushes nothing.
func TestIdempotentCheckpoint(t *testing.T) {
	var calls []string
	s := newStubs(&calls, "a")[0]
	m := NewMeta()
	m.Register(s, true)

	s.dirty = true
	require.True(t, m.CreateUndoPoint(false))
	assert.False(t, m.CreateUndoPoint(false))
	assert.Equal(t, 1, m.UndoCount())
}

func TestEmptySnapshotNotPushed(t *testing.T) {
	var calls []string
	s := newStubs(&calls, "a")[0]
	m := NewMeta()
	m.Register(s, true)

	assert.False(t, m.CreateUndoPoint(false))
	assert.Equal(t, 0, m.UndoCount())

	// Undo and redo on empty stacks are no-ops.
	m.Undo()
	m.Redo()
	assert.Empty(t, calls)
}

func TestNonWorldOnlyCheckpoint(t *testing.T) {
	var calls []string
	world := newStubs(&calls, "w")[0]
	sel := newStubs(&calls, "s")[0]
	m := NewMeta()
	m.Register(world, true)
	m.Register(sel, false)

	world.dirty = true
	sel.dirty = true

	// Non-world-only checkpoint must leave the world tracker's pending
	// change alone.
	require.True(t, m.CreateUndoPoint(true))
	assert.True(t, world.dirty)
	assert.False(t, sel.dirty)

	m.Undo()
	assert.Equal(t, []string{"s.undo"}, calls)
}

func TestCheckpointOrderIsRegistrationOrder(t *testing.T) {
	var calls []string
	ts := newStubs(&calls, "w1", "w2", "n1")
	m := NewMeta()
	m.Register(ts[0], true)
	m.Register(ts[1], true)
	m.Register(ts[2], false)

	for _, s := range ts {
		s.dirty = true
	}
	require.True(t, m.CreateUndoPoint(false))

	m.Undo()
	assert.Equal(t, []string{"w1.undo", "w2.undo", "n1.undo"}, calls)
}

func TestNewEditClearsRedo(t *testing.T) {
	var calls []string
	s := newStubs(&calls, "a")[0]
	m := NewMeta()
	m.Register(s, true)

	s.dirty = true
	require.True(t, m.CreateUndoPoint(false))
	m.Undo()
	require.Equal(t, 1, m.RedoCount())

	s.dirty = true
	require.True(t, m.CreateUndoPoint(false))
	assert.Equal(t, 0, m.RedoCount())
}

func TestChangedSignal(t *testing.T) {
	var calls []string
	world := newStubs(&calls, "w")[0]
	sel := newStubs(&calls, "s")[0]
	m := NewMeta()
	m.Register(world, true)
	m.Register(sel, false)

	assert.False(t, m.Changed())

	// A dirty non-world tracker alone does not mark the world unsaved.
	sel.dirty = true
	assert.False(t, m.Changed())

	world.dirty = true
	assert.True(t, m.Changed())

	require.True(t, m.CreateUndoPoint(false))
	assert.True(t, m.Changed(), "unsaved snapshot keeps the signal set")

	m.MarkSaved()
	assert.False(t, m.Changed())

	// Undoing away from the saved position is an unsaved change again.
	m.Undo()
	assert.True(t, m.Changed())
	m.Redo()
	assert.False(t, m.Changed())
}

func TestRestoreLastUndoPointFansOut(t *testing.T) {
	var calls []string
	ts := newStubs(&calls, "w", "n")
	m := NewMeta()
	m.Register(ts[0], true)
	m.Register(ts[1], false)

	ts[0].dirty = true
	require.True(t, m.CreateUndoPoint(false))
	require.Equal(t, 1, m.UndoCount())

	m.RestoreLastUndoPoint()
	assert.Equal(t, []string{"w.restore", "n.restore"}, calls)

	// Rollback consumes no history in either direction.
	assert.Equal(t, 1, m.UndoCount())
	assert.Equal(t, 0, m.RedoCount())
}
