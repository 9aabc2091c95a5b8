package chunk

import (
	"errors"
	"fmt"
	"sort"
)

// Key identifies a chunk across dimensions.
type Key struct {
	Dim  string
	X, Z int
}

// SafeArea is a per-dimension rectangle of chunk coordinates, bounds
// inclusive, that Unload leaves in memory.
type SafeArea struct {
	Dim        string
	MinX, MinZ int
	MaxX, MaxZ int
}

// Contains reports whether the key falls inside the area.
func (a SafeArea) Contains(k Key) bool {
	return k.Dim == a.Dim &&
		k.X >= a.MinX && k.X <= a.MaxX &&
		k.Z >= a.MinZ && k.Z <= a.MaxZ
}

// entry is the cache's per-chunk state. The revision store holds snapshots
// 0..revs-1; index points at the revision the current state derives from.
type entry struct {
	current *Chunk
	loaded  bool // current/deleted reflect revision index (possibly edited)
	deleted bool
	dirty   bool

	index int
	revs  int

	// savedIndex is the revision last written through to region storage.
	// Revision 0 matches storage by construction.
	savedIndex int
}

// Cache is the working set of loaded chunks and their edit history. It
// implements the tracker contract in package history: an undo point
// records which chunks were checkpointed, and undoing walks exactly those
// chunks back one revision.
//
// When a chunk first enters the cache its unmodified state is written to
// the revision store as revision 0, so every later edit has a base state
// to restore to. Evicting an entry drops only the in-memory chunk; the
// revision chain stays on disk and the entry rematerializes from it on the
// next access.
//
// Cache performs no internal locking: callers serialize access.
type Cache struct {
	loader  Loader
	store   *Store
	entries map[Key]*entry

	undoPts [][]Key
	redoPts [][]Key

	// err is the first revision-store failure seen by a tracker method;
	// those methods have no error return, so callers poll Err.
	err error
}

// NewCache returns an empty cache backed by loader and the given revision
// store.
func NewCache(loader Loader, store *Store) *Cache {
	return &Cache{
		loader:  loader,
		store:   store,
		entries: make(map[Key]*entry),
	}
}

// Err returns the first deferred revision-store error, or nil. Clears the
// stored error.
func (m *Cache) Err() error {
	err := m.err
	m.err = nil
	return err
}

func (m *Cache) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// materialize loads e.current from the snapshot at e.index.
func (m *Cache) materialize(k Key, e *entry) error {
	raw, err := m.store.Get(k.Dim, k.X, k.Z, e.index)
	if err != nil {
		return err
	}
	c, err := decodeSnapshot(k.X, k.Z, raw)
	if err != nil {
		return err
	}
	e.current = c
	e.deleted = c == nil
	e.loaded = true
	e.dirty = false
	return nil
}

// GetChunk returns the current state of chunk (cx, cz) in dim, loading it
// on first access. A chunk deleted in the current revision, or absent from
// storage, fails with ErrNotPresent.
func (m *Cache) GetChunk(dim string, cx, cz int) (*Chunk, error) {
	k := Key{dim, cx, cz}
	if e, ok := m.entries[k]; ok {
		if !e.loaded {
			if err := m.materialize(k, e); err != nil {
				return nil, err
			}
		}
		if e.deleted {
			return nil, fmt.Errorf("%s (%d,%d): %w", dim, cx, cz, ErrNotPresent)
		}
		return e.current, nil
	}

	c, err := m.loader.LoadChunk(dim, cx, cz)
	if err != nil {
		return nil, err
	}
	if err := m.insert(k, c, false); err != nil {
		return nil, err
	}
	return c, nil
}

// insert creates the cache entry for a chunk entering the working set.
// Revision 0 captures the pre-edit base state: the loaded chunk itself, or
// a deleted marker when the chunk is newly created (so undo removes it).
func (m *Cache) insert(k Key, c *Chunk, created bool) error {
	var base *Chunk
	if !created {
		base = c
	}
	snap, err := encodeSnapshot(base)
	if err != nil {
		return err
	}
	if err := m.store.Truncate(k.Dim, k.X, k.Z, 0); err != nil {
		return err
	}
	if err := m.store.Put(k.Dim, k.X, k.Z, 0, snap); err != nil {
		return err
	}
	m.entries[k] = &entry{
		current: c,
		loaded:  true,
		dirty:   created,
		index:   0,
		revs:    1,
	}
	return nil
}

// PutChunk installs c as the current state of its coordinates in dim,
// marking it dirty. A chunk with no prior cache entry is treated as newly
// created: its base revision is a deleted marker.
func (m *Cache) PutChunk(dim string, c *Chunk) error {
	k := Key{dim, c.X, c.Z}
	e, ok := m.entries[k]
	if !ok {
		// Distinguish "new chunk" from "replacing an unloaded stored
		// chunk": try the loader first so the base revision is right.
		old, err := m.loader.LoadChunk(dim, c.X, c.Z)
		switch {
		case err == nil:
			if err := m.insert(k, old, false); err != nil {
				return err
			}
			e = m.entries[k]
		case errors.Is(err, ErrNotPresent):
			return m.insert(k, c, true)
		default:
			return err
		}
	}
	e.current = c
	e.loaded = true
	e.deleted = false
	e.dirty = true
	return nil
}

// DeleteChunk marks the chunk deleted in the current state. Deletion is
// undoable like any edit. Deleting a chunk that does not exist fails with
// the loader's error.
func (m *Cache) DeleteChunk(dim string, cx, cz int) error {
	k := Key{dim, cx, cz}
	e, ok := m.entries[k]
	if !ok {
		if _, err := m.GetChunk(dim, cx, cz); err != nil {
			return err
		}
		e = m.entries[k]
	} else if e.deleted {
		return fmt.Errorf("%s (%d,%d): %w", dim, cx, cz, ErrNotPresent)
	}
	e.current = nil
	e.deleted = true
	e.loaded = true
	e.dirty = true
	return nil
}

// MarkChanged flags the chunk dirty. A no-op for chunks not in the cache.
func (m *Cache) MarkChanged(dim string, cx, cz int) {
	if e, ok := m.entries[Key{dim, cx, cz}]; ok && e.loaded {
		e.dirty = true
	}
}

// needsSave reports whether the entry's current state differs from what
// region storage holds: un-checkpointed edits, or a revision index moved
// away from the last save (undo/redo past a save point).
func needsSave(e *entry) bool {
	return e.dirty || e.index != e.savedIndex
}

// ChangedChunks returns the keys of all chunks whose current state needs
// writing through to storage, ordered by dimension, then x, then z.
func (m *Cache) ChangedChunks() []Key {
	var out []Key
	for k, e := range m.entries {
		if needsSave(e) {
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Dim != b.Dim {
			return a.Dim < b.Dim
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	return out
}

// ChunkStates reports, for every tracked chunk in dim whose current state
// diverges from region storage, whether the chunk exists (true) or is
// pending deletion (false). Entries that match storage are omitted.
// Evicted divergent entries are rematerialized from the revision store to
// learn their state.
func (m *Cache) ChunkStates(dim string) map[[2]int]bool {
	out := make(map[[2]int]bool)
	for k, e := range m.entries {
		if k.Dim != dim || !needsSave(e) {
			continue
		}
		if !e.loaded {
			if err := m.materialize(k, e); err != nil {
				m.fail(err)
				continue
			}
		}
		out[[2]int{k.X, k.Z}] = !e.deleted
	}
	return out
}

// Current returns the cached state for key without loading anything.
// The second result is false when the entry is absent or evicted.
func (m *Cache) Current(k Key) (*Chunk, bool) {
	e, ok := m.entries[k]
	if !ok || !e.loaded || e.deleted {
		return nil, ok && e.loaded
	}
	return e.current, true
}

// CachedCount returns the number of entries currently held in memory.
func (m *Cache) CachedCount() int {
	n := 0
	for _, e := range m.entries {
		if e.loaded {
			n++
		}
	}
	return n
}

// Changed reports whether any chunk has un-checkpointed edits.
func (m *Cache) Changed() bool {
	for _, e := range m.entries {
		if e.dirty {
			return true
		}
	}
	return false
}

// CreateUndoPoint pushes a snapshot of every dirty chunk onto its revision
// chain and clears the dirty flags. Returns true iff any chunk was pushed.
func (m *Cache) CreateUndoPoint() bool {
	var keys []Key
	for k, e := range m.entries {
		if !e.dirty {
			continue
		}
		var target *Chunk
		if !e.deleted {
			target = e.current
		}
		snap, err := encodeSnapshot(target)
		if err != nil {
			m.fail(err)
			continue
		}
		// Dropping forward revisions here is what clears redo after a
		// fresh edit.
		if err := m.store.Truncate(k.Dim, k.X, k.Z, e.index+1); err != nil {
			m.fail(err)
			continue
		}
		if err := m.store.Put(k.Dim, k.X, k.Z, e.index+1, snap); err != nil {
			m.fail(err)
			continue
		}
		e.index++
		e.revs = e.index + 1
		e.dirty = false
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return false
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Dim != b.Dim {
			return a.Dim < b.Dim
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Z < b.Z
	})
	m.undoPts = append(m.undoPts, keys)
	m.redoPts = m.redoPts[:0]
	return true
}

// Undo walks every chunk in the most recent undo point back one revision.
func (m *Cache) Undo() {
	if len(m.undoPts) == 0 {
		return
	}
	keys := m.undoPts[len(m.undoPts)-1]
	m.undoPts = m.undoPts[:len(m.undoPts)-1]
	for _, k := range keys {
		e := m.entries[k]
		if e == nil || e.index == 0 {
			continue
		}
		e.index--
		m.refresh(k, e)
	}
	m.redoPts = append(m.redoPts, keys)
}

// Redo re-applies the most recently undone point.
func (m *Cache) Redo() {
	if len(m.redoPts) == 0 {
		return
	}
	keys := m.redoPts[len(m.redoPts)-1]
	m.redoPts = m.redoPts[:len(m.redoPts)-1]
	for _, k := range keys {
		e := m.entries[k]
		if e == nil || e.index+1 >= e.revs {
			continue
		}
		e.index++
		m.refresh(k, e)
	}
	m.undoPts = append(m.undoPts, keys)
}

// refresh reloads an in-memory entry after its revision index moved.
// Evicted entries stay evicted; they materialize at the new index on next
// access.
func (m *Cache) refresh(k Key, e *entry) {
	if !e.loaded {
		return
	}
	if err := m.materialize(k, e); err != nil {
		m.fail(err)
	}
}

// MarkSaved records that every chunk's current state has been written
// through to storage. Revisions are untouched.
func (m *Cache) MarkSaved() {
	for _, e := range m.entries {
		e.dirty = false
		e.savedIndex = e.index
	}
}

// RestoreLastUndoPoint reverts every dirty chunk to its checkpointed
// revision without consuming undo or redo entries. Rollback path only.
func (m *Cache) RestoreLastUndoPoint() {
	for k, e := range m.entries {
		if !e.dirty {
			continue
		}
		if err := m.materialize(k, e); err != nil {
			m.fail(err)
		}
	}
}

// Unload evicts clean entries whose coordinates fall outside every given
// safe area. Revision chains stay in the store. Dirty chunks are never
// evicted: their current state exists nowhere else.
func (m *Cache) Unload(safe ...SafeArea) {
	for k, e := range m.entries {
		if e.dirty || !e.loaded {
			continue
		}
		kept := false
		for _, a := range safe {
			if a.Contains(k) {
				kept = true
				break
			}
		}
		if kept {
			continue
		}
		e.current = nil
		e.loaded = false
	}
}

// UnloadUnchanged evicts every clean entry regardless of location. The
// low-memory path for long edits over large worlds.
func (m *Cache) UnloadUnchanged() {
	m.Unload()
}
