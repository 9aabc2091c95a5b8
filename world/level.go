// Package world exposes the top-level editing facade: an open Level owns
// the region storage per dimension, the chunk cache, and the undo/redo
// coordination across both.
package world

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/voxelkit/regionkit/chunk"
	"github.com/voxelkit/regionkit/history"
	"github.com/voxelkit/regionkit/region"
)

// Options configures an opened level.
type Options struct {
	// Codec translates chunks to and from their record payloads.
	// Required.
	Codec chunk.Codec

	// Config holds tuning limits; the zero value means DefaultConfig.
	Config Config

	// Logf receives diagnostic output from loads, saves and evictions.
	// Nil disables logging.
	Logf func(format string, args ...any)
}

// Level is one open world.
//
// Level performs no internal locking: embedding applications serialize
// all access to a level, one owning goroutine per open world.
type Level struct {
	dir   string
	cfg   Config
	codec chunk.Codec
	logf  func(string, ...any)

	dims  map[string]*region.Manager
	cache *chunk.Cache
	store *chunk.Store
	meta  *history.Meta

	closed bool
}

// Open opens the level rooted at dir, creating the revision database
// inside it.
func Open(dir string, opts Options) (*Level, error) {
	if opts.Codec == nil {
		return nil, errors.New("world: Options.Codec is required")
	}
	cfg := opts.Config
	if cfg.CacheDB == "" {
		cfg.CacheDB = "revisions.db"
	}
	if _, err := cfg.compressionTag(); err != nil {
		return nil, err
	}

	store, err := chunk.OpenStore(filepath.Join(dir, cfg.CacheDB))
	if err != nil {
		return nil, err
	}

	l := &Level{
		dir:   dir,
		cfg:   cfg,
		codec: opts.Codec,
		logf:  opts.Logf,
		dims:  make(map[string]*region.Manager),
		store: store,
		meta:  history.NewMeta(),
	}
	if l.logf == nil {
		l.logf = func(string, ...any) {}
	}
	l.cache = chunk.NewCache(chunk.LoaderFunc(l.loadChunk), store)
	l.meta.Register(l.cache, true)
	return l, nil
}

// manager returns the region manager for dim, creating it on first use.
func (l *Level) manager(dim string) *region.Manager {
	if m, ok := l.dims[dim]; ok {
		return m
	}
	m := region.NewManager(filepath.Join(l.dir, dim, "region"))
	if tag, err := l.cfg.compressionTag(); err == nil {
		m.SetCompression(tag)
	}
	l.dims[dim] = m
	return m
}

// loadChunk is the cache's loader: region record in, decoded chunk out.
func (l *Level) loadChunk(dim string, cx, cz int) (*chunk.Chunk, error) {
	raw, err := l.manager(dim).LoadChunk(cx, cz)
	if errors.Is(err, region.ErrChunkAbsent) || errors.Is(err, region.ErrRegionMissing) {
		return nil, fmt.Errorf("%s (%d,%d): %w", dim, cx, cz, chunk.ErrNotPresent)
	}
	if err != nil {
		return nil, err
	}
	c, err := l.codec.Decode(cx, cz, raw)
	if err != nil {
		return nil, err
	}
	l.logf("world: loaded chunk %s (%d,%d)", dim, cx, cz)
	return c, nil
}

// GetChunk returns the current state of a chunk, loading it on first
// access.
func (l *Level) GetChunk(dim string, cx, cz int) (*chunk.Chunk, error) {
	if l.closed {
		return nil, region.ErrClosed
	}
	c, err := l.cache.GetChunk(dim, cx, cz)
	if err != nil {
		return nil, err
	}
	l.evictIfOver()
	return c, nil
}

func (l *Level) evictIfOver() {
	if limit := l.cfg.MaxCachedChunks; limit > 0 && l.cache.CachedCount() > limit {
		before := l.cache.CachedCount()
		l.cache.UnloadUnchanged()
		l.logf("world: evicted %d clean chunks", before-l.cache.CachedCount())
	}
}

// CreateChunk installs a fresh empty chunk at (cx, cz). Undoing past this
// point removes the chunk again.
func (l *Level) CreateChunk(dim string, cx, cz int) (*chunk.Chunk, error) {
	c := chunk.New(cx, cz)
	if err := l.cache.PutChunk(dim, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteChunk marks the chunk deleted; the record is removed from region
// storage at the next save.
func (l *Level) DeleteChunk(dim string, cx, cz int) error {
	return l.cache.DeleteChunk(dim, cx, cz)
}

// GetBlock reads the block state at world coordinates (x, y, z).
func (l *Level) GetBlock(dim string, x, y, z int) (string, error) {
	c, err := l.GetChunk(dim, x>>4, z>>4)
	if err != nil {
		return "", err
	}
	return c.Block(x&15, y, z&15)
}

// SetBlock writes the block state at world coordinates (x, y, z) and
// marks the chunk dirty.
func (l *Level) SetBlock(dim string, x, y, z int, state string) error {
	cx, cz := x>>4, z>>4
	c, err := l.GetChunk(dim, cx, cz)
	if err != nil {
		return err
	}
	c.SetBlock(x&15, y, z&15, state)
	l.cache.MarkChanged(dim, cx, cz)
	return nil
}

// AllChunkCoords enumerates every chunk in dim. In-memory state shadows
// region storage: chunks created but not yet saved are included, chunks
// deleted but not yet saved are excluded.
func (l *Level) AllChunkCoords(dim string) ([][2]int, error) {
	stored, err := l.manager(dim).AllChunkCoords()
	if err != nil {
		return nil, err
	}
	states := l.cache.ChunkStates(dim)
	if err := l.cache.Err(); err != nil {
		return nil, err
	}

	var out [][2]int
	seen := make(map[[2]int]bool, len(stored))
	for _, c := range stored {
		seen[c] = true
		if present, ok := states[c]; ok && !present {
			continue
		}
		out = append(out, c)
	}
	for c, present := range states {
		if present && !seen[c] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out, nil
}

// RegisterTracker adds an undoable subsystem to the level's history.
// World trackers contribute to the unsaved-changes signal; non-world
// trackers (selections, tool state) do not.
func (l *Level) RegisterTracker(t history.Tracker, world bool) {
	l.meta.Register(t, world)
}

// CreateUndoPoint checkpoints all pending edits. Returns whether anything
// had changed.
func (l *Level) CreateUndoPoint() bool {
	return l.meta.CreateUndoPoint(false)
}

// Undo reverts the most recent undo point.
func (l *Level) Undo() { l.meta.Undo() }

// Redo re-applies the most recently undone point.
func (l *Level) Redo() { l.meta.Redo() }

// UndoCount returns the number of undoable points.
func (l *Level) UndoCount() int { return l.meta.UndoCount() }

// RedoCount returns the number of redoable points.
func (l *Level) RedoCount() int { return l.meta.RedoCount() }

// Changed reports whether the level has unsaved changes.
func (l *Level) Changed() bool { return l.meta.Changed() }

// Unload evicts clean chunks outside the given safe areas and drops all
// open region file handles.
func (l *Level) Unload(safe ...chunk.SafeArea) error {
	l.cache.Unload(safe...)
	var firstErr error
	for _, m := range l.dims {
		if err := m.Unload(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Apply runs op as a batch edit. When op fails, every tracker is rolled
// back to its last checkpoint, so the in-memory world never keeps a
// half-applied batch. On success a new undo point is created.
func (l *Level) Apply(op func(*Level) error) error {
	if err := op(l); err != nil {
		l.meta.RestoreLastUndoPoint()
		if cerr := l.cache.Err(); cerr != nil {
			return fmt.Errorf("world: batch rollback: %w", cerr)
		}
		return fmt.Errorf("world: batch failed: %w", err)
	}
	l.meta.CreateUndoPoint(false)
	return nil
}

// Close flushes nothing: unsaved edits are discarded. Call Save first to
// persist.
func (l *Level) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true
	var firstErr error
	for _, m := range l.dims {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := l.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
