package world

import (
	"errors"
	"fmt"

	"github.com/voxelkit/regionkit/chunk"
	"github.com/voxelkit/regionkit/region"
	"github.com/voxelkit/regionkit/steps"
)

// Save returns a stepper that writes every changed chunk through to
// region storage, one chunk per step. Chunks deleted in the current state
// have their records removed. When the final step completes, the level is
// marked saved.
//
// The caller drives the stepper; abandoning it mid-way leaves the
// already-written chunks on disk and the level still marked unsaved.
func (l *Level) Save() *steps.Stepper {
	if l.closed {
		return steps.Done(fmt.Errorf("world: save: %w", region.ErrClosed))
	}
	keys := l.cache.ChangedChunks()
	if len(keys) == 0 {
		l.meta.MarkSaved()
		return steps.Done(nil)
	}

	i := 0
	return steps.New(func() (float64, bool, error) {
		k := keys[i]
		if err := l.saveChunk(k); err != nil {
			return float64(i) / float64(len(keys)), true, err
		}
		i++
		if i == len(keys) {
			l.meta.MarkSaved()
			l.logf("world: saved %d chunks", len(keys))
			return 1, true, nil
		}
		return float64(i) / float64(len(keys)), false, nil
	})
}

func (l *Level) saveChunk(k chunk.Key) error {
	c, err := l.cache.GetChunk(k.Dim, k.X, k.Z)
	switch {
	case errors.Is(err, chunk.ErrNotPresent):
		if derr := l.manager(k.Dim).DeleteChunk(k.X, k.Z); derr != nil {
			return fmt.Errorf("world: delete chunk %s (%d,%d): %w", k.Dim, k.X, k.Z, derr)
		}
		return nil
	case err != nil:
		return fmt.Errorf("world: save chunk %s (%d,%d): %w", k.Dim, k.X, k.Z, err)
	}
	raw, err := l.codec.Encode(c)
	if err != nil {
		return fmt.Errorf("world: encode chunk %s (%d,%d): %w", k.Dim, k.X, k.Z, err)
	}
	if err := l.manager(k.Dim).PutChunk(k.X, k.Z, raw); err != nil {
		return fmt.Errorf("world: write chunk %s (%d,%d): %w", k.Dim, k.X, k.Z, err)
	}
	return nil
}
