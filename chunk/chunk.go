// Package chunk implements the in-memory chunk model and the cache manager
// that tracks per-chunk edit history.
//
// # Model
//
// A Chunk holds bit-addressable block data as a sparse array of palette
// indices, the palette itself, and an opaque extra payload (entities, tile
// data) that this engine never interprets. The version key identifies the
// on-disk encoding; it is opaque here and only meaningful to a Codec.
//
// # Cache
//
// Cache keeps the working set of loaded chunks and implements the tracker
// contract in package history. Chunk revisions are spilled to a bbolt
// database so long editing sessions do not hold every undo state in RAM.
package chunk

import (
	"fmt"

	"github.com/voxelkit/regionkit/sparse"
)

// Default chunk geometry. Hosts with different section heights configure
// the cache instead.
const (
	DefaultEdge          = 16
	DefaultSectionHeight = 16
)

// Chunk is one column of the world.
type Chunk struct {
	X, Z int

	// Blocks holds palette indices; index 0 is always the empty block.
	Blocks *sparse.Array

	// Palette maps a block index to its state identifier.
	Palette []string

	// Extra is the undecoded remainder of the chunk record. Preserved and
	// versioned byte-for-byte.
	Extra []byte

	// Version identifies the record's encoding for the Codec.
	Version string
}

// New returns an empty chunk at (cx, cz) with the default geometry and a
// single-entry palette.
func New(cx, cz int) *Chunk {
	return &Chunk{
		X:       cx,
		Z:       cz,
		Blocks:  sparse.New(DefaultEdge, DefaultSectionHeight, DefaultEdge, 0),
		Palette: []string{"air"},
	}
}

// PaletteIndex returns the palette index for state, appending it when not
// yet present.
func (c *Chunk) PaletteIndex(state string) uint32 {
	for i, s := range c.Palette {
		if s == state {
			return uint32(i)
		}
	}
	c.Palette = append(c.Palette, state)
	return uint32(len(c.Palette) - 1)
}

// Block returns the state identifier at chunk-local (x, y, z).
func (c *Chunk) Block(x, y, z int) (string, error) {
	idx := c.Blocks.Get(x, y, z)
	if int(idx) >= len(c.Palette) {
		return "", fmt.Errorf("chunk (%d,%d): palette index %d out of range", c.X, c.Z, idx)
	}
	return c.Palette[idx], nil
}

// SetBlock writes the state identifier at chunk-local (x, y, z).
func (c *Chunk) SetBlock(x, y, z int, state string) {
	c.Blocks.Set(x, y, z, c.PaletteIndex(state))
}

// Codec translates between a chunk and its serialized record payload. The
// record format is version-specific and lives outside this engine.
type Codec interface {
	Decode(cx, cz int, raw []byte) (*Chunk, error)
	Encode(c *Chunk) ([]byte, error)
}

// Loader produces chunks the cache does not hold yet, typically by reading
// a region record and running it through a Codec. A chunk with no stored
// record is reported as ErrNotPresent (possibly wrapped); other errors
// pass through to the caller.
type Loader interface {
	LoadChunk(dim string, cx, cz int) (*Chunk, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(dim string, cx, cz int) (*Chunk, error)

func (f LoaderFunc) LoadChunk(dim string, cx, cz int) (*Chunk, error) {
	return f(dim, cx, cz)
}
