package chunk

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/voxelkit/regionkit/sparse"
)

// snapshot is the serialized form of one chunk revision. A Deleted
// snapshot records that the chunk did not exist at that revision, which is
// how creating and deleting chunks stays undoable.
type snapshot struct {
	Deleted bool `msgpack:"del,omitempty"`

	SizeX    int    `msgpack:"sx,omitempty"`
	SizeZ    int    `msgpack:"sz,omitempty"`
	SectionY int    `msgpack:"sy,omitempty"`
	Default  uint32 `msgpack:"def,omitempty"`

	Sections map[int][]uint32 `msgpack:"sec,omitempty"`
	Palette  []string         `msgpack:"pal,omitempty"`
	Extra    []byte           `msgpack:"ext,omitempty"`
	Version  string           `msgpack:"ver,omitempty"`
}

func encodeSnapshot(c *Chunk) ([]byte, error) {
	if c == nil {
		return msgpack.Marshal(&snapshot{Deleted: true})
	}
	sx, sz := c.Blocks.Shape()
	snap := snapshot{
		SizeX:    sx,
		SizeZ:    sz,
		SectionY: c.Blocks.SectionHeight(),
		Default:  c.Blocks.Default(),
		Sections: make(map[int][]uint32),
		Palette:  c.Palette,
		Extra:    c.Extra,
		Version:  c.Version,
	}
	for _, sec := range c.Blocks.Sections() {
		snap.Sections[sec] = c.Blocks.SectionData(sec)
	}
	return msgpack.Marshal(&snap)
}

// decodeSnapshot rebuilds the revision at (cx, cz). Returns (nil, nil) for
// a deleted revision.
func decodeSnapshot(cx, cz int, raw []byte) (*Chunk, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("chunk (%d,%d) revision: %w", cx, cz, err)
	}
	if snap.Deleted {
		return nil, nil
	}
	c := &Chunk{
		X:       cx,
		Z:       cz,
		Blocks:  sparse.New(snap.SizeX, snap.SectionY, snap.SizeZ, snap.Default),
		Palette: snap.Palette,
		Extra:   snap.Extra,
		Version: snap.Version,
	}
	for sec, data := range snap.Sections {
		c.Blocks.SetSectionData(sec, data)
	}
	return c, nil
}
