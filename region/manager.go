package region

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/voxelkit/regionkit/internal/format"
)

// Coord is a region coordinate pair.
type Coord struct {
	X, Z int
}

// RegionCoords returns the coordinates of the region holding chunk (cx, cz).
func RegionCoords(cx, cz int) Coord {
	return Coord{cx >> format.RegionEdgeShift, cz >> format.RegionEdgeShift}
}

// Manager owns the open File handles for one directory of region files.
//
// Files open lazily on first access and stay open for the life of the
// manager (or until Unload). Like File, Manager does not lock internally.
type Manager struct {
	dir    string
	files  map[Coord]*File
	tag    byte
	closed bool
}

// NewManager creates a manager over the given region directory. The
// directory is created on the first write, not here.
func NewManager(dir string) *Manager {
	return &Manager{
		dir:   dir,
		files: make(map[Coord]*File),
		tag:   format.CompressionZlib,
	}
}

// SetCompression selects the record tag for subsequent writes across all
// region files.
func (m *Manager) SetCompression(tag byte) {
	m.tag = tag
	for _, rf := range m.files {
		rf.SetCompression(tag)
	}
}

func (m *Manager) filePath(rc Coord) string {
	return filepath.Join(m.dir, fmt.Sprintf("r.%d.%d.mca", rc.X, rc.Z))
}

// region returns the open File for the region holding (cx, cz). When create
// is false and the file does not exist on disk, ErrRegionMissing is
// returned without creating anything.
func (m *Manager) region(cx, cz int, create bool) (*File, error) {
	if m.closed {
		return nil, ErrClosed
	}
	rc := RegionCoords(cx, cz)
	if rf, ok := m.files[rc]; ok {
		return rf, nil
	}
	path := m.filePath(rc)
	if !create {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("region (%d,%d) at %s: %w", rc.X, rc.Z, path, ErrRegionMissing)
		}
	} else if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, fmt.Errorf("region dir %s: %w", m.dir, err)
	}
	rf, err := Open(path)
	if err != nil {
		return nil, err
	}
	rf.SetCompression(m.tag)
	m.files[rc] = rf
	return rf, nil
}

// LoadChunk reads and decompresses the record for chunk (cx, cz).
func (m *Manager) LoadChunk(cx, cz int) ([]byte, error) {
	rf, err := m.region(cx, cz, false)
	if err != nil {
		return nil, err
	}
	return rf.Read(cx, cz)
}

// PutChunk writes the chunk's payload, creating the region file on demand.
func (m *Manager) PutChunk(cx, cz int, payload []byte) error {
	rf, err := m.region(cx, cz, true)
	if err != nil {
		return err
	}
	return rf.Write(cx, cz, payload)
}

// DeleteChunk removes the chunk's record. Deleting from a region that does
// not exist is a no-op.
func (m *Manager) DeleteChunk(cx, cz int) error {
	rf, err := m.region(cx, cz, false)
	if errors.Is(err, ErrRegionMissing) {
		return nil
	}
	if err != nil {
		return err
	}
	return rf.Delete(cx, cz)
}

// HasChunk reports whether a record is stored for chunk (cx, cz). A missing
// region file means no chunk, not an error.
func (m *Manager) HasChunk(cx, cz int) bool {
	rf, err := m.region(cx, cz, false)
	if err != nil {
		return false
	}
	return rf.Has(cx, cz)
}

// AllChunkCoords returns the world chunk coordinates of every stored chunk,
// merging region files discovered on disk with the currently open handles.
func (m *Manager) AllChunkCoords() ([][2]int, error) {
	if m.closed {
		return nil, ErrClosed
	}
	seen := make(map[Coord]bool, len(m.files))
	var out [][2]int

	collect := func(rc Coord, rf *File) {
		for _, lc := range rf.Coords() {
			out = append(out, [2]int{
				rc.X*format.RegionEdge + lc[0],
				rc.Z*format.RegionEdge + lc[1],
			})
		}
	}

	for rc, rf := range m.files {
		seen[rc] = true
		collect(rc, rf)
	}

	entries, err := os.ReadDir(m.dir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("region dir %s: %w", m.dir, err)
	}
	for _, e := range entries {
		var rc Coord
		// Sscanf alone accepts trailing junk ("r.1.2.mca.bak"); only the
		// exact round-tripped name is a region file.
		if n, _ := fmt.Sscanf(e.Name(), "r.%d.%d.mca", &rc.X, &rc.Z); n != 2 ||
			e.Name() != fmt.Sprintf("r.%d.%d.mca", rc.X, rc.Z) {
			continue
		}
		if seen[rc] {
			continue
		}
		rf, err := m.region(rc.X*format.RegionEdge, rc.Z*format.RegionEdge, false)
		if err != nil {
			return nil, err
		}
		collect(rc, rf)
	}
	return out, nil
}

// Unload closes and drops every open handle. Region files reopen lazily on
// the next access.
func (m *Manager) Unload() error {
	var firstErr error
	for rc, rf := range m.files {
		if err := rf.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.files, rc)
	}
	return firstErr
}

// Close unloads all handles and marks the manager unusable.
func (m *Manager) Close() error {
	if m.closed {
		return nil
	}
	err := m.Unload()
	m.closed = true
	return err
}
