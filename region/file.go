package region

import (
	"fmt"
	"os"
	"time"

	"github.com/voxelkit/regionkit/internal/buf"
	"github.com/voxelkit/regionkit/internal/format"
)

// File is one open region container.
//
// The zero value is not usable; call Open. File performs no internal
// locking: callers serialize access per file.
type File struct {
	f    *os.File
	path string

	offsets    [format.SlotCount]format.OffsetWord
	timestamps [format.SlotCount]uint32

	// free marks each sector of the file as free or occupied. Derived from
	// the offset table at open time, never stored on disk.
	free []bool

	tag    byte
	closed bool
}

// Open opens the region file at path, creating it with an empty header when
// absent. The file is padded to a sector boundary if a previous writer left
// it ragged, the free-sector bitmap is rebuilt from the offset table, and
// any offset word referencing sectors past the end of file fails the open
// with ErrCorrupt.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("region %s: %w", path, err)
	}

	rf := &File{f: f, path: path, tag: format.CompressionZlib}
	if err := rf.load(); err != nil {
		f.Close()
		return nil, err
	}
	return rf, nil
}

func (rf *File) load() error {
	st, err := rf.f.Stat()
	if err != nil {
		return fmt.Errorf("region %s: %w", rf.path, err)
	}
	size := st.Size()

	// A fresh or ragged file is extended: headers always occupy two whole
	// sectors and the body area is sector-aligned.
	if size < format.HeaderSize {
		size = format.HeaderSize
	} else if size%format.SectorSize != 0 {
		size = (size/format.SectorSize + 1) * format.SectorSize
	}
	if size != st.Size() {
		if err := rf.f.Truncate(size); err != nil {
			return fmt.Errorf("region %s: pad to sector boundary: %w", rf.path, err)
		}
	}

	header := make([]byte, format.HeaderSize)
	if _, err := rf.f.ReadAt(header, 0); err != nil {
		return fmt.Errorf("region %s: read header: %w", rf.path, err)
	}

	sectors := int(size / format.SectorSize)
	rf.free = make([]bool, sectors)
	for i := range rf.free {
		rf.free[i] = i >= format.HeaderSectors
	}

	for slot := 0; slot < format.SlotCount; slot++ {
		w := format.OffsetWord(buf.ReadU32(header, slot*4))
		rf.offsets[slot] = w
		rf.timestamps[slot] = buf.ReadU32(header, format.TimestampTableOffset+slot*4)
		if !w.Present() {
			continue
		}
		if w.Count() == 0 || w.Sector() < format.HeaderSectors ||
			w.Sector()+w.Count() > sectors {
			return fmt.Errorf("region %s: slot %d references sectors %d..%d of %d: %w",
				rf.path, slot, w.Sector(), w.Sector()+w.Count(), sectors, ErrCorrupt)
		}
		for s := w.Sector(); s < w.Sector()+w.Count(); s++ {
			rf.free[s] = false
		}
	}
	return nil
}

// Path returns the file path this region was opened from.
func (rf *File) Path() string { return rf.path }

// SetCompression selects the record tag used for subsequent writes.
func (rf *File) SetCompression(tag byte) { rf.tag = tag }

// Has reports whether a record is stored for the chunk.
func (rf *File) Has(cx, cz int) bool {
	return !rf.closed && rf.offsets[format.SlotIndex(cx, cz)].Present()
}

// Read returns the decompressed payload of one chunk record. ErrChunkAbsent
// when the offset word is zero; ErrCorrupt when the declared sector range is
// inconsistent or the stored length exceeds it.
func (rf *File) Read(cx, cz int) ([]byte, error) {
	if rf.closed {
		return nil, ErrClosed
	}
	slot := format.SlotIndex(cx, cz)
	w := rf.offsets[slot]
	if !w.Present() {
		return nil, fmt.Errorf("region %s chunk (%d,%d): %w",
			rf.path, cx, cz, ErrChunkAbsent)
	}
	if w.Count() == 0 || w.Sector() < format.HeaderSectors ||
		w.Sector()+w.Count() > len(rf.free) {
		return nil, fmt.Errorf("region %s chunk (%d,%d): sectors %d+%d: %w",
			rf.path, cx, cz, w.Sector(), w.Count(), ErrCorrupt)
	}

	raw := make([]byte, w.Count()*format.SectorSize)
	if _, err := rf.f.ReadAt(raw, int64(w.Sector())*format.SectorSize); err != nil {
		return nil, fmt.Errorf("region %s chunk (%d,%d): read body: %w",
			rf.path, cx, cz, err)
	}
	rec, err := format.ParseRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("region %s chunk (%d,%d): %v: %w",
			rf.path, cx, cz, err, ErrCorrupt)
	}
	payload, err := decompress(rec.Tag, rec.Body)
	if err != nil {
		return nil, fmt.Errorf("region %s chunk (%d,%d): decompress: %v: %w",
			rf.path, cx, cz, err, ErrCorrupt)
	}
	return payload, nil
}

// Write compresses payload and stores it as the chunk's record.
//
// When the existing allocation is large enough the record is rewritten in
// place at the same start sector; otherwise the old sectors are freed and
// the lowest contiguous free run is claimed, extending the file when no run
// exists. The body is flushed before the offset word that names it, so a
// crash mid-write never publishes a half-written record.
func (rf *File) Write(cx, cz int, payload []byte) error {
	if rf.closed {
		return ErrClosed
	}
	body, err := compress(rf.tag, payload)
	if err != nil {
		return fmt.Errorf("region %s: compress: %w", rf.path, err)
	}
	encoded, err := format.EncodeRecord(rf.tag, body)
	if err != nil {
		return fmt.Errorf("region %s: %w", rf.path, err)
	}
	need := len(encoded) / format.SectorSize

	slot := format.SlotIndex(cx, cz)
	old := rf.offsets[slot]

	var start, count int
	switch {
	case old.Present() && old.Count() >= need:
		// In-place rewrite: same start sector, same allocation; only the
		// record's own length field changes.
		start, count = old.Sector(), old.Count()
	default:
		if old.Present() {
			rf.setRun(old.Sector(), old.Count(), true)
		}
		start = rf.findRun(need)
		if start < 0 {
			// No interior run fits. A free run touching EOF still
			// counts: extend it instead of stranding those sectors.
			start = len(rf.free)
			for start > format.HeaderSectors && rf.free[start-1] {
				start--
			}
			if err := rf.grow(start + need); err != nil {
				// Restore the old allocation; nothing was overwritten.
				if old.Present() {
					rf.setRun(old.Sector(), old.Count(), false)
				}
				return err
			}
		}
		count = need
	}

	if _, err := rf.f.WriteAt(encoded, int64(start)*format.SectorSize); err != nil {
		if old.Present() && start != old.Sector() {
			// Old allocation wins where the runs overlap.
			rf.setRun(start, need, true)
			rf.setRun(old.Sector(), old.Count(), false)
		}
		return fmt.Errorf("region %s chunk (%d,%d): body write: %w",
			rf.path, cx, cz, err)
	}
	if err := fdatasync(rf.f); err != nil {
		return fmt.Errorf("region %s chunk (%d,%d): body sync: %w",
			rf.path, cx, cz, err)
	}

	rf.setRun(start, count, false)
	rf.offsets[slot] = format.PackOffset(start, count)
	rf.timestamps[slot] = uint32(time.Now().Unix())
	if err := rf.writeHeaderSlot(slot); err != nil {
		return fmt.Errorf("region %s chunk (%d,%d): header write: %w",
			rf.path, cx, cz, err)
	}
	return nil
}

// Delete removes the chunk's record: the offset word is zeroed and its
// sectors return to the free bitmap. The file is never truncated or
// defragmented here.
func (rf *File) Delete(cx, cz int) error {
	if rf.closed {
		return ErrClosed
	}
	slot := format.SlotIndex(cx, cz)
	w := rf.offsets[slot]
	if !w.Present() {
		return nil
	}
	rf.setRun(w.Sector(), w.Count(), true)
	rf.offsets[slot] = 0
	rf.timestamps[slot] = 0
	if err := rf.writeHeaderSlot(slot); err != nil {
		return fmt.Errorf("region %s chunk (%d,%d): header write: %w",
			rf.path, cx, cz, err)
	}
	return nil
}

// Coords returns the region-local coordinates of every stored chunk.
func (rf *File) Coords() [][2]int {
	var out [][2]int
	for slot, w := range rf.offsets {
		if w.Present() {
			out = append(out, [2]int{slot % format.RegionEdge, slot / format.RegionEdge})
		}
	}
	return out
}

// Check sweeps the offset table and verifies that no two live slots claim
// overlapping sector ranges, none touch the header sectors, and all ranges
// are in bounds. Returns ErrCorrupt naming the first offending slot.
func (rf *File) Check() error {
	if rf.closed {
		return ErrClosed
	}
	owner := make([]int, len(rf.free))
	for i := range owner {
		owner[i] = -1
	}
	for slot, w := range rf.offsets {
		if !w.Present() {
			continue
		}
		if w.Count() == 0 || w.Sector() < format.HeaderSectors ||
			w.Sector()+w.Count() > len(rf.free) {
			return fmt.Errorf("region %s: slot %d claims sectors %d+%d: %w",
				rf.path, slot, w.Sector(), w.Count(), ErrCorrupt)
		}
		for s := w.Sector(); s < w.Sector()+w.Count(); s++ {
			if owner[s] >= 0 {
				return fmt.Errorf("region %s: slots %d and %d both claim sector %d: %w",
					rf.path, owner[s], slot, s, ErrCorrupt)
			}
			owner[s] = slot
		}
	}
	return nil
}

// Size returns the file length in bytes. Always a whole number of sectors.
func (rf *File) Size() int64 {
	return int64(len(rf.free)) * format.SectorSize
}

// Close releases the file handle. Header words are written eagerly on every
// mutation, so Close has nothing left to flush beyond the OS handle.
func (rf *File) Close() error {
	if rf.closed {
		return nil
	}
	rf.closed = true
	return rf.f.Close()
}

// findRun returns the lowest start of a contiguous run of n free sectors,
// or -1 when none exists. First-fit by sector index keeps region files
// compact and bounds fragmentation growth.
func (rf *File) findRun(n int) int {
	run := 0
	for s := format.HeaderSectors; s < len(rf.free); s++ {
		if !rf.free[s] {
			run = 0
			continue
		}
		run++
		if run == n {
			return s - n + 1
		}
	}
	return -1
}

// setRun marks n sectors from start as free or occupied.
func (rf *File) setRun(start, n int, free bool) {
	for s := start; s < start+n && s < len(rf.free); s++ {
		rf.free[s] = free
	}
}

// grow extends the file to hold `sectors` sectors, all initially free.
func (rf *File) grow(sectors int) error {
	if sectors <= len(rf.free) {
		return nil
	}
	if err := rf.f.Truncate(int64(sectors) * format.SectorSize); err != nil {
		return fmt.Errorf("region %s: grow to %d sectors: %w", rf.path, sectors, err)
	}
	for len(rf.free) < sectors {
		rf.free = append(rf.free, true)
	}
	return nil
}

// writeHeaderSlot persists one slot's offset and timestamp words.
func (rf *File) writeHeaderSlot(slot int) error {
	var w [4]byte
	buf.PutU32BE(w[:], 0, uint32(rf.offsets[slot]))
	if _, err := rf.f.WriteAt(w[:], int64(slot)*4); err != nil {
		return err
	}
	buf.PutU32BE(w[:], 0, rf.timestamps[slot])
	if _, err := rf.f.WriteAt(w[:], int64(format.TimestampTableOffset+slot*4)); err != nil {
		return err
	}
	return fdatasync(rf.f)
}
