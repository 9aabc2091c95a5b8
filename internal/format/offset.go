package format

// OffsetWord is one entry of the chunk offset table. The high 24 bits hold
// the starting sector index, the low 8 bits the sector count. The zero value
// means "chunk absent".
type OffsetWord uint32

// PackOffset builds an offset word from a sector index and count.
func PackOffset(sector, count int) OffsetWord {
	return OffsetWord(uint32(sector)<<8 | uint32(count)&0xff)
}

// Present reports whether the word names a stored record.
func (w OffsetWord) Present() bool { return w != 0 }

// Sector returns the starting sector index.
func (w OffsetWord) Sector() int { return int(w >> 8) }

// Count returns the sector count.
func (w OffsetWord) Count() int { return int(w & 0xff) }

// SlotIndex maps chunk coordinates to the record's slot in the offset table.
// Only the low 5 bits of each coordinate matter, so callers may pass either
// world or region-local chunk coordinates.
func SlotIndex(cx, cz int) int {
	return (cx & (RegionEdge - 1)) + (cz&(RegionEdge-1))<<RegionEdgeShift
}

// SectorsFor returns the number of sectors needed for a record body of n
// payload bytes (record header included).
func SectorsFor(n int) int {
	return (n + RecordHeaderSize + SectorSize - 1) / SectorSize
}
