// Package format houses the low-level layout of the region container file.
// The goal is to keep the byte-level encoding focused and independent from
// the public API so higher-level packages can orchestrate the data in a more
// ergonomic form.
//
// A region file holds up to 1024 chunk records for a 32x32 chunk area. All
// multi-byte fields are big-endian.
//
//	Offset  Size  Description
//	------  ----  ----------------------------------------------------------
//	0x0000  4096  1024 x 4-byte offset words (chunk offset table)
//	0x1000  4096  1024 x 4-byte modification-time words
//	sector  ...   chunk records, one per allocated sector run
//
// An offset word packs the record location: bits 8-31 are the starting
// sector index, bits 0-7 the sector count. Zero means the chunk is absent.
package format

const (
	// SectorSize is the allocation granularity of a region file in bytes.
	SectorSize = 4096

	// SectorShift converts between byte offsets and sector indexes.
	SectorShift = 12

	// RegionEdge is the width of a region in chunks.
	RegionEdge = 32

	// RegionEdgeShift converts between chunk and region coordinates.
	RegionEdgeShift = 5

	// SlotCount is the number of chunk slots in a region (32 * 32).
	SlotCount = RegionEdge * RegionEdge

	// HeaderSectors is the number of sectors reserved for the offset and
	// timestamp tables.
	HeaderSectors = 2

	// HeaderSize is the total header size in bytes.
	HeaderSize = HeaderSectors * SectorSize

	// TimestampTableOffset is the file offset of the modification-time table.
	TimestampTableOffset = SectorSize

	// MaxRecordSectors is the largest sector count an offset word can carry.
	MaxRecordSectors = 255

	// MaxRecordSize is the largest record body (header included) that fits
	// in MaxRecordSectors sectors.
	MaxRecordSize = MaxRecordSectors * SectorSize

	// RecordHeaderSize is the per-record header: u32 payload length followed
	// by a one-byte compression tag.
	RecordHeaderSize = 5
)

// Compression tags stored in the record header.
const (
	CompressionGzip   = 1
	CompressionZlib   = 2
	CompressionStored = 3
)
