package format

import (
	"fmt"

	"github.com/voxelkit/regionkit/internal/buf"
)

// Record is the decoded header of one chunk record plus its (still
// compressed) body bytes.
type Record struct {
	Tag  byte
	Body []byte
}

// ParseRecord decodes a record from the raw sectors of its allocation. The
// caller passes the full sector run; the stored payload length is validated
// against it so a corrupt header can never read past the allocation.
func ParseRecord(sectors []byte) (Record, error) {
	if len(sectors) < RecordHeaderSize {
		return Record{}, fmt.Errorf("record header: %w", ErrTruncated)
	}
	length := int(buf.U32BE(sectors))
	tag := sectors[4]
	switch tag {
	case CompressionGzip, CompressionZlib, CompressionStored:
	default:
		return Record{}, fmt.Errorf("record tag %d: %w", tag, ErrBadTag)
	}
	body, ok := buf.Slice(sectors, RecordHeaderSize, length)
	if !ok {
		return Record{}, fmt.Errorf("record length %d exceeds %d-byte allocation: %w",
			length, len(sectors), ErrTruncated)
	}
	return Record{Tag: tag, Body: body}, nil
}

// EncodeRecord lays out a record body into whole sectors: u32 payload
// length, the compression tag, the payload, then zero padding to the sector
// boundary.
func EncodeRecord(tag byte, body []byte) ([]byte, error) {
	n := len(body)
	if SectorsFor(n) > MaxRecordSectors {
		return nil, fmt.Errorf("%d byte payload: %w", n, ErrRecordTooLarge)
	}
	out := make([]byte, SectorsFor(n)*SectorSize)
	buf.PutU32BE(out, 0, uint32(n))
	out[4] = tag
	copy(out[RecordHeaderSize:], body)
	return out, nil
}
