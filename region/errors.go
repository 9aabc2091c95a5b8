package region

import "errors"

var (
	// ErrChunkAbsent indicates the requested chunk has no stored record.
	// Recoverable: callers typically create an empty chunk or skip.
	ErrChunkAbsent = errors.New("region: chunk absent")

	// ErrCorrupt indicates the offset table is inconsistent with the file
	// size or sector occupancy, or a record's stored length exceeds its
	// sector allocation. The affected chunk is unusable until the file is
	// repaired externally.
	ErrCorrupt = errors.New("region: corrupt region file")

	// ErrRegionMissing indicates a read-only operation referenced a region
	// file that does not exist on disk. Callers treat it as "no chunks in
	// this region".
	ErrRegionMissing = errors.New("region: region file missing")

	// ErrClosed indicates an operation on a closed File or Manager.
	ErrClosed = errors.New("region: closed")
)
