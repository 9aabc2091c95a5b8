package format

import "errors"

var (
	// ErrTruncated indicates the buffer lacked the bytes required for a structure.
	ErrTruncated = errors.New("format: truncated buffer")
	// ErrBadTag indicates an unknown compression tag in a record header.
	ErrBadTag = errors.New("format: unknown compression tag")
	// ErrRecordTooLarge indicates a payload that cannot fit in 255 sectors.
	ErrRecordTooLarge = errors.New("format: record exceeds 255 sectors")
)
