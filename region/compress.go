package region

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"

	"github.com/voxelkit/regionkit/internal/format"
)

// compress encodes payload under the given record tag.
func compress(tag byte, payload []byte) ([]byte, error) {
	switch tag {
	case format.CompressionGzip:
		var b bytes.Buffer
		w := gzip.NewWriter(&b)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case format.CompressionZlib:
		var b bytes.Buffer
		w := zlib.NewWriter(&b)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return b.Bytes(), nil
	case format.CompressionStored:
		return payload, nil
	default:
		return nil, fmt.Errorf("compress tag %d: %w", tag, format.ErrBadTag)
	}
}

// decompress decodes a record body per its stored tag.
func decompress(tag byte, body []byte) ([]byte, error) {
	switch tag {
	case format.CompressionGzip:
		r, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case format.CompressionZlib:
		r, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case format.CompressionStored:
		out := make([]byte, len(body))
		copy(out, body)
		return out, nil
	default:
		return nil, fmt.Errorf("decompress tag %d: %w", tag, format.ErrBadTag)
	}
}
