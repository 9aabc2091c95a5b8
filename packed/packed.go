package packed

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	// ErrBadCount indicates a non-positive element count.
	ErrBadCount = errors.New("packed: element count must be positive")
	// ErrBadPalette indicates a palette size below one.
	ErrBadPalette = errors.New("packed: palette size must be at least 1")
	// ErrBadLength indicates a word slice whose length does not match the
	// element count at the implied bit width.
	ErrBadLength = errors.New("packed: word count does not match element count")
	// ErrValueRange indicates a value outside the palette during encode.
	ErrValueRange = errors.New("packed: value exceeds palette size")
)

// minBits is the floor on the packed bit width. Palettes of 16 or fewer
// entries still pack at 4 bits per value.
const minBits = 4

// Bits returns the packed width in bits for a palette of the given size.
func Bits(paletteSize int) int {
	if paletteSize < 2 {
		return minBits
	}
	n := bits.Len(uint(paletteSize - 1))
	if n < minBits {
		return minBits
	}
	return n
}

// WordsFor returns the number of 64-bit words needed to pack count values
// for a palette of the given size.
func WordsFor(count, paletteSize int) int {
	return (count*Bits(paletteSize) + 63) / 64
}

// Pack encodes values into big-endian 64-bit words at the width implied by
// paletteSize. Every value must be a valid palette index.
func Pack(values []uint16, paletteSize int) ([]uint64, error) {
	if len(values) == 0 {
		return nil, ErrBadCount
	}
	if paletteSize < 1 {
		return nil, ErrBadPalette
	}
	for i, v := range values {
		if int(v) >= paletteSize {
			return nil, fmt.Errorf("index %d holds %d: %w", i, v, ErrValueRange)
		}
	}

	width := Bits(paletteSize)
	total := len(values) * width
	nWords := (total + 63) / 64
	pad := nWords*64 - total

	// The logical stream starts with the zero padding, then the values in
	// reverse order, each MSB-first at the packed width.
	words := make([]uint64, nWords)
	pos := pad
	for i := len(values) - 1; i >= 0; i-- {
		setBits(words, pos, width, uint64(values[i]))
		pos += width
	}

	// The stored word order is the reverse of the stream order.
	for i, j := 0, nWords-1; i < j; i, j = i+1, j-1 {
		words[i], words[j] = words[j], words[i]
	}
	return words, nil
}

// Unpack decodes count values from words. The palette size must match the
// one supplied at encode time; see the package comment for why it cannot be
// inferred. A words slice of any other length than WordsFor(count,
// paletteSize) is rejected rather than truncated or zero-extended.
func Unpack(words []uint64, count, paletteSize int) ([]uint16, error) {
	if count < 1 {
		return nil, ErrBadCount
	}
	if paletteSize < 1 {
		return nil, ErrBadPalette
	}
	width := Bits(paletteSize)
	if len(words) != WordsFor(count, paletteSize) {
		return nil, fmt.Errorf("%d words for %d values at %d bits: %w",
			len(words), count, width, ErrBadLength)
	}

	pad := len(words)*64 - count*width
	values := make([]uint16, count)
	pos := pad
	for i := count - 1; i >= 0; i-- {
		values[i] = uint16(getBits(words, pos, width))
		pos += width
	}
	return values, nil
}

// setBits writes the low `width` bits of v into a stream-ordered word list
// at bit position pos. Stream bit k lives in word k/64 at bit 63-k%64.
// Pack reverses the word list afterwards to produce the stored order.
func setBits(words []uint64, pos, width int, v uint64) {
	for b := 0; b < width; b++ {
		if v&(1<<uint(width-1-b)) == 0 {
			continue
		}
		k := pos + b
		words[k/64] |= 1 << uint(63-k%64)
	}
}

// getBits reads `width` bits at stream position pos from a STORED word
// list. The stored order is the reverse of the stream order, so stream bit
// k lives in stored word len-1-k/64 at bit 63-k%64.
func getBits(words []uint64, pos, width int) uint64 {
	var v uint64
	for b := 0; b < width; b++ {
		k := pos + b
		v <<= 1
		v |= words[len(words)-1-k/64] >> uint(63-k%64) & 1
	}
	return v
}
