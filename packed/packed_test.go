package packed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitsFloor(t *testing.T) {
	// 4 bits is the floor even for tiny palettes.
	assert.Equal(t, 4, Bits(1))
	assert.Equal(t, 4, Bits(2))
	assert.Equal(t, 4, Bits(16))

	assert.Equal(t, 5, Bits(17))
	assert.Equal(t, 5, Bits(32))
	assert.Equal(t, 6, Bits(33))
	assert.Equal(t, 9, Bits(257))
	assert.Equal(t, 12, Bits(4096))
}

func TestPackKnownLayout(t *testing.T) {
	// 16 four-bit values fill exactly one word. Values are emitted in
	// reverse order MSB-first, so index 15 owns the top nibble.
	values := make([]uint16, 16)
	values[0] = 0x1
	values[15] = 0xf

	words, err := Pack(values, 16)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, uint64(0xf000_0000_0000_0001), words[0])
}

func TestPackStartPadding(t *testing.T) {
	// One 4-bit value: 60 bits of zero padding precede it in the stream.
	words, err := Pack([]uint16{0x9}, 16)
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, uint64(0x9), words[0])
}

func TestPackWordOrderReversal(t *testing.T) {
	// 32 four-bit values span two words. The stored word order is the
	// reverse of the stream order, so values 0..15 land in words[0].
	values := make([]uint16, 32)
	values[0] = 0xa
	values[31] = 0xb

	words, err := Pack(values, 16)
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, uint64(0x0000_0000_0000_000a), words[0])
	assert.Equal(t, uint64(0xb000_0000_0000_0000), words[1])
}

func TestRoundTripGrid(t *testing.T) {
	lengths := []int{1, 16, 4096}
	palettes := []int{1, 2, 16, 257}

	for _, n := range lengths {
		for _, p := range palettes {
			values := make([]uint16, n)
			for i := range values {
				values[i] = uint16(i*7) % uint16(p)
			}

			words, err := Pack(values, p)
			require.NoError(t, err, "Pack n=%d p=%d", n, p)
			require.Len(t, words, WordsFor(n, p))

			got, err := Unpack(words, n, p)
			require.NoError(t, err, "Unpack n=%d p=%d", n, p)
			assert.Equal(t, values, got, "round trip n=%d p=%d", n, p)
		}
	}
}

func TestUnpackRejectsWrongWordCount(t *testing.T) {
	words, err := Pack(make([]uint16, 16), 16)
	require.NoError(t, err)

	_, err = Unpack(append(words, 0), 16, 16)
	assert.ErrorIs(t, err, ErrBadLength)

	_, err = Unpack(nil, 16, 16)
	assert.ErrorIs(t, err, ErrBadLength)
}

func TestUnpackRejectsBadArgs(t *testing.T) {
	_, err := Unpack([]uint64{0}, 0, 16)
	assert.ErrorIs(t, err, ErrBadCount)

	_, err = Unpack([]uint64{0}, 4, 0)
	assert.ErrorIs(t, err, ErrBadPalette)
}

func TestPackRejectsBadArgs(t *testing.T) {
	_, err := Pack(nil, 16)
	assert.ErrorIs(t, err, ErrBadCount)

	_, err = Pack([]uint16{0}, 0)
	assert.ErrorIs(t, err, ErrBadPalette)

	_, err = Pack([]uint16{3}, 3)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestPackedWidthNotInferable(t *testing.T) {
	// 16 values at palette 257 pack at 9 bits into 3 words. A decoder
	// inferring the width from the word count would get 192/16 = 12 bits
	// and misread every value; the explicit palette size keeps it exact.
	values := make([]uint16, 16)
	for i := range values {
		values[i] = uint16(i * 16)
	}
	words, err := Pack(values, 257)
	require.NoError(t, err)
	require.Len(t, words, 3)

	got, err := Unpack(words, 16, 257)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}
