// Package packed encodes and decodes densely bit-packed arrays of palette
// indices.
//
// # Layout
//
// An array of N small integers is packed into big-endian 64-bit words at a
// fixed bit width derived from the palette size:
//
//	bits = max(4, ceil(log2(paletteSize)))
//
// Values are laid out MSB-first in REVERSE order, the bit stream is
// zero-padded at the START to a whole number of words, and the word list is
// then reversed again. This double reversal is a deliberate quirk of the
// source format and is preserved bit-exactly; external readers depend on it.
//
// # The width asymmetry
//
// The bit width is a function of the palette size at encode time, which the
// decoder cannot recover from the words alone: the start padding makes the
// width ambiguous whenever it does not divide 64. The palette therefore
// travels out of band (it is decoded alongside the array) and Unpack takes
// it explicitly. This is a property of the format, not a defect.
package packed
