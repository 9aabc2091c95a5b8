package sparse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultReadAllocatesNothing(t *testing.T) {
	a := New(16, 16, 16, 7)

	assert.Equal(t, uint32(7), a.Get(0, 0, 0))
	assert.Equal(t, uint32(7), a.Get(15, -1000, 15))
	assert.Equal(t, uint32(7), a.Get(3, 1<<20, 9))
	assert.Equal(t, 0, a.SectionCount())
}

func TestWriteMaterializesWholeSection(t *testing.T) {
	a := New(16, 16, 16, 7)
	a.Set(5, 20, 5, 42)

	require.Equal(t, 1, a.SectionCount())
	assert.Equal(t, uint32(42), a.Get(5, 20, 5))

	// The rest of section 1 (y 16..31) reads the default from real storage.
	assert.Equal(t, uint32(7), a.Get(0, 16, 0))
	assert.Equal(t, uint32(7), a.Get(15, 31, 15))

	data := a.SectionData(1)
	require.Len(t, data, 16*16*16)
	assert.Equal(t, uint32(7), data[0])
}

func TestNegativeYSections(t *testing.T) {
	a := New(16, 16, 16, 0)

	a.Set(0, -1, 0, 9)
	a.Set(0, -16, 0, 8)
	a.Set(0, -17, 0, 3)

	assert.Equal(t, uint32(9), a.Get(0, -1, 0))
	assert.Equal(t, uint32(8), a.Get(0, -16, 0))
	assert.Equal(t, uint32(3), a.Get(0, -17, 0))

	// y -1..-16 is section -1, y -17 is section -2.
	assert.NotNil(t, a.SectionData(-1))
	assert.NotNil(t, a.SectionData(-2))
	assert.Equal(t, 2, a.SectionCount())
}

func TestOutOfRangeXZPanics(t *testing.T) {
	a := New(16, 16, 16, 0)
	assert.Panics(t, func() { a.Get(16, 0, 0) })
	assert.Panics(t, func() { a.Set(0, 0, -1, 1) })
}

func TestSliceValidation(t *testing.T) {
	a := New(16, 16, 16, 0)

	_, err := a.Slice([3]int{0, 0, 0}, [3]int{16, 0, 16})
	assert.ErrorIs(t, err, ErrBounds)

	_, err = a.Slice([3]int{0, 0, 0}, [3]int{17, 16, 16})
	assert.ErrorIs(t, err, ErrBounds)

	v, err := a.Slice([3]int{0, -64, 0}, [3]int{16, 320, 16})
	require.NoError(t, err)
	assert.Equal(t, [3]int{16, 384, 16}, v.Shape())
}

func TestViewSharesParentStorage(t *testing.T) {
	a := New(16, 16, 16, 0)
	v, err := a.Slice([3]int{4, 0, 4}, [3]int{12, 32, 12})
	require.NoError(t, err)

	// Writes through the view land in the parent.
	v.Set(0, 0, 0, 11)
	assert.Equal(t, uint32(11), a.Get(4, 0, 4))

	// Writes to the parent are visible through the view.
	a.Set(5, 1, 5, 22)
	assert.Equal(t, uint32(22), v.Get(1, 1, 1))
}

func TestNestedSlice(t *testing.T) {
	a := New(16, 16, 16, 0)
	v, err := a.Slice([3]int{4, 0, 4}, [3]int{12, 32, 12})
	require.NoError(t, err)

	inner, err := v.Slice([3]int{2, 16, 2}, [3]int{4, 20, 4})
	require.NoError(t, err)
	assert.Equal(t, [3]int{2, 4, 2}, inner.Shape())

	inner.Set(0, 0, 0, 33)
	assert.Equal(t, uint32(33), a.Get(6, 16, 6))

	_, err = v.Slice([3]int{0, 0, 0}, [3]int{9, 1, 1})
	assert.ErrorIs(t, err, ErrBounds)
}

func TestSliceWithStep(t *testing.T) {
	a := New(16, 16, 16, 0)
	for x := 0; x < 16; x++ {
		a.Set(x, 0, 0, uint32(x))
	}

	// Every second column of x 0..15.
	v, err := a.Slice([3]int{0, 0, 0}, [3]int{16, 1, 16}, [3]int{2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, [3]int{8, 1, 16}, v.Shape())

	assert.Equal(t, uint32(0), v.Get(0, 0, 0))
	assert.Equal(t, uint32(2), v.Get(1, 0, 0))
	assert.Equal(t, uint32(14), v.Get(7, 0, 0))

	// Writes through a strided view land on the strided coordinate.
	v.Set(3, 0, 0, 99)
	assert.Equal(t, uint32(99), a.Get(6, 0, 0))
	assert.Equal(t, uint32(5), a.Get(5, 0, 0))
}

func TestSliceStepRoundsShapeUp(t *testing.T) {
	a := New(16, 16, 16, 0)

	// 5 coordinates with step 2 cover indices 0, 2, 4.
	v, err := a.Slice([3]int{0, 0, 0}, [3]int{5, 1, 1}, [3]int{2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, [3]int{3, 1, 1}, v.Shape())
	assert.Panics(t, func() { v.Get(3, 0, 0) })
}

func TestNestedSliceCompoundsStep(t *testing.T) {
	a := New(16, 16, 16, 0)
	for x := 0; x < 16; x++ {
		a.Set(x, 0, 0, uint32(x))
	}

	v, err := a.Slice([3]int{0, 0, 0}, [3]int{16, 1, 16}, [3]int{2, 1, 1})
	require.NoError(t, err)

	// Step 2 over a step-2 view is stride 4 in the parent.
	inner, err := v.Slice([3]int{1, 0, 0}, [3]int{8, 1, 16}, [3]int{2, 1, 1})
	require.NoError(t, err)
	assert.Equal(t, [3]int{4, 1, 16}, inner.Shape())
	assert.Equal(t, uint32(2), inner.Get(0, 0, 0))
	assert.Equal(t, uint32(6), inner.Get(1, 0, 0))
	assert.Equal(t, uint32(14), inner.Get(3, 0, 0))
}

func TestSliceRejectsBadStep(t *testing.T) {
	a := New(16, 16, 16, 0)
	_, err := a.Slice([3]int{0, 0, 0}, [3]int{16, 16, 16}, [3]int{0, 1, 1})
	assert.ErrorIs(t, err, ErrBounds)
	_, err = a.Slice([3]int{0, 0, 0}, [3]int{16, 16, 16}, [3]int{1, -2, 1})
	assert.ErrorIs(t, err, ErrBounds)
}

func TestForkDetaches(t *testing.T) {
	a := New(16, 16, 16, 0)
	a.Set(0, 0, 0, 5)

	v, err := a.Slice([3]int{0, 0, 0}, [3]int{16, 16, 16})
	require.NoError(t, err)
	f := v.Fork()

	assert.Equal(t, uint32(5), f.Get(0, 0, 0))

	f.Set(0, 0, 0, 6)
	assert.Equal(t, uint32(5), a.Get(0, 0, 0), "fork write must not reach the parent")

	a.Set(1, 0, 0, 9)
	assert.Equal(t, uint32(0), f.Get(1, 0, 0), "parent write must not reach the fork")
}

func TestArrayForkDeepCopies(t *testing.T) {
	a := New(4, 4, 4, 1)
	a.Set(0, 0, 0, 2)

	b := a.Fork()
	b.Set(0, 0, 0, 3)
	b.Set(0, 4, 0, 4)

	assert.Equal(t, uint32(2), a.Get(0, 0, 0))
	assert.Equal(t, uint32(1), a.Get(0, 4, 0))
	assert.Equal(t, 1, a.SectionCount())
	assert.Equal(t, 2, b.SectionCount())
}
