// Package sparse implements a lazily-populated 3-D array over vertically
// stacked sections.
//
// An Array is bounded along x and z and unbounded along y. Storage is a
// map from section index floor(y/sectionY) to a dense block of values;
// reading an un-materialized coordinate returns the configured default
// without allocating, and the first write to a section materializes the
// whole section filled with the default.
//
// A View is a bounded window over an Array. Views share the parent's
// section storage, so mutations are visible in both directions until a
// caller explicitly calls Fork.
package sparse

import (
	"errors"
	"fmt"
)

// ErrBounds reports view bounds that are inverted or fall outside the
// parent's x/z extent.
var ErrBounds = errors.New("sparse: view bounds out of range")

// Array is an unbounded-y sparse array of uint32 values.
//
// Array performs no internal locking: callers serialize access.
type Array struct {
	sizeX, sizeZ int
	sectionY     int
	def          uint32

	// sections maps floor(y/sectionY) to a dense (sizeX, sectionY, sizeZ)
	// block in x-major, then y, then z order.
	sections map[int][]uint32
}

// New returns an empty Array with the given x/z extent, section height, and
// default value. All three dimensions must be positive.
func New(sizeX, sectionY, sizeZ int, def uint32) *Array {
	if sizeX <= 0 || sectionY <= 0 || sizeZ <= 0 {
		panic(fmt.Sprintf("sparse: non-positive dimensions (%d, %d, %d)", sizeX, sectionY, sizeZ))
	}
	return &Array{
		sizeX:    sizeX,
		sizeZ:    sizeZ,
		sectionY: sectionY,
		def:      def,
		sections: make(map[int][]uint32),
	}
}

// Shape returns the x and z extents. The y axis is unbounded.
func (a *Array) Shape() (sizeX, sizeZ int) { return a.sizeX, a.sizeZ }

// SectionHeight returns the number of y levels per section.
func (a *Array) SectionHeight() int { return a.sectionY }

// Default returns the value reported for un-materialized coordinates.
func (a *Array) Default() uint32 { return a.def }

// SectionCount returns the number of materialized sections.
func (a *Array) SectionCount() int { return len(a.sections) }

func (a *Array) checkXZ(x, z int) {
	if x < 0 || x >= a.sizeX || z < 0 || z >= a.sizeZ {
		panic(fmt.Sprintf("sparse: coordinate (%d, _, %d) outside (%d, %d)", x, z, a.sizeX, a.sizeZ))
	}
}

// split maps y onto a section index and an intra-section offset. Sections
// tile the full integer line, so negative y lands in negative sections.
func (a *Array) split(y int) (sec, off int) {
	sec = y / a.sectionY
	off = y - sec*a.sectionY
	if off < 0 {
		sec--
		off += a.sectionY
	}
	return sec, off
}

func (a *Array) cell(x, off, z int) int {
	return (x*a.sectionY+off)*a.sizeZ + z
}

// Get reads the value at (x, y, z). Coordinates in un-materialized sections
// read as the default value; out-of-range x or z panics.
func (a *Array) Get(x, y, z int) uint32 {
	a.checkXZ(x, z)
	sec, off := a.split(y)
	data, ok := a.sections[sec]
	if !ok {
		return a.def
	}
	return data[a.cell(x, off, z)]
}

// Set writes the value at (x, y, z), materializing the enclosing section on
// first touch.
func (a *Array) Set(x, y, z int, v uint32) {
	a.checkXZ(x, z)
	sec, off := a.split(y)
	data, ok := a.sections[sec]
	if !ok {
		data = a.newSection()
		a.sections[sec] = data
	}
	data[a.cell(x, off, z)] = v
}

func (a *Array) newSection() []uint32 {
	data := make([]uint32, a.sizeX*a.sectionY*a.sizeZ)
	if a.def != 0 {
		for i := range data {
			data[i] = a.def
		}
	}
	return data
}

// SectionData returns the materialized section at the given section index,
// or nil when absent. The returned slice aliases the array's storage.
func (a *Array) SectionData(sec int) []uint32 {
	return a.sections[sec]
}

// SetSectionData installs data as the materialized section at sec. The
// slice is adopted, not copied, and must be exactly one section long.
func (a *Array) SetSectionData(sec int, data []uint32) {
	if want := a.sizeX * a.sectionY * a.sizeZ; len(data) != want {
		panic(fmt.Sprintf("sparse: section length %d, want %d", len(data), want))
	}
	a.sections[sec] = data
}

// Sections returns the indices of all materialized sections, in no
// particular order.
func (a *Array) Sections() []int {
	out := make([]int, 0, len(a.sections))
	for sec := range a.sections {
		out = append(out, sec)
	}
	return out
}

// Fork returns a deep copy of the array. The copy shares no section
// storage with the original.
func (a *Array) Fork() *Array {
	c := New(a.sizeX, a.sectionY, a.sizeZ, a.def)
	for sec, data := range a.sections {
		dup := make([]uint32, len(data))
		copy(dup, data)
		c.sections[sec] = dup
	}
	return c
}

// sanitizeStep validates an optional step triple. Omitted means unit
// stride on every axis.
func sanitizeStep(step [][3]int) ([3]int, error) {
	s := [3]int{1, 1, 1}
	if len(step) == 0 {
		return s, nil
	}
	if len(step) > 1 {
		return s, fmt.Errorf("%w: multiple step triples", ErrBounds)
	}
	s = step[0]
	for i, v := range s {
		if v < 1 {
			return s, fmt.Errorf("%w: axis %d step %d", ErrBounds, i, v)
		}
	}
	return s, nil
}

// Slice returns a bounded view covering start (inclusive) to stop
// (exclusive) on each axis, visiting every step-th coordinate. All bounds
// must be explicit and finite; x and z bounds must fall inside the array's
// extent. Step defaults to 1 on every axis and must be positive.
func (a *Array) Slice(start, stop [3]int, step ...[3]int) (*View, error) {
	st, err := sanitizeStep(step)
	if err != nil {
		return nil, err
	}
	for i := range start {
		if start[i] >= stop[i] {
			return nil, fmt.Errorf("%w: axis %d start %d >= stop %d", ErrBounds, i, start[i], stop[i])
		}
	}
	if start[0] < 0 || stop[0] > a.sizeX || start[2] < 0 || stop[2] > a.sizeZ {
		return nil, fmt.Errorf("%w: (%v, %v) outside (%d, %d)", ErrBounds, start, stop, a.sizeX, a.sizeZ)
	}
	return &View{parent: a, start: start, stop: stop, step: st}, nil
}

// View is a bounded, possibly strided window over an Array. Coordinates
// are relative to the view's origin; view coordinate i on an axis maps to
// parent coordinate start + i*step. A View shares its parent's section
// storage until Fork.
type View struct {
	parent      *Array
	start, stop [3]int
	step        [3]int
}

// Shape returns the view's extent on each axis, accounting for stride.
func (v *View) Shape() [3]int {
	var s [3]int
	for i := range s {
		s[i] = (v.stop[i] - v.start[i] + v.step[i] - 1) / v.step[i]
	}
	return s
}

func (v *View) check(x, y, z int) {
	s := v.Shape()
	if x < 0 || x >= s[0] || y < 0 || y >= s[1] || z < 0 || z >= s[2] {
		panic(fmt.Sprintf("sparse: coordinate (%d, %d, %d) outside view %v", x, y, z, s))
	}
}

// Get reads the value at view-relative (x, y, z).
func (v *View) Get(x, y, z int) uint32 {
	v.check(x, y, z)
	return v.parent.Get(
		v.start[0]+x*v.step[0],
		v.start[1]+y*v.step[1],
		v.start[2]+z*v.step[2],
	)
}

// Set writes the value at view-relative (x, y, z) through to the parent.
func (v *View) Set(x, y, z int, val uint32) {
	v.check(x, y, z)
	v.parent.Set(
		v.start[0]+x*v.step[0],
		v.start[1]+y*v.step[1],
		v.start[2]+z*v.step[2],
		val,
	)
}

// Slice returns a narrower view over the same parent. Bounds and step are
// relative to this view; strides compound.
func (v *View) Slice(start, stop [3]int, step ...[3]int) (*View, error) {
	st, err := sanitizeStep(step)
	if err != nil {
		return nil, err
	}
	s := v.Shape()
	for i := range start {
		if start[i] >= stop[i] {
			return nil, fmt.Errorf("%w: axis %d start %d >= stop %d", ErrBounds, i, start[i], stop[i])
		}
		if start[i] < 0 || stop[i] > s[i] {
			return nil, fmt.Errorf("%w: axis %d (%d, %d) outside %d", ErrBounds, i, start[i], stop[i], s[i])
		}
	}
	var nstart, nstop, nstep [3]int
	for i := range start {
		nstart[i] = v.start[i] + start[i]*v.step[i]
		// stop is exclusive: the last reachable view coordinate is
		// stop-1, so the parent bound sits one parent stride past it.
		nstop[i] = v.start[i] + (stop[i]-1)*v.step[i] + 1
		nstep[i] = v.step[i] * st[i]
	}
	return &View{parent: v.parent, start: nstart, stop: nstop, step: nstep}, nil
}

// Fork detaches the view from its parent: the returned view is backed by a
// deep copy, so later mutations on either side are invisible to the other.
func (v *View) Fork() *View {
	return &View{parent: v.parent.Fork(), start: v.start, stop: v.stop, step: v.step}
}
