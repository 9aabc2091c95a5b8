package steps

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counting returns a stepper that finishes after n units of work.
func counting(n int) *Stepper {
	i := 0
	return New(func() (float64, bool, error) {
		i++
		return float64(i) / float64(n), i >= n, nil
	})
}

func TestStepperRunsToCompletion(t *testing.T) {
	s := counting(4)

	prog, done := s.Step()
	assert.Equal(t, 0.25, prog)
	assert.False(t, done)

	s.Step()
	s.Step()
	prog, done = s.Step()
	assert.Equal(t, 1.0, prog)
	assert.True(t, done)
	assert.NoError(t, s.Result())
}

func TestStepAfterDoneIsNoOp(t *testing.T) {
	calls := 0
	s := New(func() (float64, bool, error) {
		calls++
		return 1, true, nil
	})

	_, done := s.Step()
	require.True(t, done)
	_, done = s.Step()
	assert.True(t, done)
	assert.Equal(t, 1, calls)
}

func TestErrorFinishesStepper(t *testing.T) {
	boom := errors.New("boom")
	i := 0
	s := New(func() (float64, bool, error) {
		i++
		if i == 2 {
			return 0, false, boom
		}
		return 0.1, false, nil
	})

	_, done := s.Step()
	require.False(t, done)
	_, done = s.Step()
	require.True(t, done)
	assert.ErrorIs(t, s.Result(), boom)
}

func TestProgressIsMonotonic(t *testing.T) {
	vals := []float64{0.5, 0.2, 0.9, 1.5}
	i := 0
	s := New(func() (float64, bool, error) {
		v := vals[i]
		i++
		return v, i == len(vals), nil
	})

	var seen []float64
	for {
		prog, done := s.Step()
		seen = append(seen, prog)
		if done {
			break
		}
	}
	assert.Equal(t, []float64{0.5, 0.5, 0.9, 1.0}, seen)
}

func TestRun(t *testing.T) {
	assert.NoError(t, Run(counting(10)))

	boom := errors.New("boom")
	assert.ErrorIs(t, Run(Done(boom)), boom)
}

func TestComposeRemapsRanges(t *testing.T) {
	s := Compose(counting(2), counting(2), 0.5)

	var seen []float64
	for {
		prog, done := s.Step()
		seen = append(seen, prog)
		if done {
			break
		}
	}
	// a: 0.25, 0.5(a done); b: 0.75, 1.0.
	assert.Equal(t, []float64{0.25, 0.5, 0.75, 1.0}, seen)
	assert.NoError(t, s.Result())
}

func TestComposeStopsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	bCalls := 0
	b := New(func() (float64, bool, error) {
		bCalls++
		return 1, true, nil
	})

	err := Run(Compose(Done(boom), b, 0.5))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, bCalls)
}
