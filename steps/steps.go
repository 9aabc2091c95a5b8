// Package steps expresses long-running operations as pull-driven step
// sequences.
//
// A Stepper advances one unit of work per Step call and reports progress
// in the range 0..1. The caller owns the pacing: interleave other work
// between calls, or simply stop calling to cancel. Once Step reports
// done, Result returns the operation's final error.
package steps

// Stepper drives one resumable operation.
//
// The zero value is not usable; construct with New or Compose.
type Stepper struct {
	fn   func() (float64, bool, error)
	prog float64
	done bool
	err  error
}

// New wraps a step function. Each call performs one unit of work and
// returns the progress so far, whether the operation finished, and a
// terminal error. A non-nil error finishes the operation.
func New(fn func() (progress float64, done bool, err error)) *Stepper {
	return &Stepper{fn: fn}
}

// Done returns an already-finished stepper carrying err.
func Done(err error) *Stepper {
	return &Stepper{prog: 1, done: true, err: err}
}

// Step performs one unit of work. After the operation finishes, further
// calls are no-ops reporting (1, true).
func (s *Stepper) Step() (progress float64, done bool) {
	if s.done {
		return 1, true
	}
	prog, done, err := s.fn()
	if err != nil {
		s.err = err
		done = true
	}
	if done {
		prog = 1
		s.done = true
	}
	if prog < s.prog {
		prog = s.prog
	}
	if prog > 1 {
		prog = 1
	}
	s.prog = prog
	return prog, s.done
}

// Progress returns the last reported progress without advancing.
func (s *Stepper) Progress() float64 { return s.prog }

// Result returns the operation's terminal error. Valid only once Step has
// reported done.
func (s *Stepper) Result() error { return s.err }

// Run drives the stepper to completion and returns its result.
func Run(s *Stepper) error {
	for {
		if _, done := s.Step(); done {
			return s.Result()
		}
	}
}

// Compose chains a then b into a single stepper. Progress of a maps onto
// 0..split and progress of b onto split..1. An error from a finishes the
// composite without starting b.
func Compose(a, b *Stepper, split float64) *Stepper {
	if split < 0 {
		split = 0
	}
	if split > 1 {
		split = 1
	}
	inSecond := false
	return New(func() (float64, bool, error) {
		if !inSecond {
			prog, done := a.Step()
			if !done {
				return split * prog, false, nil
			}
			if err := a.Result(); err != nil {
				return split, true, err
			}
			inSecond = true
			return split, false, nil
		}
		prog, done := b.Step()
		return split + (1-split)*prog, done, b.Result()
	})
}
