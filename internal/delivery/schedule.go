package delivery

import (
	"math/rand/v2"
	"time"
)

// maxShift keeps base<<n from overflowing.
const maxShift = 30

// schedule is the wait before each retry: 2^(i-2)*base plus jitter for attempt i > 1.
// The first attempt never waits, so NextBackOff is first called before attempt 2.
type schedule struct {
	base      time.Duration
	jitterMax time.Duration
	jitter    func(max time.Duration) time.Duration
	n         int
}

func newSchedule(base, jitterMax time.Duration, jitter func(time.Duration) time.Duration) *schedule {
	if jitter == nil {
		jitter = uniformJitter
	}
	return &schedule{base: base, jitterMax: jitterMax, jitter: jitter}
}

// NextBackOff implements backoff.BackOff.
func (s *schedule) NextBackOff() time.Duration {
	d := s.delay(s.n + 2)
	s.n++
	return d
}

// Reset implements backoff.BackOff.
func (s *schedule) Reset() { s.n = 0 }

func (s *schedule) delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	shift := attempt - 2
	if shift > maxShift {
		shift = maxShift
	}
	d := s.base << shift
	if s.jitterMax > 0 {
		d += s.jitter(s.jitterMax)
	}
	return d
}

// uniformJitter returns a whole number of milliseconds in [0, max].
func uniformJitter(max time.Duration) time.Duration {
	return time.Duration(rand.Int64N(max.Milliseconds()+1)) * time.Millisecond
}
