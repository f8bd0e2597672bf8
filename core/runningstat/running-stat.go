// Package runningstat implements Knuth and Welford's method for computing the standard deviation.
package runningstat

import (
	"math"
)

// RunningStat collects statistics and allows computing min, max, mean, and variance.
// Algorithm comes from https://www.johndcook.com/blog/standard_deviation/ .
// The zero value is an empty RunningStat ready for use.
type RunningStat struct {
	n   uint64
	m1  float64
	m2  float64
	min float64
	max float64
}

// Clear deletes collected data.
func (s *RunningStat) Clear() {
	*s = RunningStat{}
}

// Push adds an input.
func (s *RunningStat) Push(x float64) {
	s.n++
	if s.n == 1 {
		s.m1, s.m2 = x, 0
		s.min, s.max = x, x
		return
	}

	delta := x - s.m1
	s.m1 += delta / float64(s.n)
	s.m2 += delta * (x - s.m1)
	s.min, s.max = math.Min(s.min, x), math.Max(s.max, x)
}

// Read returns current counters as Snapshot.
func (s RunningStat) Read() Snapshot {
	return newSnapshot(s.n, s.m1, s.m2, s.min, s.max)
}
