package runningstat

import (
	"math"
)

// Snapshot contains a snapshot of RunningStat reading.
type Snapshot struct {
	Count    uint64   `json:"count"`
	Mean     float64  `json:"mean"`
	Variance float64  `json:"variance"`
	Stdev    float64  `json:"stdev"`
	M1       float64  `json:"m1"`
	M2       float64  `json:"m2"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
}

// Add combines stats with another instance.
func (s Snapshot) Add(o Snapshot) Snapshot {
	if s.Count == 0 {
		return o
	} else if o.Count == 0 {
		return s
	}
	n := s.Count + o.Count
	aN, bN, cN := float64(s.Count), float64(o.Count), float64(n)
	delta := o.M1 - s.M1
	m1 := (aN*s.M1 + bN*o.M1) / cN
	m2 := s.M2 + o.M2 + delta*delta*aN*bN/cN
	return newSnapshot(n, m1, m2, math.Min(*s.Min, *o.Min), math.Max(*s.Max, *o.Max))
}

// Scale multiplies every number by a ratio.
func (s Snapshot) Scale(ratio float64) Snapshot {
	if s.Count == 0 {
		return s
	}
	min, max := *s.Min*ratio, *s.Max*ratio
	if ratio < 0 {
		min, max = max, min
	}
	return newSnapshot(s.Count, s.M1*ratio, s.M2*ratio*ratio, min, max)
}

func newSnapshot(n uint64, m1, m2, min, max float64) (s Snapshot) {
	s.Count = n
	s.M1, s.M2 = m1, m2
	if n > 0 {
		s.Mean = m1
		s.Min, s.Max = &min, &max
	}
	if n > 1 {
		s.Variance = m2 / float64(n-1)
		s.Stdev = math.Sqrt(s.Variance)
	}
	return s
}
