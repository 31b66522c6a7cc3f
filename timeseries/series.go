package timeseries

import (
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Series is a named sequence of observations, optionally dated.
type Series struct {
	Timestamps []time.Time
	Values     []float64
	Name       string
}

// New creates a named series without timestamps.
func New(name string, values []float64) *Series {
	return &Series{
		Values: values,
		Name:   name,
	}
}

// NewWithTimestamps creates a series whose values are dated one to one.
func NewWithTimestamps(name string, timestamps []time.Time, values []float64) (*Series, error) {
	if len(timestamps) != len(values) {
		return nil, errors.New("timestamps and values must have the same length")
	}
	return &Series{
		Timestamps: timestamps,
		Values:     values,
		Name:       name,
	}, nil
}

// Len returns the number of observations.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	return stat.Mean(s.Values, nil)
}

// Variance returns the unbiased sample variance, or 0 below two observations.
func (s *Series) Variance() float64 {
	if len(s.Values) < 2 {
		return 0
	}
	return stat.Variance(s.Values, nil)
}

// Std returns the sample standard deviation.
func (s *Series) Std() float64 {
	return math.Sqrt(s.Variance())
}

// Min returns the smallest value, NaN when empty.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Min(s.Values)
}

// Max returns the largest value, NaN when empty.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	return floats.Max(s.Values)
}

// Diff returns the first difference.
func (s *Series) Diff() *Series {
	return s.DiffN(1)
}

// DiffN differences the series n times. Each pass drops the first
// observation, and timestamps follow the surviving values.
func (s *Series) DiffN(n int) *Series {
	if n <= 0 {
		return s.Copy()
	}
	out := &Series{Values: []float64{}, Name: s.Name + "_diff"}
	if len(s.Values) <= n {
		return out
	}

	cur := s.Values
	for d := 0; d < n; d++ {
		next := make([]float64, len(cur)-1)
		floats.SubTo(next, cur[1:], cur[:len(cur)-1])
		cur = next
	}
	out.Values = cur

	if len(s.Timestamps) == len(s.Values) {
		out.Timestamps = append([]time.Time(nil), s.Timestamps[n:]...)
	}
	return out
}

// Copy returns a deep copy.
func (s *Series) Copy() *Series {
	c := &Series{
		Values: append([]float64{}, s.Values...),
		Name:   s.Name,
	}
	if s.Timestamps != nil {
		c.Timestamps = append([]time.Time(nil), s.Timestamps...)
	}
	return c
}

// HasNaN reports whether any value is NaN.
func (s *Series) HasNaN() bool {
	return floats.HasNaN(s.Values)
}
