package dataset

import "fmt"

// Resample keeps every kth record starting from the first, so the result
// holds the records at positions 0, k, 2k, ... and has ceil(n/k) rows. Day
// values are carried over unchanged.
func Resample(t *Table, k int) (*Table, error) {
	if k < 1 {
		return nil, fmt.Errorf("dataset.Resample: k=%d: %w", k, ErrInvalidStride)
	}
	out := &Table{Records: make([]Record, 0, (t.Len()+k-1)/k)}
	for i := 0; i < t.Len(); i += k {
		out.Records = append(out.Records, t.Records[i])
	}
	return out, nil
}
