package domain

import (
	"slices"
)

// ResultBuffer is an append-only run of flattened placements owned by a
// single role.
type ResultBuffer struct {
	values []uint32
}

// Append copies p onto the end of the buffer.
func (b *ResultBuffer) Append(p Placement) {
	b.values = append(b.values, p...)
}

// Extend appends already flattened values.
func (b *ResultBuffer) Extend(values []uint32) {
	b.values = append(b.values, values...)
}

func (b *ResultBuffer) Len() int {
	return len(b.values)
}

// Values returns the buffered values. The slice is owned by the buffer.
func (b *ResultBuffer) Values() []uint32 {
	return b.values
}

// Flush hands over the buffered values and leaves the buffer empty.
func (b *ResultBuffer) Flush() []uint32 {
	out := b.values
	b.values = nil
	return out
}

// Solutions is the flattened solution set of a run; every consecutive block
// of N values is one placement.
type Solutions struct {
	N      int
	Values []uint32
}

// Count returns the number of complete placements held.
func (s Solutions) Count() int {
	if s.N == 0 {
		return 0
	}
	return len(s.Values) / s.N
}

// Split returns one placement per solution, in buffer order.
func (s Solutions) Split() []Placement {
	out := make([]Placement, 0, s.Count())
	for i := 0; i+s.N <= len(s.Values) && s.N > 0; i += s.N {
		out = append(out, Placement(s.Values[i:i+s.N]).Clone())
	}
	return out
}

// Sorted returns the placements in lexicographic order.
func (s Solutions) Sorted() []Placement {
	out := s.Split()
	slices.SortFunc(out, func(a, b Placement) int {
		return slices.Compare(a, b)
	})
	return out
}
