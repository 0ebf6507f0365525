package gridcore

import "iter"

// MaxRangeCells caps the number of cells a single range argument may span
const MaxRangeCells = 1 << 16

// Range is a rectangular block of positions. Start is always the top-left
// corner and End the bottom-right one
type Range struct {
	Start Position
	End   Position
}

// NewRange creates a range from two opposite corners in any order
func NewRange(a, b Position) Range {
	return Range{
		Start: Position{Row: min(a.Row, b.Row), Col: min(a.Col, b.Col)},
		End:   Position{Row: max(a.Row, b.Row), Col: max(a.Col, b.Col)},
	}
}

// IsValid reports whether both corners lie inside the grid
func (r Range) IsValid() bool {
	return r.Start.IsValid() && r.End.IsValid()
}

// Size returns the extent of the range
func (r Range) Size() Size {
	return Size{Rows: r.End.Row - r.Start.Row + 1, Cols: r.End.Col - r.Start.Col + 1}
}

// CellCount returns the number of positions covered by the range
func (r Range) CellCount() int {
	s := r.Size()
	return s.Rows * s.Cols
}

// Cells iterates the positions of the range row-major
func (r Range) Cells() iter.Seq[Position] {
	return func(yield func(Position) bool) {
		for row := r.Start.Row; row <= r.End.Row; row++ {
			for col := r.Start.Col; col <= r.End.Col; col++ {
				if !yield(Position{Row: row, Col: col}) {
					return
				}
			}
		}
	}
}

func (r Range) String() string {
	return r.Start.String() + string(charColon) + r.End.String()
}
