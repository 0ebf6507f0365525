package gridcore

import "iter"

// Storage is the sparse slot table backing a sheet. rows grow independently
// and never shrink; an unoccupied slot holds nil
type Storage struct {
	rows  [][]*Cell
	count int
}

// NewStorage creates an empty slot table
func NewStorage() *Storage {
	return &Storage{}
}

func (st *Storage) isOnTable(pos Position) bool {
	return pos.Row < len(st.rows) && pos.Col < len(st.rows[pos.Row])
}

// Get returns the cell at pos or nil when the slot is unoccupied
func (st *Storage) Get(pos Position) *Cell {
	if !pos.IsValid() || !st.isOnTable(pos) {
		return nil
	}
	return st.rows[pos.Row][pos.Col]
}

// Put stores cell at pos, growing the table as needed
func (st *Storage) Put(pos Position, cell *Cell) {
	st.resize(pos)
	if st.rows[pos.Row][pos.Col] == nil {
		st.count++
	}
	st.rows[pos.Row][pos.Col] = cell
}

// Remove empties the slot at pos. the table keeps its size
func (st *Storage) Remove(pos Position) {
	if !pos.IsValid() || !st.isOnTable(pos) || st.rows[pos.Row][pos.Col] == nil {
		return
	}
	st.rows[pos.Row][pos.Col] = nil
	st.count--
}

func (st *Storage) resize(pos Position) {
	if pos.Row >= len(st.rows) {
		grown := make([][]*Cell, pos.Row+1)
		copy(grown, st.rows)
		st.rows = grown
	}
	if row := st.rows[pos.Row]; pos.Col >= len(row) {
		grown := make([]*Cell, pos.Col+1)
		copy(grown, row)
		st.rows[pos.Row] = grown
	}
}

// Count returns the number of occupied slots
func (st *Storage) Count() int {
	return st.count
}

// Occupied iterates the occupied slots row-major
func (st *Storage) Occupied() iter.Seq2[Position, *Cell] {
	return func(yield func(Position, *Cell) bool) {
		for row, cells := range st.rows {
			for col, cell := range cells {
				if cell == nil {
					continue
				}
				if !yield(Position{Row: row, Col: col}, cell) {
					return
				}
			}
		}
	}
}

// Bounds returns the smallest origin-anchored size covering every occupied
// slot. it is computed by scanning
func (st *Storage) Bounds() Size {
	var size Size
	for pos := range st.Occupied() {
		size.Rows = pos.Row + 1
		size.Cols = max(size.Cols, pos.Col+1)
	}
	return size
}
