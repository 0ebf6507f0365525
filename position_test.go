package gridcore

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionString(t *testing.T) {
	cases := []struct {
		pos      Position
		expected string
	}{
		{Position{Row: 0, Col: 0}, "A1"},
		{Position{Row: 11, Col: 1}, "B12"},
		{Position{Row: 0, Col: 25}, "Z1"},
		{Position{Row: 0, Col: 26}, "AA1"},
		{Position{Row: 0, Col: 701}, "ZZ1"},
		{Position{Row: 0, Col: 702}, "AAA1"},
		{Position{Row: MaxRows - 1, Col: MaxCols - 1}, "XFD16384"},
		{Position{Row: MaxRows, Col: 0}, ""},
		{PositionNone, ""},
	}

	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.pos.String())
			if tc.expected == "" {
				return
			}
			parsed, err := ParsePosition(tc.expected)
			require.NoError(t, err)
			assert.Equal(t, tc.pos, parsed)
		})
	}
}

func TestParsePositionErrors(t *testing.T) {
	inputs := []string{
		"",
		"A",
		"1",
		"a1",
		"A0",
		"A01",
		"1A",
		"A1B",
		"$A$1",
		"A-1",
		"XFE1",
		"A16385",
		"ZZZZ1",
		"A99999999",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			pos, err := ParsePosition(input)
			assert.ErrorIs(t, err, ErrInvalidPosition)
			assert.Equal(t, PositionNone, pos)
		})
	}
}

func TestPositionOrdering(t *testing.T) {
	positions := []Position{
		MustParsePosition("B2"),
		MustParsePosition("A2"),
		MustParsePosition("C1"),
		MustParsePosition("A1"),
	}
	slices.SortFunc(positions, comparePositions)

	assert.Equal(t, []Position{
		MustParsePosition("A1"),
		MustParsePosition("C1"),
		MustParsePosition("A2"),
		MustParsePosition("B2"),
	}, positions)
	assert.True(t, MustParsePosition("Z1").Less(MustParsePosition("A2")))
	assert.False(t, MustParsePosition("A2").Less(MustParsePosition("A2")))
	assert.Panics(t, func() { MustParsePosition("nope") })
}

func TestRange(t *testing.T) {
	r := NewRange(MustParsePosition("C3"), MustParsePosition("A2"))

	assert.Equal(t, MustParsePosition("A2"), r.Start)
	assert.Equal(t, MustParsePosition("C3"), r.End)
	assert.Equal(t, "A2:C3", r.String())
	assert.Equal(t, Size{Rows: 2, Cols: 3}, r.Size())
	assert.Equal(t, 6, r.CellCount())
	assert.True(t, r.IsValid())

	var cells []string
	for pos := range r.Cells() {
		cells = append(cells, pos.String())
	}
	assert.Equal(t, []string{"A2", "B2", "C2", "A3", "B3", "C3"}, cells)

	invalid := NewRange(MustParsePosition("A1"), Position{Row: 0, Col: MaxCols})
	assert.False(t, invalid.IsValid())
}

func TestStorage(t *testing.T) {
	st := NewStorage()
	sheet := NewSheet()

	assert.Equal(t, Size{}, st.Bounds())
	assert.Nil(t, st.Get(MustParsePosition("C5")))
	assert.Nil(t, st.Get(PositionNone))

	st.Put(MustParsePosition("C2"), newCell(sheet))
	st.Put(MustParsePosition("A5"), newCell(sheet))
	st.Put(MustParsePosition("A5"), newCell(sheet))

	assert.Equal(t, 2, st.Count())
	assert.Equal(t, Size{Rows: 5, Cols: 3}, st.Bounds())
	assert.NotNil(t, st.Get(MustParsePosition("C2")))
	assert.Nil(t, st.Get(MustParsePosition("B2")))

	var occupied []string
	for pos := range st.Occupied() {
		occupied = append(occupied, pos.String())
	}
	assert.Equal(t, []string{"C2", "A5"}, occupied)

	st.Remove(MustParsePosition("A5"))
	st.Remove(MustParsePosition("A5"))
	st.Remove(MustParsePosition("Z99"))

	assert.Equal(t, 1, st.Count())
	assert.Equal(t, Size{Rows: 2, Cols: 3}, st.Bounds())

	st.Remove(MustParsePosition("C2"))
	assert.Equal(t, 0, st.Count())
	assert.Equal(t, Size{}, st.Bounds())
}
