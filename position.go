package gridcore

import (
	"fmt"
	"strconv"
	"strings"
)

// grid limits. a position is valid when both coordinates are non-negative
// and below these bounds
const (
	MaxRows = 16384
	MaxCols = 16384
)

const lettersInAlphabet = 26

// Position is a zero-based (row, column) pair. it is comparable and used as
// the vertex identity of the dependency graph
type Position struct {
	Row int
	Col int
}

// PositionNone is the canonical invalid position
var PositionNone = Position{Row: -1, Col: -1}

// Size is the extent of a rectangle anchored at the origin
type Size struct {
	Rows int
	Cols int
}

// IsValid reports whether the position lies inside the grid limits
func (p Position) IsValid() bool {
	return p.Row >= 0 && p.Col >= 0 && p.Row < MaxRows && p.Col < MaxCols
}

// Less orders positions row-major
func (p Position) Less(other Position) bool {
	if p.Row != other.Row {
		return p.Row < other.Row
	}
	return p.Col < other.Col
}

// String encodes the position in A1 notation. invalid positions encode as
// the empty string
func (p Position) String() string {
	if !p.IsValid() {
		return ""
	}
	return columnName(p.Col) + strconv.Itoa(p.Row+1)
}

// columnName converts a zero-based column index to letters
// (0 -> A, 25 -> Z, 26 -> AA)
func columnName(col int) string {
	var buf [4]byte
	i := len(buf)
	for col >= 0 {
		i--
		buf[i] = byte('A' + col%lettersInAlphabet)
		col = col/lettersInAlphabet - 1
	}
	return string(buf[i:])
}

// ParsePosition decodes an upper-case A1 reference such as "B12"
func ParsePosition(s string) (Position, error) {
	pos, ok := splitCellAddress(s)
	if !ok {
		return PositionNone, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
	}
	if !pos.IsValid() {
		return PositionNone, fmt.Errorf("%w: %q is outside the grid", ErrInvalidPosition, s)
	}
	return pos, nil
}

// splitCellAddress decodes the letters+digits shape of a cell address. it
// reports false when the text is not shaped like a reference at all; a
// well-shaped reference past the grid limits comes back as an invalid
// position with ok=true so callers can tell "not a reference" apart from
// "reference out of range"
func splitCellAddress(s string) (pos Position, ok bool) {
	letterEnd := 0
	for letterEnd < len(s) && s[letterEnd] >= 'A' && s[letterEnd] <= 'Z' {
		letterEnd++
	}
	if letterEnd == 0 || letterEnd == len(s) {
		return PositionNone, false
	}

	digits := s[letterEnd:]
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return PositionNone, false
		}
	}
	if digits[0] == '0' {
		return PositionNone, false
	}

	// anything longer than this is out of range anyway and would overflow
	if letterEnd > 3 || len(digits) > 7 {
		return PositionNone, true
	}

	col := 0
	for _, ch := range s[:letterEnd] {
		col = col*lettersInAlphabet + int(ch-'A') + 1
	}
	row, err := strconv.Atoi(digits)
	if err != nil {
		return PositionNone, false
	}

	return Position{Row: row - 1, Col: col - 1}, true
}

// MustParsePosition is ParsePosition for literals known to be valid
func MustParsePosition(s string) Position {
	pos, err := ParsePosition(strings.TrimSpace(s))
	if err != nil {
		panic(err)
	}
	return pos
}
