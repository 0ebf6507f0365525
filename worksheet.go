package gridcore

import (
	"bufio"
	"io"
)

// field separators of the plain-text grid rendering
const (
	fieldSeparator = '\t'
	rowTerminator  = '\n'
)

// PrintableSize returns the smallest origin-anchored box containing every
// occupied slot
func (s *Sheet) PrintableSize() Size {
	return s.storage.Bounds()
}

// PrintValues writes the computed value of every occupied slot within the
// printable area, tab separated, one line per row. unoccupied slots are left
// blank
func (s *Sheet) PrintValues(w io.Writer) error {
	return s.render(w, func(cell *Cell) string {
		return FormatValue(cell.GetValue())
	})
}

// PrintTexts writes the raw text of every slot within the printable area,
// tab separated, one line per row
func (s *Sheet) PrintTexts(w io.Writer) error {
	return s.render(w, func(cell *Cell) string {
		return cell.GetText()
	})
}

func (s *Sheet) render(w io.Writer, field func(*Cell) string) error {
	size := s.PrintableSize()
	bw := bufio.NewWriter(w)

	for row := 0; row < size.Rows; row++ {
		for col := 0; col < size.Cols; col++ {
			if col > 0 {
				if err := bw.WriteByte(fieldSeparator); err != nil {
					return err
				}
			}
			if cell := s.storage.Get(Position{Row: row, Col: col}); cell != nil {
				if _, err := bw.WriteString(field(cell)); err != nil {
					return err
				}
			}
		}
		if err := bw.WriteByte(rowTerminator); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// FormatValue renders a cell value the way the grid printers show it
func FormatValue(value Value) string {
	switch v := value.(type) {
	case nil:
		return ""
	case float64:
		return formatNumber(v)
	case string:
		return v
	case FormulaError:
		return v.String()
	default:
		return ""
	}
}
