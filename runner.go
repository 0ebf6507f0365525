package gridcore

import (
	"fmt"
	"slices"
	"strings"

	"google.golang.org/grpc/codes"
)

// Runner is a chainable wrapper for sheet operations. it addresses cells in
// A1 notation and tracks the first error internally; once an error is
// recorded every further edit is a no-op until Reset
type Runner struct {
	sheet   *Sheet
	err     error
	printLn func(string)
}

// NewRunner creates a new Runner over a fresh sheet. printLn is required
// and is used for all logging operations (Log, CheckError)
func NewRunner(printLn func(string), opts ...Option) *Runner {
	return &Runner{
		sheet:   NewSheet(opts...),
		printLn: printLn,
	}
}

func (r *Runner) position(address string) (Position, bool) {
	pos, err := ParsePosition(strings.TrimSpace(address))
	if err != nil {
		r.err = wrapApplicationError(codes.InvalidArgument, err)
		return PositionNone, false
	}
	return pos, true
}

// Set sets the text of a cell (chainable)
func (r *Runner) Set(address, text string) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	if pos, ok := r.position(address); ok {
		r.err = r.sheet.SetCell(pos, text)
	}
	return r
}

// SetAt sets the text of the cell at pos (chainable)
func (r *Runner) SetAt(pos Position, text string) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	r.err = r.sheet.SetCell(pos, text)
	return r
}

// Clear clears a cell (chainable)
func (r *Runner) Clear(address string) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}
	if pos, ok := r.position(address); ok {
		r.err = r.sheet.ClearCell(pos)
	}
	return r
}

// SetBatch sets multiple cells at once in row-major address order
// (chainable)
func (r *Runner) SetBatch(cells map[string]string) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	type edit struct {
		pos  Position
		text string
	}
	edits := make([]edit, 0, len(cells))
	for address, text := range cells {
		pos, ok := r.position(address)
		if !ok {
			return r
		}
		edits = append(edits, edit{pos: pos, text: text})
	}
	slices.SortFunc(edits, func(a, b edit) int { return comparePositions(a.pos, b.pos) })

	for _, e := range edits {
		if err := r.sheet.SetCell(e.pos, e.text); err != nil {
			r.err = err
			return r
		}
	}
	return r
}

// ForEach calls fn for every position of the range, stopping at the first
// error (chainable)
func (r *Runner) ForEach(area Range, fn func(pos Position, r *Runner)) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	for pos := range area.Cells() {
		fn(pos, r)
		if r.err != nil {
			return r // stop on first error
		}
	}
	return r
}

// If allows conditional operations in the chain
func (r *Runner) If(condition bool, fn func(*Runner) *Runner) *Runner {
	if r.err != nil || !condition {
		return r // skip if there's an error or condition is false
	}
	return fn(r)
}

// Then allows conditional execution based on current error state
func (r *Runner) Then(fn func(*Runner) *Runner) *Runner {
	if r.err != nil {
		return r // skip if there's an error
	}
	return fn(r)
}

// OnError allows error handling in the chain
func (r *Runner) OnError(fn func(error) error) *Runner {
	if r.err != nil {
		r.err = fn(r.err)
	}
	return r
}

// Must panics if there's an error (chainable)
func (r *Runner) Must() *Runner {
	if r.err != nil {
		panic(r.err)
	}
	return r
}

// Reset clears the error state (chainable)
func (r *Runner) Reset() *Runner {
	r.err = nil
	return r
}

// Error returns the current error state
func (r *Runner) Error() error {
	return r.err
}

// CheckError logs the current error using the printLn function (chainable)
func (r *Runner) CheckError() *Runner {
	if r.err != nil {
		r.printLn(fmt.Sprintf("ERROR: %v", r.err))
	} else {
		r.printLn("No errors")
	}
	return r
}

// Sheet returns the underlying sheet. edits made on it bypass error
// tracking
func (r *Runner) Sheet() *Sheet {
	return r.sheet
}

// Value returns the value of a cell, or nil for an unoccupied slot or when
// the chain has failed
func (r *Runner) Value(address string) Value {
	if r.err != nil {
		return nil
	}
	cell := r.cell(address)
	if cell == nil {
		return nil
	}
	return cell.GetValue()
}

// Values returns the values of several cells
func (r *Runner) Values(addresses ...string) []Value {
	if r.err != nil {
		return nil
	}

	values := make([]Value, len(addresses))
	for i, address := range addresses {
		values[i] = r.Value(address)
		if r.err != nil {
			return nil
		}
	}
	return values
}

// Text returns the raw text of a cell
func (r *Runner) Text(address string) string {
	if r.err != nil {
		return ""
	}
	cell := r.cell(address)
	if cell == nil {
		return ""
	}
	return cell.GetText()
}

func (r *Runner) cell(address string) CellInterface {
	pos, ok := r.position(address)
	if !ok {
		return nil
	}
	cell, err := r.sheet.GetCell(pos)
	if err != nil {
		r.err = err
		return nil
	}
	return cell
}

// Log logs the value of a cell using the printLn function (chainable)
func (r *Runner) Log(address string) *Runner {
	if r.err != nil {
		return r // no-op if there's already an error
	}

	cell := r.cell(address)
	if r.err != nil {
		return r
	}

	var output string
	if cell == nil {
		output = fmt.Sprintf("%s: <empty>", address)
	} else {
		output = fmt.Sprintf("%s: %s", address, FormatValue(cell.GetValue()))
	}

	r.printLn(output)
	return r
}
