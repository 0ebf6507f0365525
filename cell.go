package gridcore

import (
	"slices"
)

// Value represents a computed cell value.
// types:
//   - float64: numeric values
//   - string: text values
//   - FormulaError: evaluation errors (#REF!, #VALUE!, #ARITHM!)
type Value any

// ErrorCategory identifies the kind of a formula evaluation error
type ErrorCategory uint8

const (
	ErrorCategoryRef        ErrorCategory = 1 // #REF! - reference outside the grid
	ErrorCategoryValue      ErrorCategory = 2 // #VALUE! - operand is not a number
	ErrorCategoryArithmetic ErrorCategory = 3 // #ARITHM! - division by zero or overflow
)

// ErrorMapper maps error categories to their display strings
var ErrorMapper = map[ErrorCategory]string{
	ErrorCategoryRef:        "#REF!",
	ErrorCategoryValue:      "#VALUE!",
	ErrorCategoryArithmetic: "#ARITHM!",
}

// FormulaError is the value produced by a formula that failed to evaluate.
// it is data, not control flow: GetValue returns it like any other value
type FormulaError struct {
	Category ErrorCategory
}

// NewFormulaError creates a formula error of the given category
func NewFormulaError(category ErrorCategory) FormulaError {
	return FormulaError{Category: category}
}

func (e FormulaError) String() string {
	if s, ok := ErrorMapper[e.Category]; ok {
		return s
	}
	return "#ERROR!"
}

func (e FormulaError) Error() string {
	return e.String()
}

// formula and escape markers recognized on raw cell input
const (
	FormulaSign = '='
	EscapeSign  = '\''
)

// content is one of the three cell content variants. implementations are
// immutable apart from the formula result cache
type content interface {
	value(lookup func(Position) Value) Value
	text() string
	references() []Position
	invalidate()
}

type emptyContent struct{}

func (emptyContent) value(func(Position) Value) Value { return 0.0 }
func (emptyContent) text() string                     { return "" }
func (emptyContent) references() []Position           { return nil }
func (emptyContent) invalidate()                      {}

type textContent struct {
	raw string
}

func (c *textContent) value(func(Position) Value) Value {
	if len(c.raw) > 0 && c.raw[0] == EscapeSign {
		return c.raw[1:]
	}
	return c.raw
}

func (c *textContent) text() string           { return c.raw }
func (c *textContent) references() []Position { return nil }
func (c *textContent) invalidate()            {}

// formulaContent caches the last numeric result. the cache is written only
// by value and cleared only by invalidate
type formulaContent struct {
	formula Formula
	cached  float64
	valid   bool
	noCache bool
}

func (c *formulaContent) value(lookup func(Position) Value) Value {
	if c.valid {
		return c.cached
	}
	result := c.formula.Evaluate(lookup)
	if num, ok := result.(float64); ok && !c.noCache {
		c.cached = num
		c.valid = true
	}
	return result
}

func (c *formulaContent) text() string {
	return string(FormulaSign) + c.formula.Expression()
}

func (c *formulaContent) references() []Position {
	return c.formula.ReferencedCells()
}

func (c *formulaContent) invalidate() {
	c.valid = false
	c.cached = 0
}

// newContent builds the content variant for raw cell input. a formula that
// fails to parse returns an error and nothing is built
func newContent(text string, noCache bool) (content, error) {
	switch {
	case len(text) > 1 && text[0] == FormulaSign:
		formula, err := ParseFormula(text[1:])
		if err != nil {
			return nil, err
		}
		return &formulaContent{formula: formula, noCache: noCache}, nil
	case text != "":
		return &textContent{raw: text}, nil
	default:
		return emptyContent{}, nil
	}
}

// CellInterface is the read-only view of a cell handed to callers outside
// the sheet
type CellInterface interface {
	GetValue() Value
	GetText() string
	GetReferencedCells() []Position
}

// Cell is a grid slot occupant. it owns its content and the set of
// positions whose content references it (reverse dependencies). the sheet
// keeps that set in sync on every edit
type Cell struct {
	sheet      *Sheet
	content    content
	dependents map[Position]struct{}
}

var _ CellInterface = (*Cell)(nil)

// newCell creates an empty cell bound to a sheet
func newCell(sheet *Sheet) *Cell {
	return &Cell{
		sheet:      sheet,
		content:    emptyContent{},
		dependents: make(map[Position]struct{}),
	}
}

// GetValue returns the computed value of the cell
func (c *Cell) GetValue() Value {
	return c.content.value(c.sheet.lookup)
}

// GetText returns the raw text of the cell; formulas are re-printed in
// canonical form
func (c *Cell) GetText() string {
	return c.content.text()
}

// GetReferencedCells returns the positions the cell content depends on
func (c *Cell) GetReferencedCells() []Position {
	return slices.Clone(c.content.references())
}

func (c *Cell) setContent(next content) {
	c.content = next
}

func (c *Cell) clearCache() {
	c.content.invalidate()
}

func (c *Cell) addDependent(pos Position) {
	c.dependents[pos] = struct{}{}
}

func (c *Cell) removeDependent(pos Position) {
	delete(c.dependents, pos)
}

// dependentPositions returns the reverse references sorted row-major
func (c *Cell) dependentPositions() []Position {
	result := make([]Position, 0, len(c.dependents))
	for pos := range c.dependents {
		result = append(result, pos)
	}
	slices.SortFunc(result, comparePositions)
	return result
}

func comparePositions(a, b Position) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}
