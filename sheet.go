package gridcore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.alis.build/alog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrInvalidPosition is returned for positions outside the grid limits
	// and for text that does not decode to a position
	ErrInvalidPosition = errors.New("invalid position")
	// ErrFormulaSyntax is returned when a formula cannot be parsed
	ErrFormulaSyntax = errors.New("formula syntax error")
	// ErrCircularDependency is returned when an edit would make a cell
	// depend on itself
	ErrCircularDependency = errors.New("circular dependency")
)

// AppError represents errors at the application level (not formula
// evaluation errors, which are values). the code follows gRPC conventions
type AppError struct {
	Code    codes.Code
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// GRPCStatus lets status.FromError and status.Code read the code
func (e *AppError) GRPCStatus() *status.Status {
	return status.New(e.Code, e.Message)
}

// NewApplicationError creates a new application error
func NewApplicationError(code codes.Code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func wrapApplicationError(code codes.Code, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

// Option configures a Sheet
type Option func(*sheetOptions)

type sheetOptions struct {
	id          string
	cacheValues bool
}

// WithID sets the sheet identifier. the default is a random uuid
func WithID(id string) Option {
	return func(o *sheetOptions) {
		o.id = id
	}
}

// WithoutValueCache makes every formula read re-evaluate its expression
func WithoutValueCache() Option {
	return func(o *sheetOptions) {
		o.cacheValues = false
	}
}

// SheetInterface is the editing surface of a sheet
type SheetInterface interface {
	SetCell(pos Position, text string) error
	GetCell(pos Position) (CellInterface, error)
	ClearCell(pos Position) error
	PrintableSize() Size
}

var _ SheetInterface = (*Sheet)(nil)

// Sheet is a sparse grid of cells whose formulas are kept acyclic and whose
// cached values are invalidated on every edit they depend on. a Sheet is
// not safe for concurrent use
type Sheet struct {
	id          string
	storage     *Storage
	cacheValues bool
}

// NewSheet creates an empty sheet
func NewSheet(opts ...Option) *Sheet {
	o := sheetOptions{cacheValues: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}

	return &Sheet{
		id:          o.id,
		storage:     NewStorage(),
		cacheValues: o.cacheValues,
	}
}

// ID returns the sheet identifier
func (s *Sheet) ID() string {
	return s.id
}

// CellCount returns the number of occupied slots, including empty cells
// kept alive because other cells reference them
func (s *Sheet) CellCount() int {
	return s.storage.Count()
}

func (s *Sheet) checkPosition(op string, pos Position) error {
	if pos.IsValid() {
		return nil
	}
	return wrapApplicationError(codes.InvalidArgument,
		fmt.Errorf("%s: %w: (%d, %d)", op, ErrInvalidPosition, pos.Row, pos.Col))
}

// SetCell replaces the content of the cell at pos with text. text starting
// with '=' (and longer than one character) is parsed as a formula. the edit
// is rejected without touching the grid if the formula does not parse or
// would introduce a circular dependency
func (s *Sheet) SetCell(pos Position, text string) error {
	if err := s.checkPosition("set cell", pos); err != nil {
		return err
	}

	next, err := newContent(text, !s.cacheValues)
	if err != nil {
		return wrapApplicationError(codes.InvalidArgument, fmt.Errorf("cell %s: %w", pos, err))
	}

	refs := next.references()
	if s.hasCycle(pos, refs) {
		alog.Warnf(context.Background(), "sheet %s: rejected %s = %q: circular dependency", s.id, pos, text)
		return wrapApplicationError(codes.FailedPrecondition,
			fmt.Errorf("cell %s: %w", pos, ErrCircularDependency))
	}

	cell := s.storage.Get(pos)
	if cell == nil {
		cell = newCell(s)
		s.storage.Put(pos, cell)
	} else {
		touched := s.invalidate(pos)
		s.unlinkReferences(pos, cell.content.references())
		alog.Debugf(context.Background(), "sheet %s: invalidated %d cells from %s", s.id, touched, pos)
	}

	cell.setContent(next)
	s.linkReferences(pos, refs)

	alog.Debugf(context.Background(), "sheet %s: set %s = %q (%d references)", s.id, pos, text, len(refs))
	return nil
}

// GetCell returns the cell at pos, or nil when the slot is unoccupied
func (s *Sheet) GetCell(pos Position) (CellInterface, error) {
	if err := s.checkPosition("get cell", pos); err != nil {
		return nil, err
	}
	cell := s.storage.Get(pos)
	if cell == nil {
		return nil, nil
	}
	return cell, nil
}

// ClearCell removes the content of the cell at pos. cells that depend on it
// are invalidated and read it as empty from then on. while other cells still
// reference pos the slot keeps an empty cell carrying those references
func (s *Sheet) ClearCell(pos Position) error {
	if err := s.checkPosition("clear cell", pos); err != nil {
		return err
	}

	cell := s.storage.Get(pos)
	if cell == nil {
		return nil
	}

	touched := s.invalidate(pos)
	s.unlinkReferences(pos, cell.content.references())

	if len(cell.dependents) > 0 {
		cell.setContent(emptyContent{})
		alog.Debugf(context.Background(), "sheet %s: cleared %s, kept as empty for %d dependents (invalidated %d)",
			s.id, pos, len(cell.dependents), touched)
		return nil
	}

	s.storage.Remove(pos)
	alog.Debugf(context.Background(), "sheet %s: cleared %s (invalidated %d)", s.id, pos, touched)
	return nil
}

// Dependents returns the positions of the cells whose formulas reference
// pos directly, sorted row-major
func (s *Sheet) Dependents(pos Position) ([]Position, error) {
	if err := s.checkPosition("dependents", pos); err != nil {
		return nil, err
	}
	cell := s.storage.Get(pos)
	if cell == nil {
		return nil, nil
	}
	return cell.dependentPositions(), nil
}

// AffectedCells returns every cell whose value depends on pos directly or
// transitively, sorted row-major
func (s *Sheet) AffectedCells(pos Position) ([]Position, error) {
	if err := s.checkPosition("affected cells", pos); err != nil {
		return nil, err
	}
	return s.affectedCells(pos), nil
}

// lookup resolves a referenced position during formula evaluation
func (s *Sheet) lookup(pos Position) Value {
	cell := s.storage.Get(pos)
	if cell == nil {
		return 0.0
	}
	return cell.GetValue()
}

func (s *Sheet) getOrCreateCell(pos Position) *Cell {
	cell := s.storage.Get(pos)
	if cell == nil {
		cell = newCell(s)
		s.storage.Put(pos, cell)
	}
	return cell
}
