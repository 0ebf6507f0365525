package gridcore

import (
	"slices"
)

// Formula is a parsed formula expression
type Formula interface {
	// Evaluate computes the formula, resolving referenced cells through
	// lookup. the result is a float64 or a FormulaError
	Evaluate(lookup func(Position) Value) Value
	// Expression returns the canonical text of the formula without the
	// leading '='
	Expression() string
	// ReferencedCells returns the in-grid positions the formula reads,
	// deduplicated and sorted row-major
	ReferencedCells() []Position
}

type formula struct {
	ast  ASTNode
	refs []Position
}

// ParseFormula parses an expression (without the leading '=')
func ParseFormula(expression string) (Formula, error) {
	tokens, err := NewLexer(expression).Tokenize()
	if err != nil {
		return nil, err
	}
	ast, err := NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return &formula{ast: ast, refs: collectReferences(ast)}, nil
}

func (f *formula) Evaluate(lookup func(Position) Value) Value {
	result, err := f.ast.Eval(lookup)
	if err != nil {
		if fe, ok := err.(FormulaError); ok {
			return fe
		}
		return NewFormulaError(ErrorCategoryValue)
	}
	return result
}

func (f *formula) Expression() string {
	return f.ast.ToString()
}

func (f *formula) ReferencedCells() []Position {
	return f.refs
}

// collectReferences walks the tree and gathers every valid position it
// reads. positions outside the grid evaluate to #REF! and are left out
func collectReferences(root ASTNode) []Position {
	seen := make(map[Position]struct{})
	stack := []ASTNode{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch n := node.(type) {
		case *CellRefNode:
			if n.Pos.IsValid() {
				seen[n.Pos] = struct{}{}
			}
		case *RangeNode:
			if n.Range.IsValid() {
				for pos := range n.Range.Cells() {
					seen[pos] = struct{}{}
				}
			}
		case *BinaryOpNode:
			stack = append(stack, n.Left, n.Right)
		case *UnaryOpNode:
			stack = append(stack, n.Operand)
		case *FunctionCallNode:
			stack = append(stack, n.Args...)
		}
	}

	refs := make([]Position, 0, len(seen))
	for pos := range seen {
		refs = append(refs, pos)
	}
	slices.SortFunc(refs, comparePositions)
	return refs
}
