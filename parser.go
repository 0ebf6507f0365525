package gridcore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// operator precedences used by the parser and the canonical printer
const (
	precedenceAdditive = iota + 1
	precedenceMultiplicative
	precedencePower
	precedenceUnary
	precedencePercent
	precedenceAtom
)

// ASTNode is a parsed formula expression. nodes evaluate to a number or fail
// with a FormulaError, and print themselves back in canonical form
type ASTNode interface {
	Eval(lookup func(Position) Value) (float64, error)
	ToString() string
	precedence() int
}

// Parser parses tokens into an AST
type Parser struct {
	tokens []Token
	pos    int
}

// NumberNode represents a numeric literal
type NumberNode struct {
	Value float64
}

func (n *NumberNode) Eval(func(Position) Value) (float64, error) {
	return n.Value, nil
}

func (n *NumberNode) ToString() string {
	return formatNumber(n.Value)
}

func (n *NumberNode) precedence() int { return precedenceAtom }

// CellRefNode represents a reference to a single cell. a reference that is
// well formed but outside the grid keeps its source text and evaluates to
// #REF!
type CellRefNode struct {
	Pos Position
	Raw string
}

func (n *CellRefNode) Eval(lookup func(Position) Value) (float64, error) {
	if !n.Pos.IsValid() {
		return 0, NewFormulaError(ErrorCategoryRef)
	}
	return toNumber(lookup(n.Pos))
}

func (n *CellRefNode) ToString() string {
	if !n.Pos.IsValid() {
		return n.Raw
	}
	return n.Pos.String()
}

func (n *CellRefNode) precedence() int { return precedenceAtom }

// RangeNode represents a rectangular block of cells. it is only accepted as
// a direct argument of an aggregate function
type RangeNode struct {
	Range Range
	Raw   string
}

// Eval is reached only if a range ends up in scalar position
func (n *RangeNode) Eval(func(Position) Value) (float64, error) {
	if !n.Range.IsValid() {
		return 0, NewFormulaError(ErrorCategoryRef)
	}
	return 0, NewFormulaError(ErrorCategoryValue)
}

// Values resolves every cell of the range, stopping at the first error
func (n *RangeNode) Values(lookup func(Position) Value) ([]float64, error) {
	if !n.Range.IsValid() {
		return nil, NewFormulaError(ErrorCategoryRef)
	}
	values := make([]float64, 0, n.Range.CellCount())
	for pos := range n.Range.Cells() {
		num, err := toNumber(lookup(pos))
		if err != nil {
			return nil, err
		}
		values = append(values, num)
	}
	return values, nil
}

func (n *RangeNode) ToString() string {
	if !n.Range.IsValid() {
		return n.Raw
	}
	return n.Range.String()
}

func (n *RangeNode) precedence() int { return precedenceAtom }

// BinaryOpNode represents a binary operation
type BinaryOpNode struct {
	Op    BinaryOp
	Left  ASTNode
	Right ASTNode
}

func (n *BinaryOpNode) Eval(lookup func(Position) Value) (float64, error) {
	left, err := n.Left.Eval(lookup)
	if err != nil {
		return 0, err
	}
	right, err := n.Right.Eval(lookup)
	if err != nil {
		return 0, err
	}

	var result float64
	switch n.Op {
	case BinOpAdd:
		result = left + right
	case BinOpSubtract:
		result = left - right
	case BinOpMultiply:
		result = left * right
	case BinOpDivide:
		if right == 0 {
			return 0, NewFormulaError(ErrorCategoryArithmetic)
		}
		result = left / right
	case BinOpPower:
		result = math.Pow(left, right)
	default:
		return 0, NewFormulaError(ErrorCategoryValue)
	}
	return checkFinite(result)
}

func (n *BinaryOpNode) ToString() string {
	prec := n.precedence()

	left := n.Left.ToString()
	if lp := n.Left.precedence(); lp < prec || (n.Op == BinOpPower && lp == prec) {
		left = "(" + left + ")"
	}

	// a right operand of equal precedence keeps its parentheses except under
	// '^', which groups to the right
	right := n.Right.ToString()
	if rp := n.Right.precedence(); rp < prec || (rp == prec && n.Op != BinOpPower) {
		right = "(" + right + ")"
	}

	return left + string(n.symbol()) + right
}

func (n *BinaryOpNode) precedence() int {
	switch n.Op {
	case BinOpAdd, BinOpSubtract:
		return precedenceAdditive
	case BinOpMultiply, BinOpDivide:
		return precedenceMultiplicative
	default:
		return precedencePower
	}
}

func (n *BinaryOpNode) symbol() byte {
	switch n.Op {
	case BinOpAdd:
		return charPlus
	case BinOpSubtract:
		return charMinus
	case BinOpMultiply:
		return charAsterisk
	case BinOpDivide:
		return charSlash
	default:
		return charCaret
	}
}

// UnaryOpNode represents prefix negation and the postfix percent operator
type UnaryOpNode struct {
	Op      UnaryOp
	Operand ASTNode
}

func (n *UnaryOpNode) Eval(lookup func(Position) Value) (float64, error) {
	val, err := n.Operand.Eval(lookup)
	if err != nil {
		return 0, err
	}
	if n.Op == UnaryOpPercent {
		return val / 100, nil
	}
	return -val, nil
}

func (n *UnaryOpNode) ToString() string {
	operand := n.Operand.ToString()
	if n.Operand.precedence() < n.precedence() {
		operand = "(" + operand + ")"
	}
	if n.Op == UnaryOpPercent {
		return operand + string(charPercent)
	}
	return string(charMinus) + operand
}

func (n *UnaryOpNode) precedence() int {
	if n.Op == UnaryOpPercent {
		return precedencePercent
	}
	return precedenceUnary
}

// FunctionCallNode represents a call to a built-in function
type FunctionCallNode struct {
	Name string
	Args []ASTNode
}

func (n *FunctionCallNode) Eval(lookup func(Position) Value) (float64, error) {
	args := make([]any, 0, len(n.Args))
	for _, arg := range n.Args {
		if r, ok := arg.(*RangeNode); ok {
			values, err := r.Values(lookup)
			if err != nil {
				return 0, err
			}
			args = append(args, values)
			continue
		}
		val, err := arg.Eval(lookup)
		if err != nil {
			return 0, err
		}
		args = append(args, val)
	}

	result, err := builtins.Call(n.Name, args...)
	if err != nil {
		return 0, err
	}
	return checkFinite(result)
}

func (n *FunctionCallNode) ToString() string {
	var sb strings.Builder
	sb.WriteString(n.Name)
	sb.WriteByte(charLParen)
	for i, arg := range n.Args {
		if i > 0 {
			sb.WriteByte(charComma)
		}
		sb.WriteString(arg.ToString())
	}
	sb.WriteByte(charRParen)
	return sb.String()
}

func (n *FunctionCallNode) precedence() int { return precedenceAtom }

// NewParser creates a parser over a token stream produced by the Lexer
func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse parses the whole token stream into a single expression
func (p *Parser) Parse() (ASTNode, error) {
	if len(p.tokens) == 0 || p.tokens[0].Type == TokenEOF {
		return nil, syntaxError("empty expression")
	}

	node, err := p.parseAddition()
	if err != nil {
		return nil, err
	}

	if tok := p.peek(); tok.Type != TokenEOF {
		return nil, syntaxError(fmt.Sprintf("unexpected %s %q after expression", tok.Type, tok.Value))
	}

	return node, nil
}

func (p *Parser) peek() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF, Pos: len(p.tokens)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) parseAddition() (ASTNode, error) {
	left, err := p.parseMultiplication()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp {
			return left, nil
		}

		var op BinaryOp
		switch tok.Value {
		case "+":
			op = BinOpAdd
		case "-":
			op = BinOpSubtract
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parseMultiplication()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseMultiplication() (ASTNode, error) {
	left, err := p.parsePower()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		if tok.Type != TokenBinaryOp {
			return left, nil
		}

		var op BinaryOp
		switch tok.Value {
		case "*":
			op = BinOpMultiply
		case "/":
			op = BinOpDivide
		default:
			return left, nil
		}

		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}

		left = &BinaryOpNode{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parsePower() (ASTNode, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	// right-associative
	if tok := p.peek(); tok.Type == TokenBinaryOp && tok.Value == "^" {
		p.pos++
		right, err := p.parsePower()
		if err != nil {
			return nil, err
		}
		return &BinaryOpNode{Op: BinOpPower, Left: left, Right: right}, nil
	}

	return left, nil
}

func (p *Parser) parseUnary() (ASTNode, error) {
	tok := p.peek()
	if tok.Type == TokenUnaryPrefixOp {
		if tok.Value != "-" {
			return nil, syntaxError(fmt.Sprintf("unexpected prefix operator %q", tok.Value))
		}
		p.pos++
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOpNode{Op: UnaryOpMinus, Operand: operand}, nil
	}

	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (ASTNode, error) {
	node, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for p.peek().Type == TokenUnaryPostfixOp {
		p.pos++
		node = &UnaryOpNode{Op: UnaryOpPercent, Operand: node}
	}

	return node, nil
}

func (p *Parser) parsePrimary() (ASTNode, error) {
	tok := p.peek()

	switch tok.Type {
	case TokenNumber:
		p.pos++
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil || math.IsInf(val, 0) {
			return nil, syntaxError(fmt.Sprintf("invalid number %q", tok.Value))
		}
		return &NumberNode{Value: val}, nil

	case TokenCell:
		p.pos++
		return parseCellReference(tok.Value)

	case TokenRange:
		return nil, syntaxError(fmt.Sprintf("range %s is only allowed as a function argument", tok.Value))

	case TokenFunction:
		return p.parseFunctionCall()

	case TokenLeftParen:
		p.pos++
		node, err := p.parseAddition()
		if err != nil {
			return nil, err
		}
		if p.peek().Type != TokenRightParen {
			return nil, syntaxError("expected closing parenthesis")
		}
		p.pos++
		return node, nil

	case TokenEOF:
		return nil, syntaxError("unexpected end of expression")

	default:
		return nil, syntaxError(fmt.Sprintf("unexpected %s %q", tok.Type, tok.Value))
	}
}

func (p *Parser) parseFunctionCall() (ASTNode, error) {
	funcTok := p.peek()
	name := strings.ToUpper(funcTok.Value)
	arity, ok := builtinArity[name]
	if !ok {
		return nil, syntaxError(fmt.Sprintf("unknown function %s", funcTok.Value))
	}
	p.pos++

	args := []ASTNode{}
	if p.peek().Type == TokenRightParen {
		p.pos++
	} else {
		for {
			arg, err := p.parseArgument(name, arity)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)

			tok := p.peek()
			if tok.Type == TokenRightParen {
				p.pos++
				break
			}
			if tok.Type != TokenComma {
				return nil, syntaxError(fmt.Sprintf("expected ',' or ')' in arguments of %s", name))
			}
			p.pos++
		}
	}

	if len(args) < arity.min || (arity.max >= 0 && len(args) > arity.max) {
		return nil, syntaxError(fmt.Sprintf("wrong number of arguments to %s: %d", name, len(args)))
	}

	return &FunctionCallNode{Name: name, Args: args}, nil
}

// parseArgument parses one function argument. a bare range is only taken as
// a range when it makes up the whole argument
func (p *Parser) parseArgument(name string, arity functionArity) (ASTNode, error) {
	tok := p.peek()
	if tok.Type == TokenRange && p.pos+1 < len(p.tokens) {
		if next := p.tokens[p.pos+1].Type; next == TokenComma || next == TokenRightParen {
			if !arity.ranges {
				return nil, syntaxError(fmt.Sprintf("%s does not accept ranges", name))
			}
			p.pos++
			return parseRangeReference(tok.Value)
		}
	}
	return p.parseAddition()
}

// parseCellReference decodes an A1 reference. text that is not shaped like
// a reference is a syntax error; a reference past the grid limits is kept
// and evaluates to #REF!
func parseCellReference(text string) (ASTNode, error) {
	pos, ok := splitCellAddress(text)
	if !ok {
		return nil, syntaxError(fmt.Sprintf("invalid cell reference %q", text))
	}
	return &CellRefNode{Pos: pos, Raw: text}, nil
}

func parseRangeReference(text string) (ASTNode, error) {
	parts := strings.Split(text, string(charColon))
	if len(parts) != 2 {
		return nil, syntaxError(fmt.Sprintf("invalid range %q", text))
	}
	start, ok := splitCellAddress(parts[0])
	if !ok {
		return nil, syntaxError(fmt.Sprintf("invalid range %q", text))
	}
	end, ok := splitCellAddress(parts[1])
	if !ok {
		return nil, syntaxError(fmt.Sprintf("invalid range %q", text))
	}

	r := NewRange(start, end)
	if r.IsValid() && r.CellCount() > MaxRangeCells {
		return nil, syntaxError(fmt.Sprintf("range %s exceeds %d cells", text, MaxRangeCells))
	}
	return &RangeNode{Range: r, Raw: text}, nil
}

// toNumber coerces a referenced cell value to a number. empty cells read as
// zero and text converts only when it consists of digits alone
func toNumber(value Value) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case FormulaError:
		return 0, v
	case string:
		if !isDigits(v) {
			return 0, NewFormulaError(ErrorCategoryValue)
		}
		num, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, NewFormulaError(ErrorCategoryValue)
		}
		return checkFinite(num)
	default:
		return 0, NewFormulaError(ErrorCategoryValue)
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func checkFinite(v float64) (float64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, NewFormulaError(ErrorCategoryArithmetic)
	}
	return v, nil
}

// formatNumber prints a number in the shortest form that parses back to the
// same float64
func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	if abs := math.Abs(v); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'G', -1, 64)
}
