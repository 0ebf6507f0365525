package gridcore

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/efp"
)

// TokenType represents different types of tokens in formulas
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenCell
	TokenRange
	TokenFunction
	TokenUnaryPrefixOp
	TokenUnaryPostfixOp
	TokenBinaryOp
	TokenComma
	TokenLeftParen
	TokenRightParen
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenNumber:
		return "number"
	case TokenCell:
		return "cell"
	case TokenRange:
		return "range"
	case TokenFunction:
		return "function"
	case TokenUnaryPrefixOp:
		return "prefix operator"
	case TokenUnaryPostfixOp:
		return "postfix operator"
	case TokenBinaryOp:
		return "operator"
	case TokenComma:
		return "comma"
	case TokenLeftParen:
		return "("
	case TokenRightParen:
		return ")"
	default:
		return "unknown"
	}
}

// BinaryOp represents binary operators in AST nodes
type BinaryOp int

const (
	BinOpAdd BinaryOp = iota
	BinOpSubtract
	BinOpMultiply
	BinOpDivide
	BinOpPower
)

// UnaryOp represents unary operators in AST nodes
type UnaryOp int

const (
	UnaryOpMinus UnaryOp = iota
	UnaryOpPercent
)

// operator symbols as they appear in formula text
const (
	charPlus     = '+'
	charMinus    = '-'
	charAsterisk = '*'
	charSlash    = '/'
	charCaret    = '^'
	charPercent  = '%'
	charLParen   = '('
	charRParen   = ')'
	charComma    = ','
	charColon    = ':'
)

// numberLiteral matches the decimal literals a formula may contain. the
// tokenizer classifies anything strconv.ParseFloat accepts as a number, which
// includes spellings such as "Inf" and hex floats that are not part of the
// formula language
var numberLiteral = regexp.MustCompile(`^([0-9]+\.?[0-9]*|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

// Token represents a lexical token. Pos is the index of the token in the
// stream, the tokenizer does not report character offsets
type Token struct {
	Type  TokenType
	Value string
	Pos   int
}

// Lexer turns formula text into the token stream consumed by the Parser.
// scanning is delegated to efp; the lexer narrows its output down to the
// arithmetic subset understood by the formula engine and rejects the rest
type Lexer struct {
	input  string
	tokens []Token
}

// NewLexer creates a new lexer for the given expression (without the
// leading '=')
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize returns the token stream terminated by a TokenEOF token
func (l *Lexer) Tokenize() ([]Token, error) {
	ps := efp.ExcelParser()
	// efp treats its input as a formula and emits the leading '=' as an
	// infix token; pass it explicitly so the marker is always present
	raw := ps.Parse(string(FormulaSign) + l.input)
	if len(raw) > 0 && raw[0].TType == efp.TokenTypeOperatorInfix && raw[0].TValue == string(FormulaSign) {
		raw = raw[1:]
	}

	l.tokens = make([]Token, 0, len(raw)+1)
	for _, tok := range raw {
		if tok.TType == efp.TokenTypeWhitespace {
			continue
		}
		converted, err := l.convert(tok)
		if err != nil {
			return nil, err
		}
		l.tokens = append(l.tokens, converted)
	}

	if len(l.tokens) == 0 {
		return nil, syntaxError("empty expression")
	}
	l.tokens = append(l.tokens, Token{Type: TokenEOF, Pos: len(l.tokens)})
	return l.tokens, nil
}

func (l *Lexer) convert(tok efp.Token) (Token, error) {
	next := Token{Value: tok.TValue, Pos: len(l.tokens)}

	switch tok.TType {
	case efp.TokenTypeOperand:
		switch tok.TSubType {
		case efp.TokenSubTypeNumber:
			if !numberLiteral.MatchString(tok.TValue) {
				return Token{}, syntaxError(fmt.Sprintf("invalid number %q", tok.TValue))
			}
			next.Type = TokenNumber
		case efp.TokenSubTypeRange:
			if strings.ContainsRune(tok.TValue, charColon) {
				next.Type = TokenRange
			} else {
				next.Type = TokenCell
			}
		case efp.TokenSubTypeText:
			return Token{}, syntaxError(fmt.Sprintf("string literal %q is not supported", tok.TValue))
		case efp.TokenSubTypeLogical:
			return Token{}, syntaxError(fmt.Sprintf("boolean literal %s is not supported", tok.TValue))
		case efp.TokenSubTypeError:
			return Token{}, syntaxError(fmt.Sprintf("error literal %s is not supported", tok.TValue))
		default:
			return Token{}, syntaxError(fmt.Sprintf("unexpected operand %q", tok.TValue))
		}

	case efp.TokenTypeFunction:
		if tok.TSubType == efp.TokenSubTypeStart {
			next.Type = TokenFunction
		} else {
			next.Type = TokenRightParen
			next.Value = string(charRParen)
		}

	case efp.TokenTypeSubexpression:
		if tok.TSubType == efp.TokenSubTypeStart {
			next.Type = TokenLeftParen
			next.Value = string(charLParen)
		} else {
			next.Type = TokenRightParen
			next.Value = string(charRParen)
		}

	case efp.TokenTypeArgument:
		next.Type = TokenComma

	case efp.TokenTypeOperatorPrefix:
		next.Type = TokenUnaryPrefixOp

	case efp.TokenTypeOperatorPostfix:
		next.Type = TokenUnaryPostfixOp

	case efp.TokenTypeOperatorInfix:
		if tok.TSubType != efp.TokenSubTypeMath {
			return Token{}, syntaxError(fmt.Sprintf("operator %q is not supported", tok.TValue))
		}
		next.Type = TokenBinaryOp

	default:
		return Token{}, syntaxError(fmt.Sprintf("unexpected input %q", tok.TValue))
	}

	return next, nil
}

func syntaxError(msg string) error {
	return fmt.Errorf("%w: %s", ErrFormulaSyntax, msg)
}
