package gridcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(values map[string]Value) func(Position) Value {
	return func(pos Position) Value {
		return values[pos.String()]
	}
}

func TestLexer(t *testing.T) {
	tokens, err := NewLexer("SUM(A1:B2, 3) * -C4%").Tokenize()
	require.NoError(t, err)

	types := make([]TokenType, 0, len(tokens))
	for _, tok := range tokens {
		types = append(types, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenFunction, TokenRange, TokenComma, TokenNumber, TokenRightParen,
		TokenBinaryOp, TokenUnaryPrefixOp, TokenCell, TokenUnaryPostfixOp, TokenEOF,
	}, types)
	assert.Equal(t, "SUM", tokens[0].Value)
	assert.Equal(t, "A1:B2", tokens[1].Value)
	assert.Equal(t, "C4", tokens[7].Value)
}

func TestParserValidFormulas(t *testing.T) {
	validFormulas := []string{
		"1+2",
		"A1",
		"SUM(A1:A10)",
		"SUM(B2:A1)",
		"SUM(A1:A1)",
		"SUM(A1,B1,3)",
		"average(A1:C3)",
		"-A1",
		"+A1",
		"--1",
		"50%",
		"2^3^2",
		"((1))",
		"1.5E-10",
		".5",
		"XFE1",
		"ROUND(A1/3, 2)",
	}

	for _, formula := range validFormulas {
		t.Run(formula, func(t *testing.T) {
			_, err := ParseFormula(formula)
			assert.NoError(t, err)
		})
	}
}

func TestParserInvalidFormulas(t *testing.T) {
	invalidFormulas := []string{
		"",
		" ",
		"1+",
		"*1",
		"(1",
		"1)",
		"SUM(",
		"SUM()",
		"FOO(1)",
		"ABS(1,2)",
		"ABS(A1:A2)",
		"SUM(A1:B2+1)",
		"A1:B2",
		"A1:",
		"A1:B2:C3",
		"SUM(A1:Z10000)",
		`"hello"`,
		"TRUE",
		"1=1",
		"1<2",
		"1&2",
		"#REF!",
		"a1",
		"$A$1",
		"Sheet1!A1",
		"A1 B1",
		"1,2",
		"{1,2}",
		"A0",
		"INF",
		"1.2.3",
		"=1",
	}

	for _, formula := range invalidFormulas {
		t.Run(formula, func(t *testing.T) {
			_, err := ParseFormula(formula)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormulaSyntax)
		})
	}
}

func TestCanonicalExpression(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"1 + 2 * 3", "1+2*3"},
		{"(1+2)*3", "(1+2)*3"},
		{"1-(2-3)", "1-(2-3)"},
		{"1-(2+3)", "1-(2+3)"},
		{"(1-2)-3", "1-2-3"},
		{"(1+2)+3", "1+2+3"},
		{"1+(2+3)", "1+(2+3)"},
		{"2*(3/4)", "2*(3/4)"},
		{"(2*3)/4", "2*3/4"},
		{"A1*(B1*C1)", "A1*(B1*C1)"},
		{"2/(3*4)", "2/(3*4)"},
		{"2^3^2", "2^3^2"},
		{"(2^3)^2", "(2^3)^2"},
		{"2^(3^2)", "2^3^2"},
		{"-(1+2)", "-(1+2)"},
		{"-2^2", "-2^2"},
		{"2^-1", "2^-1"},
		{"+1", "1"},
		{"--1", "--1"},
		{"(1+2)%", "(1+2)%"},
		{"-(2%)", "-2%"},
		{"((A1))", "A1"},
		{"A1 * 1.50", "A1*1.5"},
		{"1E3", "1000"},
		{"1.5E-10", "1.5E-10"},
		{"sum(B2:A1, 1)", "SUM(A1:B2,1)"},
		{"MAX( A1 , (B1) )", "MAX(A1,B1)"},
		{"XFE1+1", "XFE1+1"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			f, err := ParseFormula(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f.Expression())

			// re-printing is a fixpoint
			again, err := ParseFormula(f.Expression())
			require.NoError(t, err)
			assert.Equal(t, f.Expression(), again.Expression())
		})
	}
}

func TestExpressionKeepsGrouping(t *testing.T) {
	// regrouping would overflow: 1E+308*10 is not finite
	f, err := ParseFormula("1e308*(10/10)")
	require.NoError(t, err)
	assert.Equal(t, "1E+308*(10/10)", f.Expression())

	again, err := ParseFormula(f.Expression())
	require.NoError(t, err)

	lookup := lookupFrom(nil)
	assert.Equal(t, 1e308, f.Evaluate(lookup))
	assert.Equal(t, f.Evaluate(lookup), again.Evaluate(lookup))
}

func TestReferencedCells(t *testing.T) {
	cases := []struct {
		formula  string
		expected []string
	}{
		{"1+2", nil},
		{"A1+A1+B2", []string{"A1", "B2"}},
		{"B2+A1", []string{"A1", "B2"}},
		{"SUM(A1:B2)", []string{"A1", "B1", "A2", "B2"}},
		{"SUM(A1:A2, A2, C1)", []string{"A1", "C1", "A2"}},
		{"XFE1+A1", []string{"A1"}},
		{"SUM(A1:XFE1)", nil},
	}

	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			f, err := ParseFormula(tc.formula)
			require.NoError(t, err)

			want := make([]Position, 0, len(tc.expected))
			for _, e := range tc.expected {
				want = append(want, MustParsePosition(e))
			}
			assert.Equal(t, want, f.ReferencedCells())
		})
	}
}

func TestEvaluate(t *testing.T) {
	values := map[string]Value{
		"A1": 2.0,
		"A2": 3.0,
		"A3": "4",
		"A4": "four",
		"A5": NewFormulaError(ErrorCategoryRef),
		"B1": -9.0,
	}

	cases := []struct {
		formula  string
		expected Value
	}{
		{"1+2*3", 7.0},
		{"10/4", 2.5},
		{"2^10", 1024.0},
		{"-2^2", 4.0},
		{"50%", 0.5},
		{"A1*A2", 6.0},
		{"A3+1", 5.0},
		{"Z9+1", 1.0},
		{"A4+1", NewFormulaError(ErrorCategoryValue)},
		{"A5*0", NewFormulaError(ErrorCategoryRef)},
		{"1/0", NewFormulaError(ErrorCategoryArithmetic)},
		{"1/(A1-2)", NewFormulaError(ErrorCategoryArithmetic)},
		{"XFE1", NewFormulaError(ErrorCategoryRef)},
		{"SUM(A1:A3)", 9.0},
		{"SUM(A1:A4)", NewFormulaError(ErrorCategoryValue)},
		{"SUM(A1:XFE1)", NewFormulaError(ErrorCategoryRef)},
		{"AVERAGE(A1:A3, 3)", 3.0},
		{"MIN(A1:A2, B1)", -9.0},
		{"MAX(A1, A2, B1)", 3.0},
		{"ABS(B1)", 9.0},
		{"ROUND(2.567, 2)", 2.57},
		{"ROUND(2.5)", 3.0},
		{"ROUND(1234, -2)", 1200.0},
		{"SQRT(16)", 4.0},
		{"SQRT(B1)", NewFormulaError(ErrorCategoryArithmetic)},
		{"POWER(A1, 3)", 8.0},
		{"MOD(7, 3)", 1.0},
		{"MOD(-7, 3)", 2.0},
		{"MOD(7, 0)", NewFormulaError(ErrorCategoryArithmetic)},
	}

	lookup := lookupFrom(values)
	for _, tc := range cases {
		t.Run(tc.formula, func(t *testing.T) {
			f, err := ParseFormula(tc.formula)
			require.NoError(t, err)

			got := f.Evaluate(lookup)
			if want, ok := tc.expected.(float64); ok {
				num, isNum := got.(float64)
				require.True(t, isNum, "got %v", got)
				assert.InDelta(t, want, num, 1e-9)
				return
			}
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	cases := map[float64]string{
		0:        "0",
		3:        "3",
		-3:       "-3",
		1.5:      "1.5",
		0.1:      "0.1",
		1e15:     "1000000000000000",
		1e21:     "1E+21",
		1.5e-10:  "1.5E-10",
		123.4567: "123.4567",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumber(in), "%v", in)
	}
}
