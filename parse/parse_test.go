package parse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext() Context {
	return Context{
		"a": 1,
		"b": 2,
		"c": 3,
		"d": 4,
		"e": map[string]interface{}{
			"f": map[string]interface{}{
				"g": map[string]interface{}{
					"h": 5,
				},
			},
		},
		"name":  "world",
		"items": []interface{}{"x", "y", "z"},
		"flags": map[string]interface{}{"on": true},
		"owed":  -7,
		"debt":  -7.5,
	}
}

func TestEvaluate(t *testing.T) {
	for name, test := range map[string]struct {
		input    string
		expected interface{}
	}{
		"EmptyExpression":      {input: "", expected: nil},
		"IntLiteral":           {input: "42", expected: 42},
		"FloatLiteral":         {input: "4.5", expected: 4.5},
		"SingleQuotedString":   {input: "'hello'", expected: "hello"},
		"DoubleQuotedString":   {input: `"hello"`, expected: "hello"},
		"EscapedQuote":         {input: `'it\'s'`, expected: "it's"},
		"TrueLiteral":          {input: "true", expected: true},
		"FalseLiteral":         {input: "false", expected: false},
		"NoneLiteral":          {input: "none", expected: nil},
		"NilLiteral":           {input: "nil", expected: nil},
		"Identifier":           {input: "a", expected: 1},
		"MissingIdentifier":    {input: "missing", expected: nil},
		"DottedIdentifier":     {input: "e.f.g.h", expected: 5},
		"BrokenDottedPath":     {input: "a.b.c", expected: nil},
		"Addition":             {input: "1 + 2", expected: 3},
		"StringConcatenation":  {input: "'foo' + 'bar'", expected: "foobar"},
		"Subtraction":          {input: "b - a", expected: 1},
		"Multiplication":       {input: "3 * 4", expected: 12},
		"TrueDivisionIsFloat":  {input: "3 / 2", expected: 1.5},
		"FloorDivision":        {input: "7 // 2", expected: 3},
		"FloorDivisionNegative": {input: "0 - 7 // 2", expected: -3},
		"Modulo":               {input: "7 % 3", expected: 1},
		"ModuloNegative":       {input: "owed % 3", expected: 2},
		"FloatModuloNegative":  {input: "debt % 2", expected: 0.5},
		"Power":                {input: "2 ** 10", expected: 1024},
		"FloatArithmetic":      {input: "1.5 + 1", expected: 2.5},
		"Precedence":           {input: "1 + 2 * 3", expected: 7},
		"PrecedencePower":      {input: "2 * 3 ** 2", expected: 18},
		"LeftToRight":          {input: "10 - 2 - 3", expected: 5},
		"Equality":             {input: "a == 1", expected: true},
		"EqualityAcrossTypes":  {input: "1 == 1.0", expected: true},
		"Inequality":           {input: "a != b", expected: true},
		"GreaterThan":          {input: "b > a", expected: true},
		"GreaterOrEqual":       {input: "b >= 2", expected: true},
		"LessThan":             {input: "a < 0.5", expected: false},
		"LessOrEqual":          {input: "a <= 1", expected: true},
		"StringComparison":     {input: "'abc' < 'abd'", expected: true},
		"SubstringMembership":  {input: "'orl' in name", expected: true},
		"SliceMembership":      {input: "'y' in items", expected: true},
		"SliceNonMembership":   {input: "'q' in items", expected: false},
		"MapKeyMembership":     {input: "'on' in flags", expected: true},
		"And":                  {input: "a == 1 and b == 2", expected: true},
		"AndShortCircuitValue": {input: "true and false", expected: false},
		"Or":                   {input: "a == 5 or b == 2", expected: true},
		"Not":                  {input: "not a == 5", expected: true},
		"NotTruthiness":        {input: "not ''", expected: true},
		"BooleanPrecedence":    {input: "true or false and false", expected: true},
		"PiConstant":           {input: "pi", expected: math.Pi},
		"PiComparison":         {input: "pi == pi", expected: true},
		"ComparisonOfConstant": {input: "pi > 3", expected: true},
	} {
		t.Run(name, func(t *testing.T) {
			value, err := Evaluate(testContext(), test.input)
			require.NoError(t, err)
			assert.Equal(t, test.expected, value)
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	for name, input := range map[string]string{
		"UnterminatedString":    "'hello",
		"UnknownOperator":       "1 = 2",
		"UnexpectedCharacter":   "a ? b",
		"MissingLeftOperand":    "+ 1",
		"MissingRightOperand":   "1 +",
		"AdjacentOperands":      "1 2",
		"LoneBinaryOperator":    "+",
		"DivisionByZero":        "1 / 0",
		"FloorDivisionByZero":   "1 // 0",
		"ModuloByZero":          "1 % 0",
		"OrderingMixedTypes":    "'a' > 1",
		"ArithmeticOnStrings":   "'a' - 'b'",
		"MembershipInNumber":    "1 in 2",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Evaluate(testContext(), input)
			assert.Error(t, err)
		})
	}

	t.Run("SyntaxErrorsWrapErrSyntax", func(t *testing.T) {
		_, err := Evaluate(testContext(), "1 +")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSyntax)
	})
}

func TestToExpression(t *testing.T) {
	t.Run("LexesMaximalOperators", func(t *testing.T) {
		expr, err := ToExpression("a ** b // c")
		require.NoError(t, err)
		assert.Equal(t, 5, expr.Len())
	})
	t.Run("KeywordsAreNotIdentifiers", func(t *testing.T) {
		value, err := Evaluate(Context{"android": "robot"}, "android")
		require.NoError(t, err)
		assert.Equal(t, "robot", value)
	})
	t.Run("WhitespaceInsensitive", func(t *testing.T) {
		value, err := Evaluate(testContext(), "  a==1  ")
		require.NoError(t, err)
		assert.Equal(t, true, value)
	})
}
