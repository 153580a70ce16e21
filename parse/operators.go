package parse

import (
	"math"
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// Operator precedence levels, highest binding first: named constants,
// then exponentiation, multiplicative, additive, comparison, and the
// boolean keywords.
const (
	precedenceOr             = 1
	precedenceAnd            = 2
	precedenceNot            = 3
	precedenceComparison     = 4
	precedenceAdditive       = 5
	precedenceMultiplicative = 6
	precedencePower          = 7
	precedenceConstant       = 8
)

const operatorChars = "+-*/%=!<>"

// Operator applies a function to its neighboring operands. Arity zero
// operators are constants, arity one operators consume the value to
// their right.
type Operator struct {
	name       string
	precedence int
	arity      int
	fn         func(args ...interface{}) (interface{}, error)
}

func (op *Operator) String() string { return op.name }

func (op *Operator) apply(args ...interface{}) (interface{}, error) {
	value, err := op.fn(args...)
	return value, errors.Wrapf(err, "problem applying operator '%s'", op.name)
}

var operatorTable = map[string]*Operator{
	"or":  {name: "or", precedence: precedenceOr, arity: 2, fn: logicalOr},
	"and": {name: "and", precedence: precedenceAnd, arity: 2, fn: logicalAnd},
	"not": {name: "not", precedence: precedenceNot, arity: 1, fn: logicalNot},

	"==": {name: "==", precedence: precedenceComparison, arity: 2, fn: equal},
	"!=": {name: "!=", precedence: precedenceComparison, arity: 2, fn: notEqual},
	">":  {name: ">", precedence: precedenceComparison, arity: 2, fn: compare(">")},
	">=": {name: ">=", precedence: precedenceComparison, arity: 2, fn: compare(">=")},
	"<":  {name: "<", precedence: precedenceComparison, arity: 2, fn: compare("<")},
	"<=": {name: "<=", precedence: precedenceComparison, arity: 2, fn: compare("<=")},
	"in": {name: "in", precedence: precedenceComparison, arity: 2, fn: membership},

	"+":  {name: "+", precedence: precedenceAdditive, arity: 2, fn: add},
	"-":  {name: "-", precedence: precedenceAdditive, arity: 2, fn: arithmetic("-")},
	"*":  {name: "*", precedence: precedenceMultiplicative, arity: 2, fn: arithmetic("*")},
	"/":  {name: "/", precedence: precedenceMultiplicative, arity: 2, fn: arithmetic("/")},
	"//": {name: "//", precedence: precedenceMultiplicative, arity: 2, fn: arithmetic("//")},
	"%":  {name: "%", precedence: precedenceMultiplicative, arity: 2, fn: arithmetic("%")},
	"**": {name: "**", precedence: precedencePower, arity: 2, fn: arithmetic("**")},

	"pi": {name: "pi", precedence: precedenceConstant, arity: 0, fn: func(...interface{}) (interface{}, error) {
		return math.Pi, nil
	}},
}

func lookupOperator(name string) (*Operator, bool) {
	op, ok := operatorTable[name]
	return op, ok
}

// couldBeOperator reports whether text is a prefix of any symbolic
// operator, which drives the lexer's maximal munch.
func couldBeOperator(text string) bool {
	for name := range operatorTable {
		if strings.HasPrefix(name, text) {
			return true
		}
	}
	return false
}

// Truth reports the truthiness of a value: nil, false, numeric zero,
// and empty strings, slices, and maps are false; everything else is
// true.
func Truth(value interface{}) bool {
	if value == nil {
		return false
	}

	switch v := value.(type) {
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}

	return true
}

func logicalOr(args ...interface{}) (interface{}, error) {
	return Truth(args[0]) || Truth(args[1]), nil
}

func logicalAnd(args ...interface{}) (interface{}, error) {
	return Truth(args[0]) && Truth(args[1]), nil
}

func logicalNot(args ...interface{}) (interface{}, error) {
	return !Truth(args[0]), nil
}

func equal(args ...interface{}) (interface{}, error) {
	return valuesEqual(args[0], args[1]), nil
}

func notEqual(args ...interface{}) (interface{}, error) {
	return !valuesEqual(args[0], args[1]), nil
}

func valuesEqual(left, right interface{}) bool {
	leftNum, leftOK := toFloat(left)
	rightNum, rightOK := toFloat(right)
	if leftOK && rightOK {
		return leftNum == rightNum
	}

	return reflect.DeepEqual(left, right)
}

// compare builds an ordered comparison over numbers or strings.
func compare(name string) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		var cmp int

		leftNum, leftOK := toFloat(args[0])
		rightNum, rightOK := toFloat(args[1])

		switch {
		case leftOK && rightOK:
			switch {
			case leftNum < rightNum:
				cmp = -1
			case leftNum > rightNum:
				cmp = 1
			}
		default:
			leftStr, leftOK := args[0].(string)
			rightStr, rightOK := args[1].(string)
			if !leftOK || !rightOK {
				return nil, errors.Errorf("cannot order %T and %T", args[0], args[1])
			}
			cmp = strings.Compare(leftStr, rightStr)
		}

		switch name {
		case ">":
			return cmp > 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<":
			return cmp < 0, nil
		case "<=":
			return cmp <= 0, nil
		}

		return nil, errors.Errorf("unknown comparison '%s'", name)
	}
}

// membership implements the in operator: substring tests for strings,
// element tests for slices and arrays, and key tests for maps.
func membership(args ...interface{}) (interface{}, error) {
	needle, haystack := args[0], args[1]

	if text, ok := haystack.(string); ok {
		sub, ok := needle.(string)
		if !ok {
			return nil, errors.Errorf("cannot search for %T in a string", needle)
		}
		return strings.Contains(text, sub), nil
	}

	rv := reflect.ValueOf(haystack)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for idx := 0; idx < rv.Len(); idx++ {
			if valuesEqual(needle, rv.Index(idx).Interface()) {
				return true, nil
			}
		}
		return false, nil
	case reflect.Map:
		for _, key := range rv.MapKeys() {
			if valuesEqual(needle, key.Interface()) {
				return true, nil
			}
		}
		return false, nil
	}

	return nil, errors.Errorf("cannot test membership in %T", haystack)
}

// add concatenates strings and falls back to numeric addition.
func add(args ...interface{}) (interface{}, error) {
	leftStr, leftOK := args[0].(string)
	rightStr, rightOK := args[1].(string)
	if leftOK && rightOK {
		return leftStr + rightStr, nil
	}

	return arithmetic("+")(args...)
}

func arithmetic(name string) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		leftInt, leftIsInt := toInt(args[0])
		rightInt, rightIsInt := toInt(args[1])

		if leftIsInt && rightIsInt {
			if value, done, err := intArithmetic(name, leftInt, rightInt); done {
				return value, err
			}
		}

		left, ok := toFloat(args[0])
		if !ok {
			return nil, errors.Errorf("%T is not numeric", args[0])
		}
		right, ok := toFloat(args[1])
		if !ok {
			return nil, errors.Errorf("%T is not numeric", args[1])
		}

		switch name {
		case "+":
			return left + right, nil
		case "-":
			return left - right, nil
		case "*":
			return left * right, nil
		case "/":
			if right == 0 {
				return nil, errors.New("division by zero")
			}
			return left / right, nil
		case "//":
			if right == 0 {
				return nil, errors.New("division by zero")
			}
			return math.Floor(left / right), nil
		case "%":
			if right == 0 {
				return nil, errors.New("division by zero")
			}
			remainder := math.Mod(left, right)
			if remainder != 0 && (remainder < 0) != (right < 0) {
				remainder += right
			}
			return remainder, nil
		case "**":
			return math.Pow(left, right), nil
		}

		return nil, errors.Errorf("unknown operator '%s'", name)
	}
}

// intArithmetic keeps integer operands integral where the operation
// allows it. True division always produces a float.
func intArithmetic(name string, left, right int) (interface{}, bool, error) {
	switch name {
	case "+":
		return left + right, true, nil
	case "-":
		return left - right, true, nil
	case "*":
		return left * right, true, nil
	case "//":
		if right == 0 {
			return nil, true, errors.New("division by zero")
		}
		quotient := left / right
		if (left%right != 0) && ((left < 0) != (right < 0)) {
			quotient--
		}
		return quotient, true, nil
	case "%":
		if right == 0 {
			return nil, true, errors.New("division by zero")
		}
		remainder := left % right
		if remainder != 0 && ((left < 0) != (right < 0)) {
			remainder += right
		}
		return remainder, true, nil
	case "**":
		if right >= 0 {
			result := 1
			for i := 0; i < right; i++ {
				result *= left
			}
			return result, true, nil
		}
	}

	return nil, false, nil
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	}
	return 0, false
}
