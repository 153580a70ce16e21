// Package parse evaluates the expression language used by template
// tags and interpolation: literals, dotted identifiers resolved
// against a context, and arithmetic, comparison, and boolean operators
// with conventional precedence.
package parse

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Context holds the variables an expression is evaluated against.
type Context map[string]interface{}

// ErrSyntax marks malformed expressions. Errors returned from lexing
// and evaluation wrap it.
var ErrSyntax = errors.New("expression syntax error")

// Evaluatable is a parsed expression element that resolves to a value.
type Evaluatable interface {
	Evaluate(Context) (interface{}, error)
}

// Literal is a fixed value parsed from an expression.
type Literal struct {
	value interface{}
}

func (l Literal) Evaluate(Context) (interface{}, error) { return l.value, nil }

// Identifier is a dotted name resolved against the context. Each dot
// descends one level into nested mappings. Unresolved identifiers
// evaluate to nil.
type Identifier struct {
	path []string
}

func (id Identifier) Evaluate(ctx Context) (interface{}, error) {
	var node interface{} = map[string]interface{}(ctx)

	for _, key := range id.path {
		branch, ok := node.(map[string]interface{})
		if !ok {
			return nil, nil
		}

		node, ok = branch[key]
		if !ok {
			return nil, nil
		}
	}

	return node, nil
}

// Expression is a flat sequence of operators and evaluatable elements
// produced by the lexer.
type Expression struct {
	items []interface{}
}

// Len returns the number of elements in the expression.
func (e *Expression) Len() int { return len(e.items) }

// Evaluate resolves the expression to a value. Empty expressions
// evaluate to nil.
func (e *Expression) Evaluate(ctx Context) (interface{}, error) {
	if len(e.items) == 0 {
		return nil, nil
	}

	if len(e.items) == 1 {
		switch item := e.items[0].(type) {
		case Evaluatable:
			return item.Evaluate(ctx)
		case *Operator:
			if item.arity == 0 {
				return item.apply()
			}
			return nil, errors.Wrapf(ErrSyntax, "unexpected operator '%s'", item.name)
		}
	}

	return reduce(e, ctx)
}

// ToExpression lexes the given input into an expression.
func ToExpression(input string) (*Expression, error) {
	lex := &lexer{input: []rune(input)}
	return lex.run()
}

// Evaluate lexes and evaluates input against ctx in one step.
func Evaluate(ctx Context, input string) (interface{}, error) {
	expr, err := ToExpression(input)
	if err != nil {
		return nil, err
	}

	return expr.Evaluate(ctx)
}

type lexer struct {
	input []rune
	pos   int
	items []interface{}
}

func (l *lexer) run() (*Expression, error) {
	for l.pos < len(l.input) {
		char := l.input[l.pos]

		switch {
		case unicode.IsSpace(char):
			l.pos++
		case char == '\'' || char == '"':
			if err := l.lexString(char); err != nil {
				return nil, err
			}
		case unicode.IsDigit(char):
			if err := l.lexNumber(); err != nil {
				return nil, err
			}
		case isIdentStart(char):
			l.lexWord()
		case strings.ContainsRune(operatorChars, char):
			if err := l.lexOperator(); err != nil {
				return nil, err
			}
		default:
			return nil, errors.Wrapf(ErrSyntax, "unexpected character '%c' at position %d", char, l.pos)
		}
	}

	return &Expression{items: l.items}, nil
}

func (l *lexer) lexString(quote rune) error {
	start := l.pos
	l.pos++

	var sb strings.Builder
	for l.pos < len(l.input) {
		char := l.input[l.pos]

		if char == '\\' && l.pos+1 < len(l.input) {
			sb.WriteRune(l.input[l.pos+1])
			l.pos += 2
			continue
		}

		if char == quote {
			l.pos++
			l.items = append(l.items, Literal{value: sb.String()})
			return nil
		}

		sb.WriteRune(char)
		l.pos++
	}

	return errors.Wrapf(ErrSyntax, "unterminated string starting at position %d", start)
}

func (l *lexer) lexNumber() error {
	start := l.pos
	sawPoint := false

	for l.pos < len(l.input) {
		char := l.input[l.pos]
		if unicode.IsDigit(char) {
			l.pos++
			continue
		}
		if char == '.' && !sawPoint {
			sawPoint = true
			l.pos++
			continue
		}
		break
	}

	text := string(l.input[start:l.pos])

	if sawPoint {
		value, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return errors.Wrapf(ErrSyntax, "invalid number '%s' at position %d", text, start)
		}
		l.items = append(l.items, Literal{value: value})
		return nil
	}

	value, err := strconv.Atoi(text)
	if err != nil {
		return errors.Wrapf(ErrSyntax, "invalid number '%s' at position %d", text, start)
	}
	l.items = append(l.items, Literal{value: value})
	return nil
}

// lexWord consumes an identifier and reinterprets keyword operators
// (and, or, not, in), keyword literals (true, false, none, nil), and
// named constants (pi).
func (l *lexer) lexWord() {
	start := l.pos

	for l.pos < len(l.input) {
		char := l.input[l.pos]
		if isIdentStart(char) || unicode.IsDigit(char) || char == '.' {
			l.pos++
			continue
		}
		break
	}

	word := string(l.input[start:l.pos])

	if !strings.Contains(word, ".") {
		switch word {
		case "true":
			l.items = append(l.items, Literal{value: true})
			return
		case "false":
			l.items = append(l.items, Literal{value: false})
			return
		case "none", "nil":
			l.items = append(l.items, Literal{value: nil})
			return
		}

		if op, ok := lookupOperator(word); ok {
			l.items = append(l.items, op)
			return
		}
	}

	l.items = append(l.items, Identifier{path: strings.Split(word, ".")})
}

// lexOperator consumes the longest matching symbolic operator.
func (l *lexer) lexOperator() error {
	start := l.pos
	longest := ""

	for l.pos < len(l.input) && strings.ContainsRune(operatorChars, l.input[l.pos]) {
		candidate := string(l.input[start : l.pos+1])
		if !couldBeOperator(candidate) {
			break
		}
		if _, ok := lookupOperator(candidate); ok {
			longest = candidate
		}
		l.pos++
	}

	if longest == "" {
		if l.pos == start {
			l.pos++
		}
		return errors.Wrapf(ErrSyntax, "unknown operator '%s' at position %d", string(l.input[start:l.pos]), start)
	}

	l.pos = start + len(longest)
	op, _ := lookupOperator(longest)
	l.items = append(l.items, op)
	return nil
}

func isIdentStart(char rune) bool {
	return unicode.IsLetter(char) || char == '_'
}
