package parse

import (
	"sort"

	"github.com/pkg/errors"
)

// reduce evaluates a multi-element expression by repeatedly folding
// the highest-precedence operator with its neighboring operands, the
// way the expression would read with full parenthesization. Operands
// are resolved against the context before any folding happens.
func reduce(expr *Expression, ctx Context) (interface{}, error) {
	evaluated := make([]interface{}, 0, len(expr.items))
	for _, item := range expr.items {
		if ev, ok := item.(Evaluatable); ok {
			value, err := ev.Evaluate(ctx)
			if err != nil {
				return nil, err
			}
			evaluated = append(evaluated, value)
			continue
		}

		evaluated = append(evaluated, item)
	}

	matches := []operatorMatch{}
	for index, item := range evaluated {
		if op, ok := item.(*Operator); ok {
			matches = append(matches, operatorMatch{index: index, op: op})
		}
	}

	// Equal precedence folds left to right, so the sort must be
	// stable.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].op.precedence > matches[j].op.precedence
	})

	for _, match := range matches {
		index, op := match.index, match.op

		switch op.arity {
		case 0:
			value, err := op.apply()
			if err != nil {
				return nil, err
			}
			evaluated[index] = value
		case 1:
			if index+1 >= len(evaluated) {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its operand", op.name)
			}
			if _, isOp := evaluated[index+1].(*Operator); isOp {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its operand", op.name)
			}

			value, err := op.apply(evaluated[index+1])
			if err != nil {
				return nil, err
			}

			evaluated[index] = value
			evaluated = append(evaluated[:index+1], evaluated[index+2:]...)
			shiftMatches(matches, index+1, 1)
		case 2:
			if index-1 < 0 {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its left operand", op.name)
			}
			if index+1 >= len(evaluated) {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its right operand", op.name)
			}
			if _, isOp := evaluated[index-1].(*Operator); isOp {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its left operand", op.name)
			}
			if _, isOp := evaluated[index+1].(*Operator); isOp {
				return nil, errors.Wrapf(ErrSyntax, "operator '%s' is missing its right operand", op.name)
			}

			value, err := op.apply(evaluated[index-1], evaluated[index+1])
			if err != nil {
				return nil, err
			}

			evaluated[index-1] = value
			evaluated = append(evaluated[:index], evaluated[index+2:]...)
			shiftMatches(matches, index, 2)
		default:
			return nil, errors.Wrapf(ErrSyntax, "unsupported operator '%s'", op.name)
		}
	}

	if len(evaluated) != 1 {
		return nil, errors.Wrapf(ErrSyntax, "expression evaluated to %d values", len(evaluated))
	}

	return evaluated[0], nil
}

type operatorMatch struct {
	index int
	op    *Operator
}

// shiftMatches adjusts the recorded positions of pending operators
// after removed elements collapsed out of the expression at from.
func shiftMatches(matches []operatorMatch, from, removed int) {
	for idx := range matches {
		if matches[idx].index >= from {
			matches[idx].index -= removed
		}
	}
}
