package rules

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Expression is a parsed node of a rule condition.
type Expression interface {
	Eval(b Bindings) any
}

// Const is a literal leaf.
type Const struct {
	Value any
}

func (c Const) Eval(Bindings) any { return c.Value }

func (c Const) String() string { return fmt.Sprintf("(const %v)", c.Value) }

// Lookup resolves Key against the bindings.
// Default is returned when the key does not resolve.
type Lookup struct {
	Key     string
	Default any
}

func (l Lookup) Eval(b Bindings) any {
	if b == nil {
		return l.Default
	}
	if v := b.Lookup(l.Key); v != nil {
		return v
	}
	return l.Default
}

func (l Lookup) String() string { return fmt.Sprintf("(lookup %q)", l.Key) }

// Apply evaluates its operands and passes the results to an operator.
type Apply struct {
	Tag      string
	Operator Operator
	Operands []Expression
}

func (a Apply) Eval(b Bindings) any {
	args := make([]any, len(a.Operands))
	for i, operand := range a.Operands {
		args[i] = operand.Eval(b)
	}
	return a.Operator.Fn(args)
}

func (a Apply) String() string {
	parts := make([]string, 0, len(a.Operands)+1)
	parts = append(parts, a.Tag)
	for _, operand := range a.Operands {
		parts = append(parts, fmt.Sprint(operand))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Parse builds an Expression from its array form, e.g.
//
//	["gte", ["lookup", "s-VHCL"], ["const", 1]]
//
// Unknown operator tags and malformed nodes are rejected here so a bad rule
// never reaches evaluation.
func Parse(raw any) (Expression, error) {
	node, ok := raw.([]any)
	if !ok || len(node) == 0 {
		return nil, fmt.Errorf("%w: expected [operator, operand...], got %v", ErrMalformedExpression, raw)
	}

	tag, ok := node[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: operator tag must be a string, got %v", ErrMalformedExpression, node[0])
	}
	operands := node[1:]

	switch tag {
	case "const":
		if len(operands) != 1 {
			return nil, fmt.Errorf("%w: const takes 1 operand, got %d", ErrMalformedExpression, len(operands))
		}
		return Const{Value: operands[0]}, nil

	case "lookup":
		if len(operands) < 1 || len(operands) > 2 {
			return nil, fmt.Errorf("%w: lookup takes a key and optional default", ErrMalformedExpression)
		}
		key, ok := operands[0].(string)
		if !ok {
			return nil, fmt.Errorf("%w: lookup key must be a string, got %v", ErrMalformedExpression, operands[0])
		}
		l := Lookup{Key: key}
		if len(operands) == 2 {
			l.Default = operands[1]
		}
		return l, nil
	}

	op, err := operators.Lookup(tag)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperator, tag)
	}
	if err := op.check(len(operands)); err != nil {
		return nil, fmt.Errorf("%w: %s %w", ErrMalformedExpression, tag, err)
	}

	parsed := make([]Expression, len(operands))
	for i, operand := range operands {
		expr, err := Parse(operand)
		if err != nil {
			return nil, err
		}
		parsed[i] = expr
	}

	return Apply{Tag: tag, Operator: op, Operands: parsed}, nil
}

// ParseJSON parses an expression from its JSON encoding.
func ParseJSON(data []byte) (Expression, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedExpression, err)
	}
	return Parse(raw)
}
