package rules

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"

	"github.com/JaimeStill/caesar/pkg/registry"
)

// Operator is a named function over evaluated operands.
// MaxArgs < 0 means variadic.
type Operator struct {
	MinArgs int
	MaxArgs int
	Fn      func(args []any) any
}

func (o Operator) check(n int) error {
	if n < o.MinArgs || (o.MaxArgs >= 0 && n > o.MaxArgs) {
		if o.MinArgs == o.MaxArgs {
			return fmt.Errorf("takes %d operands, got %d", o.MinArgs, n)
		}
		return fmt.Errorf("takes at least %d operands, got %d", o.MinArgs, n)
	}
	return nil
}

var operators = registry.New[Operator]("operator")

var reserved = []string{"const", "lookup"}

func init() {
	RegisterOperator("eq", binary(func(a, b any) any { return equal(a, b) }))
	RegisterOperator("ne", binary(func(a, b any) any { return !equal(a, b) }))
	RegisterOperator("gt", numeric(func(x, y float64) bool { return x > y }))
	RegisterOperator("gte", numeric(func(x, y float64) bool { return x >= y }))
	RegisterOperator("lt", numeric(func(x, y float64) bool { return x < y }))
	RegisterOperator("lte", numeric(func(x, y float64) bool { return x <= y }))

	RegisterOperator("and", Operator{MinArgs: 1, MaxArgs: -1, Fn: func(args []any) any {
		for _, a := range args {
			if !truthy(a) {
				return false
			}
		}
		return true
	}})
	RegisterOperator("or", Operator{MinArgs: 1, MaxArgs: -1, Fn: func(args []any) any {
		for _, a := range args {
			if truthy(a) {
				return true
			}
		}
		return false
	}})
	RegisterOperator("not", Operator{MinArgs: 1, MaxArgs: 1, Fn: func(args []any) any {
		return !truthy(args[0])
	}})
}

// RegisterOperator adds or replaces an operator tag.
// It panics on the reserved terminals const and lookup.
func RegisterOperator(tag string, op Operator) {
	if slices.Contains(reserved, tag) {
		panic(fmt.Sprintf("rules: operator tag %q is reserved", tag))
	}
	operators.Register(tag, op)
}

// Operators lists the registered operator tags.
func Operators() []string {
	return append(slices.Clone(reserved), operators.Tags()...)
}

func binary(fn func(a, b any) any) Operator {
	return Operator{MinArgs: 2, MaxArgs: 2, Fn: func(args []any) any {
		return fn(args[0], args[1])
	}}
}

// numeric comparisons are false when either side is absent or not a number.
func numeric(cmp func(x, y float64) bool) Operator {
	return binary(func(a, b any) any {
		x, ok := toFloat(a)
		if !ok {
			return false
		}
		y, ok := toFloat(b)
		if !ok {
			return false
		}
		return cmp(x, y)
	})
}

// equal is false across kinds. Numbers compare by value and JSON arrays or
// objects structurally. nil equals only nil.
func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	x, xok := toFloat(a)
	y, yok := toFloat(b)
	if xok || yok {
		return xok && yok && x == y
	}

	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any, map[string]any:
		return reflect.DeepEqual(a, b)
	default:
		return false
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		if n, ok := toFloat(v); ok {
			return n != 0
		}
		return true
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
