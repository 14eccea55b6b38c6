package query

import (
	"fmt"
	"reflect"
	"strings"
)

// condition is a single "column op $n" predicate. Parameter numbers are
// assigned in buildWhere so conditions can be added in any order.
type condition struct {
	column string
	op     string
	value  any
}

// SortField represents a single column in an ORDER BY clause.
// Field is the logical field name (mapped via ProjectionMap).
// Descending controls sort direction (false = ASC, true = DESC).
type SortField struct {
	Field      string
	Descending bool
}

// Builder constructs SQL queries using a fluent API with automatic parameter numbering.
type Builder struct {
	projection *ProjectionMap
	conditions []condition
	sort       []SortField
}

// NewBuilder creates a Builder for the given projection with optional sort fields.
func NewBuilder(projection *ProjectionMap, sort ...SortField) *Builder {
	return &Builder{
		projection: projection,
		sort:       sort,
	}
}

// Build returns a SELECT query with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.buildWhere()

	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.buildOrderBy(),
	)

	return sql, args
}

// BuildExists returns a SELECT EXISTS query over the current conditions.
func (b *Builder) BuildExists() (string, []any) {
	where, args := b.buildWhere()
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s%s)", b.projection.From(), where)
	return sql, args
}

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	return b.where(field, "=", value)
}

func (b *Builder) where(field, op string, value any) *Builder {
	if isNil(value) {
		return b
	}
	b.conditions = append(b.conditions, condition{
		column: b.projection.Column(field),
		op:     op,
		value:  value,
	})
	return b
}

func (b *Builder) buildOrderBy() string {
	if len(b.sort) == 0 {
		return ""
	}

	parts := make([]string, len(b.sort))
	for i, f := range b.sort {
		col := b.projection.Column(f.Field)
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts[i] = fmt.Sprintf("%s %s", col, dir)
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, len(b.conditions))
	args := make([]any, len(b.conditions))

	for i, cond := range b.conditions {
		clauses[i] = fmt.Sprintf("%s %s $%d", cond.column, cond.op, i+1)
		args[i] = cond.value
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}

	return false
}
