package query

import (
	"fmt"
	"time"
)

// Operator is a constraint comparison operator.
type Operator string

// Comparison operator constants.
const (
	Equals             Operator = "eq"
	NotEquals          Operator = "ne"
	GreaterThan        Operator = "gt"
	GreaterThanOrEqual Operator = "ge"
	LessThan           Operator = "lt"
	LessThanOrEqual    Operator = "le"
	Between            Operator = "between"
	Contains           Operator = "contains"
	In                 Operator = "in"
)

// Type classifies how a constraint participates in retrieval.
type Type string

// Constraint type constants.
const (
	Exact     Type = "exact"
	Range     Type = "range"
	Semantic  Type = "semantic"
	Composite Type = "composite"
)

// ValueKind discriminates the constraint payload.
type ValueKind int

// Constraint payload kinds.
const (
	KindText ValueKind = iota
	KindNumber
	KindNumberRange
	KindDate
	KindDateRange
	KindList
)

// Constraint is a single field/operator/value predicate derived from a
// query entity.
type Constraint struct {
	field string
	op    Operator
	ctype Type
	kind  ValueKind

	text      string
	number    float64
	numberLo  float64
	numberHi  float64
	date      time.Time
	dateLo    time.Time
	dateHi    time.Time
	list      []string
}

// NewText creates a string-valued constraint (Equals, NotEquals, Contains).
func NewText(field string, op Operator, value string, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	switch op {
	case Equals, NotEquals, Contains:
	default:
		return Constraint{}, fmt.Errorf("operator %q does not take a text value", op)
	}
	return Constraint{field: field, op: op, ctype: t, kind: KindText, text: value}, nil
}

// NewNumber creates a numeric comparison constraint.
func NewNumber(field string, op Operator, value float64, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	switch op {
	case Equals, NotEquals, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual:
	default:
		return Constraint{}, fmt.Errorf("operator %q does not take a scalar number", op)
	}
	return Constraint{field: field, op: op, ctype: t, kind: KindNumber, number: value}, nil
}

// NewNumberRange creates a Between constraint over the ordered pair (lo, hi).
func NewNumberRange(field string, lo, hi float64, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	if lo > hi {
		return Constraint{}, fmt.Errorf("between bounds out of order: %v > %v", lo, hi)
	}
	return Constraint{field: field, op: Between, ctype: t, kind: KindNumberRange, numberLo: lo, numberHi: hi}, nil
}

// NewDate creates a date comparison constraint.
func NewDate(field string, op Operator, value time.Time, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	switch op {
	case Equals, GreaterThan, GreaterThanOrEqual, LessThan, LessThanOrEqual:
	default:
		return Constraint{}, fmt.Errorf("operator %q does not take a date", op)
	}
	return Constraint{field: field, op: op, ctype: t, kind: KindDate, date: value}, nil
}

// NewDateRange creates a Between constraint over [lo, hi] dates.
func NewDateRange(field string, lo, hi time.Time, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	if lo.After(hi) {
		return Constraint{}, fmt.Errorf("date bounds out of order")
	}
	return Constraint{field: field, op: Between, ctype: t, kind: KindDateRange, dateLo: lo, dateHi: hi}, nil
}

// NewList creates an In membership constraint over string literals.
func NewList(field string, values []string, t Type) (Constraint, error) {
	if field == "" {
		return Constraint{}, fmt.Errorf("constraint field is required")
	}
	if len(values) == 0 {
		return Constraint{}, fmt.Errorf("in constraint on %q needs at least one value", field)
	}
	return Constraint{field: field, op: In, ctype: t, kind: KindList, list: values}, nil
}

// Field returns the constrained field name.
func (c Constraint) Field() string { return c.field }

// Op returns the comparison operator.
func (c Constraint) Op() Operator { return c.op }

// CType returns the constraint type (exact, range, semantic, composite).
func (c Constraint) CType() Type { return c.ctype }

// Kind returns the payload kind.
func (c Constraint) Kind() ValueKind { return c.kind }

// Text returns the string payload.
func (c Constraint) Text() string { return c.text }

// Number returns the scalar numeric payload.
func (c Constraint) Number() float64 { return c.number }

// NumberRange returns the (lo, hi) pair of a numeric Between constraint.
func (c Constraint) NumberRange() (float64, float64) { return c.numberLo, c.numberHi }

// Date returns the date payload.
func (c Constraint) Date() time.Time { return c.date }

// DateRange returns the (lo, hi) pair of a date Between constraint.
func (c Constraint) DateRange() (time.Time, time.Time) { return c.dateLo, c.dateHi }

// List returns the membership values of an In constraint.
func (c Constraint) List() []string { return c.list }

// IsSemantic reports whether the constraint is soft (qualitative-derived).
func (c Constraint) IsSemantic() bool { return c.ctype == Semantic }

// LowerBound returns the numeric lower bound implied by the constraint and
// whether one exists. Between contributes its low end; gt/ge their value.
func (c Constraint) LowerBound() (float64, bool) {
	switch {
	case c.kind == KindNumberRange:
		return c.numberLo, true
	case c.kind == KindNumber && (c.op == GreaterThan || c.op == GreaterThanOrEqual):
		return c.number, true
	}
	return 0, false
}

// UpperBound returns the numeric upper bound implied by the constraint and
// whether one exists.
func (c Constraint) UpperBound() (float64, bool) {
	switch {
	case c.kind == KindNumberRange:
		return c.numberHi, true
	case c.kind == KindNumber && (c.op == LessThan || c.op == LessThanOrEqual):
		return c.number, true
	}
	return 0, false
}
