// Package filter holds the abstract predicates repositories translate into SQL.
//
// Conditions carry column names and values only. They never contain SQL text,
// which keeps them reusable by any statement composer.
package filter

import "strings"

// Condition is one of Equals, In or And.
type Condition interface {
	condition()
}

// Equals matches rows whose column equals Value.
type Equals struct {
	Column string
	Value  any
}

// In matches rows whose column equals one of Values. An empty set matches nothing.
type In struct {
	Column string
	Values []any
}

// And is a flat conjunction of conditions.
type And struct {
	Conditions []Condition
}

func (Equals) condition() {}
func (In) condition()     {}
func (And) condition()    {}

func Eq(column string, value any) Condition {
	return Equals{Column: column, Value: value}
}

func InValues(column string, values []any) Condition {
	return In{Column: column, Values: values}
}

// AllOf returns the conjunction of conditions. A single condition is returned as is.
func AllOf(conditions ...Condition) Condition {
	if len(conditions) == 1 {
		return conditions[0]
	}
	return And{Conditions: conditions}
}

// Qualify prefixes every column of c with prefix and a dot, unless it already names a dataset.
func Qualify(prefix string, c Condition) Condition {
	switch c := c.(type) {
	case Equals:
		return Equals{Column: qualifyColumn(prefix, c.Column), Value: c.Value}
	case In:
		return In{Column: qualifyColumn(prefix, c.Column), Values: c.Values}
	case And:
		qualified := make([]Condition, len(c.Conditions))
		for i, sub := range c.Conditions {
			qualified[i] = Qualify(prefix, sub)
		}
		return And{Conditions: qualified}
	default:
		return c
	}
}

// QualifyAll applies Qualify to every condition.
func QualifyAll(prefix string, conditions []Condition) []Condition {
	qualified := make([]Condition, len(conditions))
	for i, c := range conditions {
		qualified[i] = Qualify(prefix, c)
	}
	return qualified
}

func qualifyColumn(prefix, column string) string {
	if prefix == "" || strings.Contains(column, ".") {
		return column
	}
	return prefix + "." + column
}
