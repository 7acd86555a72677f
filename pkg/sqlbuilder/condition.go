// Package sqlbuilder renders filter conditions and CRUD statements as SQL text
// with positional '?' placeholders. It is stateless and safe for concurrent use.
package sqlbuilder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"overviewrepo/pkg/filter"
)

var ErrUnsupportedCondition = errors.New("unsupported condition")

// ValueAdapter converts a value into one the SQL driver accepts.
type ValueAdapter func(any) any

// DefaultValueAdapter passes time values in UTC and leaves everything else unchanged.
func DefaultValueAdapter(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	default:
		return v
	}
}

// SQLCondition is a condition rendered as SQL. Params has one value per placeholder in Text.
type SQLCondition struct {
	Text   string
	Params []any
}

// BuildCondition renders c. A nil adapter leaves values unchanged.
func BuildCondition(c filter.Condition, adapt ValueAdapter) (SQLCondition, error) {
	if adapt == nil {
		adapt = func(v any) any { return v }
	}
	switch c := c.(type) {
	case filter.Equals:
		return SQLCondition{Text: c.Column + " = ?", Params: []any{adapt(c.Value)}}, nil
	case filter.In:
		if len(c.Values) == 0 {
			// IN () is invalid SQL; an empty set matches nothing.
			return SQLCondition{Text: "1 = 0"}, nil
		}
		params := make([]any, len(c.Values))
		for i, v := range c.Values {
			params[i] = adapt(v)
		}
		return SQLCondition{Text: c.Column + " IN (" + Placeholders(len(params)) + ")", Params: params}, nil
	case filter.And:
		if len(c.Conditions) == 0 {
			return SQLCondition{Text: "1 = 1"}, nil
		}
		fragments := make([]string, len(c.Conditions))
		var params []any
		for i, sub := range c.Conditions {
			built, err := BuildCondition(sub, adapt)
			if err != nil {
				return SQLCondition{}, err
			}
			fragments[i] = "(" + built.Text + ")"
			params = append(params, built.Params...)
		}
		return SQLCondition{Text: strings.Join(fragments, " AND "), Params: params}, nil
	default:
		return SQLCondition{}, fmt.Errorf("%w: %T", ErrUnsupportedCondition, c)
	}
}

// Where renders conditions as a WHERE clause with a leading space.
// It returns an empty clause for no conditions.
func Where(conditions []filter.Condition, adapt ValueAdapter) (string, []any, error) {
	if len(conditions) == 0 {
		return "", nil, nil
	}
	fragments := make([]string, len(conditions))
	var params []any
	for i, c := range conditions {
		built, err := BuildCondition(c, adapt)
		if err != nil {
			return "", nil, err
		}
		fragments[i] = built.Text
		params = append(params, built.Params...)
	}
	return " WHERE " + strings.Join(fragments, " AND "), params, nil
}

// Placeholders returns n comma separated question marks.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}
