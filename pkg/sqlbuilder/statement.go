package sqlbuilder

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/query"
)

var (
	ErrEmptyColumns           = errors.New("statement has no columns")
	ErrUnsupportedAggregation = errors.New("unsupported aggregation")
)

// Select describes a SELECT statement.
type Select struct {
	Projection string
	From       string
	Where      []filter.Condition
	Order      []query.Order
	// DefaultOrder is used when Order is empty.
	DefaultOrder []query.Order
	Pagination   *query.Pagination
}

// Build returns the statement text and its parameters in placeholder order.
func (s Select) Build(adapt ValueAdapter) (string, []any, error) {
	if s.Projection == "" {
		return "", nil, fmt.Errorf("%w: select from %s", ErrEmptyColumns, s.From)
	}
	var sb strings.Builder
	sb.WriteString("SELECT " + s.Projection + " FROM " + s.From)
	where, params, err := Where(s.Where, adapt)
	if err != nil {
		return "", nil, err
	}
	sb.WriteString(where)

	order := s.Order
	if len(order) == 0 {
		order = s.DefaultOrder
	}
	if len(order) > 0 {
		items := make([]string, len(order))
		for i, o := range order {
			items[i] = o.SQL()
		}
		sb.WriteString(" ORDER BY " + strings.Join(items, ", "))
	}

	if s.Pagination != nil {
		if err := s.Pagination.Validate(); err != nil {
			return "", nil, err
		}
		sb.WriteString(" LIMIT " + strconv.Itoa(s.Pagination.Limit) + " OFFSET " + strconv.Itoa(s.Pagination.Offset))
	}
	return sb.String(), params, nil
}

// Insert returns an INSERT statement with one placeholder per column.
func Insert(dataset string, columns []string) (string, error) {
	if len(columns) == 0 {
		return "", fmt.Errorf("%w: insert into %s", ErrEmptyColumns, dataset)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", dataset, strings.Join(columns, ","), Placeholders(len(columns))), nil
}

// Update returns an UPDATE statement setting columns to values.
// The parameters are the adapted values followed by the WHERE parameters.
func Update(dataset string, columns []string, values []any, where []filter.Condition, adapt ValueAdapter) (string, []any, error) {
	if len(columns) == 0 {
		return "", nil, fmt.Errorf("%w: update %s", ErrEmptyColumns, dataset)
	}
	if len(columns) != len(values) {
		return "", nil, fmt.Errorf("update %s: %d columns but %d values", dataset, len(columns), len(values))
	}
	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = column + "=?"
	}
	whereClause, whereParams, err := Where(where, adapt)
	if err != nil {
		return "", nil, err
	}
	return "UPDATE " + dataset + " SET " + strings.Join(assignments, ",") + whereClause, append(AdaptAll(values, adapt), whereParams...), nil
}

// Delete returns a DELETE statement restricted by where.
func Delete(dataset string, where []filter.Condition, adapt ValueAdapter) (string, []any, error) {
	whereClause, params, err := Where(where, adapt)
	if err != nil {
		return "", nil, err
	}
	return "DELETE FROM " + dataset + whereClause, params, nil
}

var aliasReplacer = strings.NewReplacer(".", "_", "*", "all")

// Aggregate returns the projection "<FN>(column) AS alias" and the alias.
func Aggregate(kind query.AggType, column string) (string, string, error) {
	switch kind {
	case query.Count, query.Sum, query.Min, query.Max, query.Avg:
	default:
		return "", "", fmt.Errorf("%w: %d", ErrUnsupportedAggregation, int(kind))
	}
	alias := aliasReplacer.Replace(column) + "_agg"
	return kind.String() + "(" + column + ") AS " + alias, alias, nil
}

// LeftJoin returns "first LEFT JOIN second ON first.firstColumn = second.secondColumn".
func LeftJoin(first, second, firstColumn, secondColumn string) string {
	return fmt.Sprintf("%s LEFT JOIN %s ON %s.%s = %s.%s", first, second, first, firstColumn, second, secondColumn)
}

// DefaultOrdering orders ascending by the primary columns qualified with the dataset.
func DefaultOrdering(dataset string, primary []string) []query.Order {
	order := make([]query.Order, 0, len(primary))
	prefix := dataset + "."
	for _, name := range primary {
		if !strings.HasPrefix(name, prefix) {
			name = prefix + name
		}
		order = append(order, query.Asc(name))
	}
	return order
}

// AdaptAll applies adapt to every value.
func AdaptAll(values []any, adapt ValueAdapter) []any {
	result := make([]any, len(values))
	for i, v := range values {
		if adapt != nil {
			v = adapt(v)
		}
		result[i] = v
	}
	return result
}
