package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/query"
	"overviewrepo/pkg/sqlbuilder"
)

// FindByOverview returns the entities of m matching ov. Without explicit ordering
// the entities are ordered by primary key, which keeps pages stable.
func FindByOverview[T, F any](ctx context.Context, e *Engine, m *mapper.EntityMapper[T, F], ov query.Overview[F]) ([]T, error) {
	return FindByFilterConditions(ctx, e, m, m.ComposeFilterConditions(ov.Filter), ov.Order, ov.Pagination)
}

// FindByFilterConditions returns the entities of m matching all conditions.
func FindByFilterConditions[T, F any](ctx context.Context, e *Engine, m *mapper.EntityMapper[T, F], conditions []filter.Condition, order []query.Order, pagination *query.Pagination) ([]T, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: entity mapper is nil", ErrInvalidArgument)
	}
	sel := sqlbuilder.Select{
		Projection:   strings.Join(m.AttributeNames(), ", "),
		From:         m.DataSet(),
		Where:        conditions,
		Order:        order,
		DefaultOrder: sqlbuilder.DefaultOrdering(m.DataSet(), m.PrimaryAttributeNames()),
		Pagination:   pagination,
	}
	entities, err := selectAll(ctx, e, m.DataSet(), sel, m.BuildEntity)
	if err != nil {
		return nil, newError("find", m.DataSet(), err)
	}
	return entities, nil
}

// Aggregate computes kind over the attribute column of the entities matching f.
// attribute must be an attribute of m, or "*" for Count.
// The result is not valid when the aggregate is NULL, e.g. SUM over no rows.
func Aggregate[R, T, F any](ctx context.Context, e *Engine, m *mapper.EntityMapper[T, F], kind query.AggType, attribute string, f *F) (sql.Null[R], error) {
	if m == nil {
		return sql.Null[R]{}, fmt.Errorf("%w: entity mapper is nil", ErrInvalidArgument)
	}
	if attribute == "*" {
		if kind != query.Count {
			return sql.Null[R]{}, fmt.Errorf("%w: %s(*) is not supported", ErrInvalidArgument, kind)
		}
	} else if _, ok := m.Attribute(attribute); !ok {
		return sql.Null[R]{}, fmt.Errorf("%w: %s has no attribute %q", ErrInvalidArgument, m.DataSet(), attribute)
	}
	return aggregate[R](ctx, e, m.DataSet(), kind, attribute, m.ComposeFilterConditions(f))
}

func aggregate[R any](ctx context.Context, e *Engine, dataset string, kind query.AggType, attribute string, conditions []filter.Condition) (sql.Null[R], error) {
	if attribute == "" {
		return sql.Null[R]{}, fmt.Errorf("%w: attribute name is empty", ErrInvalidArgument)
	}
	projection, alias, err := sqlbuilder.Aggregate(kind, attribute)
	if err != nil {
		return sql.Null[R]{}, err
	}
	sel := sqlbuilder.Select{Projection: projection, From: dataset, Where: conditions}
	results, err := selectAll(ctx, e, dataset, sel, func(src mapper.AttributeSource) (sql.Null[R], error) {
		return mapper.Value[R](src, alias)
	})
	if err != nil {
		return sql.Null[R]{}, newError("aggregate", dataset, err)
	}
	if len(results) == 0 {
		return sql.Null[R]{}, nil
	}
	return results[0], nil
}
