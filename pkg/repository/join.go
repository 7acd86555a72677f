package repository

import (
	"context"
	"database/sql/driver"
	"fmt"
	"reflect"
	"strings"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/query"
	"overviewrepo/pkg/sqlbuilder"
)

const (
	firstAlias  = "j1_"
	secondAlias = "j2_"
)

// FindJoined returns the first entities of jm matching ov, each composed with its
// related second entities.
//
// With cardinality Many the pagination of ov applies to the first entities only:
// they are loaded by one query and their related second entities, never paginated,
// by a second one. The two queries run on separate resources unless the context
// carries a transaction, so rows written in between may or may not be seen.
// With cardinality One both sides are loaded by a single LEFT JOIN query.
func FindJoined[T, F, U, G, V, H any, O comparable](ctx context.Context, e *Engine, jm *mapper.JoinEntityMapper[T, F, U, G, V, H, O], ov query.Overview[H]) ([]V, error) {
	if jm == nil {
		return nil, fmt.Errorf("%w: join mapper is nil", ErrInvalidArgument)
	}
	if err := jm.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	switch jm.Cardinality {
	case mapper.Many:
		return findJoinedWithMany(ctx, e, jm, ov)
	case mapper.One:
		return findJoinedWithOne(ctx, e, jm, ov)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidArgument, jm.Cardinality)
	}
}

func findJoinedWithMany[T, F, U, G, V, H any, O comparable](ctx context.Context, e *Engine, jm *mapper.JoinEntityMapper[T, F, U, G, V, H, O], ov query.Overview[H]) ([]V, error) {
	firstOv, secondOv := jm.Decompose(ov)

	firsts, err := FindByOverview(ctx, e, jm.First, firstOv)
	if err != nil {
		return nil, err
	}
	if len(firsts) == 0 {
		return []V{}, nil
	}

	var keys []any
	seen := make(map[any]struct{}, len(firsts))
	for _, first := range firsts {
		key, ok := joinKey(jm.On.First.Get(first))
		if !ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}

	related := make(map[any][]U, len(keys))
	if len(keys) > 0 {
		conditions := append([]filter.Condition{filter.InValues(jm.On.Second.Name(), keys)},
			jm.Second.ComposeFilterConditions(secondOv.Filter)...)
		seconds, err := FindByFilterConditions(ctx, e, jm.Second, conditions, secondOv.Order, nil)
		if err != nil {
			return nil, err
		}
		for _, second := range seconds {
			key, ok := joinKey(jm.On.Second.Get(second))
			if !ok {
				continue
			}
			related[key] = append(related[key], second)
		}
	}

	result := make([]V, 0, len(firsts))
	for _, first := range firsts {
		var group []U
		if key, ok := joinKey(jm.On.First.Get(first)); ok {
			group = related[key]
		}
		if group == nil {
			group = []U{}
		}
		result = append(result, jm.Compose(first, group))
	}
	return result, nil
}

func findJoinedWithOne[T, F, U, G, V, H any, O comparable](ctx context.Context, e *Engine, jm *mapper.JoinEntityMapper[T, F, U, G, V, H, O], ov query.Overview[H]) ([]V, error) {
	firstOv, secondOv := jm.Decompose(ov)
	first, second := jm.First, jm.Second

	columns := append(first.AttributeNamesWithPrefix(first.DataSet(), firstAlias),
		second.AttributeNamesWithPrefix(second.DataSet(), secondAlias)...)
	where := append(filter.QualifyAll(first.DataSet(), first.ComposeFilterConditions(firstOv.Filter)),
		filter.QualifyAll(second.DataSet(), second.ComposeFilterConditions(secondOv.Filter))...)
	order := qualifyOrder(first.DataSet(), firstOv.Order)
	if len(order) == 0 {
		order = sqlbuilder.DefaultOrdering(first.DataSet(), first.PrimaryAttributeNames())
	}
	order = append(order, qualifyOrder(second.DataSet(), secondOv.Order)...)

	sel := sqlbuilder.Select{
		Projection: strings.Join(columns, ", "),
		From:       sqlbuilder.LeftJoin(first.DataSet(), second.DataSet(), jm.On.First.Name(), jm.On.Second.Name()),
		Where:      where,
		Order:      order,
		Pagination: firstOv.Pagination,
	}
	dataset := first.DataSet() + "+" + second.DataSet()
	results, err := selectAll(ctx, e, dataset, sel, func(src mapper.AttributeSource) (V, error) {
		var zero V
		f, err := first.BuildEntityWithAlias(src, firstAlias)
		if err != nil {
			return zero, err
		}
		joined, ok := src.Lookup(secondAlias + jm.On.Second.Name())
		if !ok || joined == nil {
			return jm.Compose(f, []U{}), nil
		}
		s, err := second.BuildEntityWithAlias(src, secondAlias)
		if err != nil {
			return zero, err
		}
		return jm.Compose(f, []U{s}), nil
	})
	if err != nil {
		return nil, newError("find", dataset, err)
	}
	return results, nil
}

func qualifyOrder(dataset string, order []query.Order) []query.Order {
	result := make([]query.Order, len(order))
	for i, o := range order {
		if !strings.Contains(o.Column, ".") {
			o.Column = dataset + "." + o.Column
		}
		result[i] = o
	}
	return result
}

// joinKey returns the value a join attribute is matched by, or false for SQL NULL.
// Pointers are dereferenced and driver.Valuer implementations replaced by their
// driver value, so keys read from different rows compare equal when their column
// values do.
func joinKey(v any) (any, bool) {
	for {
		if isNil(v) {
			return nil, false
		}
		if valuer, ok := v.(driver.Valuer); ok {
			dv, err := valuer.Value()
			if err != nil {
				return v, true
			}
			if dv == nil {
				return nil, false
			}
			if b, ok := dv.([]byte); ok {
				return string(b), true
			}
			return dv, true
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Pointer {
			return v, true
		}
		v = rv.Elem().Interface()
	}
}
