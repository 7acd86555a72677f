package repository

import (
	"context"
	"fmt"

	"overviewrepo/pkg/datasource"
	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/query"
	"overviewrepo/pkg/sqlbuilder"
)

// NewEntityRepository returns a repository of the entities described by m.
// Keys are single values unless WithKeyDecomposer is given.
func NewEntityRepository[T, K, F any](provider datasource.Provider, m *mapper.EntityMapper[T, F], opts ...Option) *SQLRepository[T, K, F] {
	o := newOptions(opts)
	return &SQLRepository[T, K, F]{
		engine:       &Engine{provider: provider, logger: o.logger, adapt: o.adapt},
		mapper:       m,
		decomposeKey: o.decomposeKey,
		convertKey:   o.convertKey,
	}
}

type SQLRepository[T, K, F any] struct {
	engine       *Engine
	mapper       *mapper.EntityMapper[T, F]
	decomposeKey func(any) ([]any, error)
	convertKey   func(int64) (any, error)
}

var _ Repository[any, any, any] = (*SQLRepository[any, any, any])(nil)

func (r *SQLRepository[T, K, F]) Engine() *Engine {
	return r.engine
}

func (r *SQLRepository[T, K, F]) Mapper() *mapper.EntityMapper[T, F] {
	return r.mapper
}

func (r *SQLRepository[T, K, F]) Create(ctx context.Context, entity T, autogenerateKey bool) (T, error) {
	var created T
	err := r.engine.withResource(ctx, func(res datasource.Resource) error {
		var err error
		created, err = r.insert(ctx, res, entity, autogenerateKey)
		return err
	})
	if err != nil {
		var zero T
		return zero, newError("create", r.mapper.DataSet(), err)
	}
	return created, nil
}

// CreateAll inserts the entities using a single resource, so a transactional
// provider creates all of them or none.
func (r *SQLRepository[T, K, F]) CreateAll(ctx context.Context, entities []T, autogenerateKey bool) ([]T, error) {
	if len(entities) == 0 {
		return []T{}, nil
	}
	created := make([]T, 0, len(entities))
	err := r.engine.withResource(ctx, func(res datasource.Resource) error {
		for _, entity := range entities {
			c, err := r.insert(ctx, res, entity, autogenerateKey)
			if err != nil {
				return err
			}
			created = append(created, c)
		}
		return nil
	})
	if err != nil {
		return nil, newError("create", r.mapper.DataSet(), err)
	}
	return created, nil
}

func (r *SQLRepository[T, K, F]) insert(ctx context.Context, res datasource.Resource, entity T, autogenerateKey bool) (T, error) {
	if isNil(entity) {
		return entity, fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}
	columns, values := r.mapper.AttributeNames(), r.mapper.AttributeValues(entity)
	if autogenerateKey {
		if len(r.mapper.PrimaryAttributes()) != 1 {
			return entity, fmt.Errorf("%w: %s: generated keys need exactly one primary attribute", ErrInvalidArgument, r.mapper.DataSet())
		}
		columns, values = r.mapper.NonPrimaryAttributeNames(), r.mapper.NonPrimaryAttributeValues(entity)
	}
	statement, err := sqlbuilder.Insert(r.mapper.DataSet(), columns)
	if err != nil {
		return entity, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	result, err := r.engine.exec(ctx, res, r.mapper.DataSet(), statement, sqlbuilder.AdaptAll(values, r.engine.adapt))
	if err != nil {
		return entity, err
	}
	if !autogenerateKey {
		return entity, nil
	}

	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return entity, ErrNoGeneratedKey
	}
	id, err := result.LastInsertId()
	if err != nil {
		return entity, fmt.Errorf("%w: %w", ErrNoGeneratedKey, err)
	}
	key, err := r.convertKey(id)
	if err != nil {
		return entity, err
	}
	return r.mapper.EntityWithKey(entity, key)
}

// Update sets every non-key column of the row with the entity's key.
// It reports false when no such row exists.
func (r *SQLRepository[T, K, F]) Update(ctx context.Context, entity T) (T, bool, error) {
	var zero T
	if isNil(entity) {
		return zero, false, fmt.Errorf("%w: entity is nil", ErrInvalidArgument)
	}
	where, err := r.mapper.PrimaryKeyConditionOf(entity)
	if err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	statement, params, err := sqlbuilder.Update(r.mapper.DataSet(), r.mapper.NonPrimaryAttributeNames(),
		r.mapper.NonPrimaryAttributeValues(entity), []filter.Condition{where}, r.engine.adapt)
	if err != nil {
		return zero, false, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	affected, err := r.engine.execAffected(ctx, r.mapper.DataSet(), statement, params)
	if err != nil {
		return zero, false, newError("update", r.mapper.DataSet(), err)
	}
	if affected != 1 {
		return zero, false, nil
	}
	return entity, true, nil
}

// UpdateAttributes sets the given attributes of the row with key id and returns
// the number of updated rows. An empty attribute list is rejected.
func (r *SQLRepository[T, K, F]) UpdateAttributes(ctx context.Context, id K, values []mapper.AttributeValue) (int64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: no attributes to update", ErrInvalidArgument)
	}
	columns := make([]string, len(values))
	params := make([]any, len(values))
	for i, v := range values {
		if _, ok := r.mapper.Attribute(v.Name); !ok {
			return 0, fmt.Errorf("%w: %s has no attribute %q", ErrInvalidArgument, r.mapper.DataSet(), v.Name)
		}
		columns[i], params[i] = v.Name, v.Value
	}
	where, err := r.keyCondition(id)
	if err != nil {
		return 0, err
	}
	statement, params, err := sqlbuilder.Update(r.mapper.DataSet(), columns, params, []filter.Condition{where}, r.engine.adapt)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	affected, err := r.engine.execAffected(ctx, r.mapper.DataSet(), statement, params)
	if err != nil {
		return 0, newError("update", r.mapper.DataSet(), err)
	}
	return affected, nil
}

// Delete removes the row with key id and reports whether exactly one row was removed.
func (r *SQLRepository[T, K, F]) Delete(ctx context.Context, id K) (bool, error) {
	where, err := r.keyCondition(id)
	if err != nil {
		return false, err
	}
	affected, err := r.deleteWhere(ctx, []filter.Condition{where})
	return affected == 1, err
}

// DeleteByIDs removes the rows with the given keys. It needs a single primary attribute.
func (r *SQLRepository[T, K, F]) DeleteByIDs(ctx context.Context, ids []K) (int64, error) {
	primary := r.mapper.PrimaryAttributeNames()
	if len(primary) != 1 {
		return 0, fmt.Errorf("%w: %s: deleting by ids needs exactly one primary attribute", ErrInvalidArgument, r.mapper.DataSet())
	}
	if len(ids) == 0 {
		return 0, nil
	}
	values := make([]any, len(ids))
	for i, id := range ids {
		values[i] = id
	}
	return r.deleteWhere(ctx, []filter.Condition{filter.InValues(primary[0], values)})
}

// DeleteByFilter removes all rows matching f and returns their count.
func (r *SQLRepository[T, K, F]) DeleteByFilter(ctx context.Context, f *F) (int64, error) {
	if f == nil {
		return 0, fmt.Errorf("%w: filter is nil", ErrInvalidArgument)
	}
	return r.deleteWhere(ctx, r.mapper.ComposeFilterConditions(f))
}

func (r *SQLRepository[T, K, F]) deleteWhere(ctx context.Context, where []filter.Condition) (int64, error) {
	statement, params, err := sqlbuilder.Delete(r.mapper.DataSet(), where, r.engine.adapt)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	affected, err := r.engine.execAffected(ctx, r.mapper.DataSet(), statement, params)
	if err != nil {
		return 0, newError("delete", r.mapper.DataSet(), err)
	}
	return affected, nil
}

func (r *SQLRepository[T, K, F]) FindByID(ctx context.Context, id K) (T, bool, error) {
	where, err := r.keyCondition(id)
	if err != nil {
		var zero T
		return zero, false, err
	}
	return r.findOne(ctx, where)
}

// FindByAttribute returns the first entity, by primary key, whose attribute equals value.
func (r *SQLRepository[T, K, F]) FindByAttribute(ctx context.Context, attribute string, value any) (T, bool, error) {
	if _, ok := r.mapper.Attribute(attribute); !ok {
		var zero T
		return zero, false, fmt.Errorf("%w: %s has no attribute %q", ErrInvalidArgument, r.mapper.DataSet(), attribute)
	}
	return r.findOne(ctx, filter.Eq(attribute, value))
}

func (r *SQLRepository[T, K, F]) findOne(ctx context.Context, where filter.Condition) (T, bool, error) {
	var zero T
	entities, err := FindByFilterConditions(ctx, r.engine, r.mapper, []filter.Condition{where}, nil, &query.Pagination{Limit: 1})
	if err != nil {
		return zero, false, err
	}
	if len(entities) == 0 {
		return zero, false, nil
	}
	return entities[0], true, nil
}

func (r *SQLRepository[T, K, F]) FindAll(ctx context.Context) ([]T, error) {
	return FindByOverview(ctx, r.engine, r.mapper, query.Overview[F]{})
}

func (r *SQLRepository[T, K, F]) FindByOverview(ctx context.Context, ov query.Overview[F]) ([]T, error) {
	return FindByOverview(ctx, r.engine, r.mapper, ov)
}

func (r *SQLRepository[T, K, F]) FindByFilterConditions(ctx context.Context, conditions []filter.Condition, order []query.Order) ([]T, error) {
	return FindByFilterConditions(ctx, r.engine, r.mapper, conditions, order, nil)
}

// FindPage returns the page of ov together with the number of all matching entities.
func (r *SQLRepository[T, K, F]) FindPage(ctx context.Context, ov query.Overview[F]) (*PaginatedResult[T], error) {
	entities, err := r.FindByOverview(ctx, ov)
	if err != nil {
		return nil, err
	}
	total, err := r.Count(ctx, ov.Filter)
	if err != nil {
		return nil, err
	}
	return &PaginatedResult[T]{
		Pagination: ov.Pagination,
		TotalCount: total,
		Results:    entities,
	}, nil
}

func (r *SQLRepository[T, K, F]) ExistsByID(ctx context.Context, id K) (bool, error) {
	where, err := r.keyCondition(id)
	if err != nil {
		return false, err
	}
	count, err := aggregate[int64](ctx, r.engine, r.mapper.DataSet(), query.Count, "*", []filter.Condition{where})
	if err != nil {
		return false, err
	}
	return count.V > 0, nil
}

// Count returns the number of entities matching f. A nil filter counts all entities.
func (r *SQLRepository[T, K, F]) Count(ctx context.Context, f *F) (int64, error) {
	count, err := aggregate[int64](ctx, r.engine, r.mapper.DataSet(), query.Count, "*", r.mapper.ComposeFilterConditions(f))
	if err != nil {
		return 0, err
	}
	return count.V, nil
}

func (r *SQLRepository[T, K, F]) keyCondition(id K) (filter.Condition, error) {
	if isNil(id) {
		return nil, fmt.Errorf("%w: id is nil", ErrInvalidArgument)
	}
	key := []any{id}
	if r.decomposeKey != nil {
		var err error
		if key, err = r.decomposeKey(id); err != nil {
			return nil, err
		}
	}
	where, err := r.mapper.PrimaryKeyCondition(key...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return where, nil
}
