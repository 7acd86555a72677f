package repository

import (
	"context"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/query"
)

// Repository stores entities of type T identified by keys of type K and filtered by F.
//
// Absent rows are reported through boolean results, never as errors.
type Repository[T, K, F any] interface {
	Create(ctx context.Context, entity T, autogenerateKey bool) (T, error)
	CreateAll(ctx context.Context, entities []T, autogenerateKey bool) ([]T, error)
	Update(ctx context.Context, entity T) (T, bool, error)
	UpdateAttributes(ctx context.Context, id K, values []mapper.AttributeValue) (int64, error)
	Delete(ctx context.Context, id K) (bool, error)
	DeleteByIDs(ctx context.Context, ids []K) (int64, error)
	DeleteByFilter(ctx context.Context, f *F) (int64, error)
	FindByID(ctx context.Context, id K) (T, bool, error)
	FindByAttribute(ctx context.Context, attribute string, value any) (T, bool, error)
	FindAll(ctx context.Context) ([]T, error)
	FindByOverview(ctx context.Context, ov query.Overview[F]) ([]T, error)
	FindByFilterConditions(ctx context.Context, conditions []filter.Condition, order []query.Order) ([]T, error)
	FindPage(ctx context.Context, ov query.Overview[F]) (*PaginatedResult[T], error)
	ExistsByID(ctx context.Context, id K) (bool, error)
	Count(ctx context.Context, f *F) (int64, error)
}

type PaginatedResult[E any] struct {
	Pagination *query.Pagination `json:"pagination"`
	TotalCount int64             `json:"total_count"`
	Results    []E               `json:"results"`
}
