package mapper

import (
	"fmt"

	"overviewrepo/pkg/query"
)

// Cardinality selects how a JoinEntityMapper is resolved.
type Cardinality int

const (
	// One resolves the join in a single query; each first entity has at most one second entity.
	One Cardinality = iota + 1
	// Many loads the paginated first entities and their related second entities with two queries.
	Many
)

func (c Cardinality) String() string {
	switch c {
	case One:
		return "one"
	case Many:
		return "many"
	default:
		return fmt.Sprintf("cardinality(%d)", int(c))
	}
}

// JoinOn is the equality between an attribute of T and an attribute of U.
type JoinOn[T, U any, O comparable] struct {
	First  *Attribute[T, O]
	Second *Attribute[U, O]
}

// JoinEntityMapper combines first entities T (filtered by F) with related second
// entities U (filtered by G) into V. H is the combined filter.
type JoinEntityMapper[T, F, U, G, V, H any, O comparable] struct {
	First  *EntityMapper[T, F]
	Second *EntityMapper[U, G]
	On     JoinOn[T, U, O]
	// DecomposeFilter splits the combined filter. A nil result means no restriction on that side.
	DecomposeFilter func(*H) (*F, *G)
	// DecomposeOrder splits the combined ordering. Defaults to OrderingToIdenticalAndEmpty.
	DecomposeOrder func([]query.Order) ([]query.Order, []query.Order)
	// Compose builds V from a first entity and its related second entities.
	Compose     func(T, []U) V
	Cardinality Cardinality
}

func (m *JoinEntityMapper[T, F, U, G, V, H, O]) Validate() error {
	switch {
	case m.First == nil || m.Second == nil:
		return fmt.Errorf("%w: join needs both entity mappers", ErrInvalidMapper)
	case m.On.First == nil || m.On.Second == nil:
		return fmt.Errorf("%w: join %s-%s: join attributes are not set", ErrInvalidMapper, m.First.DataSet(), m.Second.DataSet())
	case m.DecomposeFilter == nil:
		return fmt.Errorf("%w: join %s-%s: filter decomposition is not set", ErrInvalidMapper, m.First.DataSet(), m.Second.DataSet())
	case m.Compose == nil:
		return fmt.Errorf("%w: join %s-%s: compose function is not set", ErrInvalidMapper, m.First.DataSet(), m.Second.DataSet())
	case m.Cardinality != One && m.Cardinality != Many:
		return fmt.Errorf("%w: join %s-%s: %s", ErrInvalidMapper, m.First.DataSet(), m.Second.DataSet(), m.Cardinality)
	}
	return nil
}

// Decompose applies the filter and order decompositions to ov.
func (m *JoinEntityMapper[T, F, U, G, V, H, O]) Decompose(ov query.Overview[H]) (query.Overview[F], query.Overview[G]) {
	decomposeOrder := m.DecomposeOrder
	if decomposeOrder == nil {
		decomposeOrder = OrderingToIdenticalAndEmpty
	}
	firstFilter, secondFilter := m.DecomposeFilter(ov.Filter)
	firstOrder, secondOrder := decomposeOrder(ov.Order)
	return query.New(firstFilter, firstOrder, ov.Pagination), query.New(secondFilter, secondOrder, nil)
}
