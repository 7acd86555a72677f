package mapper

import "overviewrepo/pkg/query"

// FilterToIdenticalAnd uses the combined filter for the first side and right for the second.
func FilterToIdenticalAnd[F, G any](right *G) func(*F) (*F, *G) {
	return func(f *F) (*F, *G) {
		return f, right
	}
}

// OrderingToIdenticalAnd uses the combined ordering for the first side and right for the second.
func OrderingToIdenticalAnd(right ...query.Order) func([]query.Order) ([]query.Order, []query.Order) {
	return func(order []query.Order) ([]query.Order, []query.Order) {
		return order, right
	}
}

// OrderingToIdenticalAndEmpty uses the combined ordering for the first side only.
func OrderingToIdenticalAndEmpty(order []query.Order) ([]query.Order, []query.Order) {
	return order, nil
}
