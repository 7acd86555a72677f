package query

import "fmt"

// Overview is a read request: an optional filter, ordering and optional pagination.
type Overview[F any] struct {
	Filter     *F
	Order      []Order
	Pagination *Pagination
}

// New returns an Overview for the given filter, ordering and pagination.
func New[F any](filter *F, order []Order, pagination *Pagination) Overview[F] {
	return Overview[F]{Filter: filter, Order: order, Pagination: pagination}
}

// Order is one ORDER BY item. Column is used verbatim and may be dataset qualified.
type Order struct {
	Column     string
	Descending bool
}

func Asc(column string) Order {
	return Order{Column: column}
}

func Desc(column string) Order {
	return Order{Column: column, Descending: true}
}

// SQL renders the order item as it appears in an ORDER BY clause.
func (o Order) SQL() string {
	if o.Descending {
		return o.Column + " DESC"
	}
	return o.Column
}

type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Page returns a pagination for the zero based page of the given size.
func Page(page, size int) *Pagination {
	return &Pagination{Limit: size, Offset: page * size}
}

func (p Pagination) Validate() error {
	if p.Limit < 0 || p.Offset < 0 {
		return fmt.Errorf("pagination must not be negative: limit=%d offset=%d", p.Limit, p.Offset)
	}
	return nil
}
