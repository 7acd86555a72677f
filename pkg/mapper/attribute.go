package mapper

import (
	"reflect"

	"overviewrepo/pkg/filter"
	"overviewrepo/pkg/query"
)

// Attr is the type-erased view of an Attribute used by EntityMapper.
type Attr[T any] interface {
	Name() string
	IsPrimary() bool
	// Type is the Go type of the attribute value.
	Type() reflect.Type
	ValueOf(entity T) any
	// Bind reads column from src and returns the entity with the attribute populated.
	Bind(entity T, src AttributeSource, column string) (T, error)
}

// Attribute binds the column name to a field of T of type A through explicit accessors.
//
// The setter returns the entity so that both pointer entities mutated in place and
// value entities copied on write can be mapped.
type Attribute[T, A any] struct {
	name    string
	primary bool
	get     func(T) A
	set     func(T, A) T
}

// Column returns an attribute for the named column.
func Column[T, A any](name string, get func(T) A, set func(T, A) T) *Attribute[T, A] {
	return &Attribute[T, A]{name: name, get: get, set: set}
}

// AsPrimary returns a copy of the attribute marked as part of the primary key.
func (a *Attribute[T, A]) AsPrimary() *Attribute[T, A] {
	c := *a
	c.primary = true
	return &c
}

func (a *Attribute[T, A]) Name() string {
	return a.name
}

func (a *Attribute[T, A]) IsPrimary() bool {
	return a.primary
}

func (a *Attribute[T, A]) Type() reflect.Type {
	return reflect.TypeFor[A]()
}

func (a *Attribute[T, A]) Get(entity T) A {
	return a.get(entity)
}

func (a *Attribute[T, A]) Set(entity T, value A) T {
	return a.set(entity, value)
}

func (a *Attribute[T, A]) ValueOf(entity T) any {
	return a.get(entity)
}

func (a *Attribute[T, A]) Bind(entity T, src AttributeSource, column string) (T, error) {
	v, err := Value[A](src, column)
	if err != nil {
		return entity, err
	}
	return a.set(entity, v.V), nil
}

func (a *Attribute[T, A]) Eq(value A) filter.Condition {
	return filter.Eq(a.name, value)
}

func (a *Attribute[T, A]) In(values ...A) filter.Condition {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return filter.InValues(a.name, vs)
}

func (a *Attribute[T, A]) Asc() query.Order {
	return query.Asc(a.name)
}

func (a *Attribute[T, A]) Desc() query.Order {
	return query.Desc(a.name)
}

// To pairs the attribute with a new value for a partial update.
func (a *Attribute[T, A]) To(value A) AttributeValue {
	return AttributeValue{Name: a.name, Value: value}
}

// AttributeValue is a column name with the value it should be updated to.
type AttributeValue struct {
	Name  string
	Value any
}
