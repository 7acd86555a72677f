package mapper

import (
	"errors"
	"fmt"

	"overviewrepo/pkg/filter"
)

var (
	ErrInvalidMapper      = errors.New("invalid entity mapper")
	ErrDuplicateAttribute = errors.New("duplicate attribute")
	ErrNoPrimaryKey       = errors.New("entity has no primary attribute")
	ErrKeyArity           = errors.New("key does not match primary attributes")
)

// AttributeError reports a failure reading or binding a single attribute.
type AttributeError struct {
	Dataset   string
	Attribute string
	Err       error
}

func (e *AttributeError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Dataset, e.Attribute, e.Err)
}

func (e *AttributeError) Unwrap() error {
	return e.Err
}

// EntityMapper describes how entities of type T are stored in one dataset and how
// filters of type F restrict them.
//
// Attribute order is significant: it is the column order of generated statements
// and the order in which composite keys are decomposed.
// A mapper is immutable once constructed and safe for concurrent use.
type EntityMapper[T, F any] struct {
	dataset    string
	attributes []Attr[T]
	byName     map[string]Attr[T]
	create     func() T
	compose    func(F) []filter.Condition
}

// NewEntityMapper returns a mapper of the dataset. compose may be nil when the
// entity is never filtered.
func NewEntityMapper[T, F any](dataset string, create func() T, compose func(F) []filter.Condition, attributes ...Attr[T]) (*EntityMapper[T, F], error) {
	if dataset == "" {
		return nil, fmt.Errorf("%w: dataset name is empty", ErrInvalidMapper)
	}
	if create == nil {
		return nil, fmt.Errorf("%w: %s: entity constructor is nil", ErrInvalidMapper, dataset)
	}
	if len(attributes) == 0 {
		return nil, fmt.Errorf("%w: %s: no attributes", ErrInvalidMapper, dataset)
	}
	byName := make(map[string]Attr[T], len(attributes))
	for _, attr := range attributes {
		if attr == nil {
			return nil, fmt.Errorf("%w: %s: nil attribute", ErrInvalidMapper, dataset)
		}
		if _, ok := byName[attr.Name()]; ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrDuplicateAttribute, dataset, attr.Name())
		}
		byName[attr.Name()] = attr
	}
	return &EntityMapper[T, F]{
		dataset:    dataset,
		attributes: append([]Attr[T](nil), attributes...),
		byName:     byName,
		create:     create,
		compose:    compose,
	}, nil
}

// MustEntityMapper is like NewEntityMapper but panics on an invalid definition.
func MustEntityMapper[T, F any](dataset string, create func() T, compose func(F) []filter.Condition, attributes ...Attr[T]) *EntityMapper[T, F] {
	m, err := NewEntityMapper(dataset, create, compose, attributes...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *EntityMapper[T, F]) DataSet() string {
	return m.dataset
}

func (m *EntityMapper[T, F]) CreateEntity() T {
	return m.create()
}

func (m *EntityMapper[T, F]) Attributes() []Attr[T] {
	return append([]Attr[T](nil), m.attributes...)
}

func (m *EntityMapper[T, F]) Attribute(name string) (Attr[T], bool) {
	attr, ok := m.byName[name]
	return attr, ok
}

func (m *EntityMapper[T, F]) AttributeNames() []string {
	return names(m.attributes)
}

// AttributeNamesWithPrefix returns "prefix.name AS aliasPrefixname" for every attribute.
// The alias is omitted when aliasPrefix is empty.
func (m *EntityMapper[T, F]) AttributeNamesWithPrefix(prefix, aliasPrefix string) []string {
	result := make([]string, len(m.attributes))
	for i, attr := range m.attributes {
		column := prefix + "." + attr.Name()
		if aliasPrefix != "" {
			column += " AS " + aliasPrefix + attr.Name()
		}
		result[i] = column
	}
	return result
}

// AttributeValues returns the values of entity in AttributeNames order.
func (m *EntityMapper[T, F]) AttributeValues(entity T) []any {
	return values(m.attributes, entity)
}

func (m *EntityMapper[T, F]) PrimaryAttributes() []Attr[T] {
	var result []Attr[T]
	for _, attr := range m.attributes {
		if attr.IsPrimary() {
			result = append(result, attr)
		}
	}
	return result
}

func (m *EntityMapper[T, F]) PrimaryAttributeNames() []string {
	return names(m.PrimaryAttributes())
}

func (m *EntityMapper[T, F]) PrimaryKeyValues(entity T) []any {
	return values(m.PrimaryAttributes(), entity)
}

func (m *EntityMapper[T, F]) NonPrimaryAttributes() []Attr[T] {
	var result []Attr[T]
	for _, attr := range m.attributes {
		if !attr.IsPrimary() {
			result = append(result, attr)
		}
	}
	return result
}

func (m *EntityMapper[T, F]) NonPrimaryAttributeNames() []string {
	return names(m.NonPrimaryAttributes())
}

func (m *EntityMapper[T, F]) NonPrimaryAttributeValues(entity T) []any {
	return values(m.NonPrimaryAttributes(), entity)
}

// ComposeFilterConditions translates filter into conditions. A nil filter means no restriction.
func (m *EntityMapper[T, F]) ComposeFilterConditions(f *F) []filter.Condition {
	if f == nil || m.compose == nil {
		return nil
	}
	return m.compose(*f)
}

// PrimaryKeyCondition returns the conjunction of equalities of the primary attributes,
// in declaration order, to the given key parts.
func (m *EntityMapper[T, F]) PrimaryKeyCondition(key ...any) (filter.Condition, error) {
	primary := m.PrimaryAttributes()
	if len(primary) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, m.dataset)
	}
	if len(primary) != len(key) {
		return nil, fmt.Errorf("%w: %s has %d primary attributes, got %d values", ErrKeyArity, m.dataset, len(primary), len(key))
	}
	conditions := make([]filter.Condition, len(primary))
	for i, attr := range primary {
		conditions[i] = filter.Eq(attr.Name(), key[i])
	}
	return filter.AllOf(conditions...), nil
}

// PrimaryKeyConditionOf returns PrimaryKeyCondition for the current key of entity.
func (m *EntityMapper[T, F]) PrimaryKeyConditionOf(entity T) (filter.Condition, error) {
	return m.PrimaryKeyCondition(m.PrimaryKeyValues(entity)...)
}

// EntityWithKey binds the key parts to the primary attributes of entity.
func (m *EntityMapper[T, F]) EntityWithKey(entity T, key ...any) (T, error) {
	primary := m.PrimaryAttributes()
	if len(primary) != len(key) {
		return entity, fmt.Errorf("%w: %s has %d primary attributes, got %d values", ErrKeyArity, m.dataset, len(primary), len(key))
	}
	src := make(MapSource, len(key))
	for i, attr := range primary {
		src[attr.Name()] = key[i]
	}
	for _, attr := range primary {
		var err error
		if entity, err = attr.Bind(entity, src, attr.Name()); err != nil {
			return entity, &AttributeError{Dataset: m.dataset, Attribute: attr.Name(), Err: err}
		}
	}
	return entity, nil
}

// BuildEntity folds every attribute over a new entity reading columns from src.
func (m *EntityMapper[T, F]) BuildEntity(src AttributeSource) (T, error) {
	return m.BuildEntityWithAlias(src, "")
}

// BuildEntityWithAlias is BuildEntity for columns selected as aliasPrefix+name.
func (m *EntityMapper[T, F]) BuildEntityWithAlias(src AttributeSource, aliasPrefix string) (T, error) {
	entity := m.create()
	for _, attr := range m.attributes {
		var err error
		entity, err = attr.Bind(entity, src, aliasPrefix+attr.Name())
		if err != nil {
			var zero T
			return zero, &AttributeError{Dataset: m.dataset, Attribute: attr.Name(), Err: err}
		}
	}
	return entity, nil
}

func names[T any](attributes []Attr[T]) []string {
	result := make([]string, len(attributes))
	for i, attr := range attributes {
		result[i] = attr.Name()
	}
	return result
}

func values[T any](attributes []Attr[T], entity T) []any {
	result := make([]any, len(attributes))
	for i, attr := range attributes {
		result[i] = attr.ValueOf(entity)
	}
	return result
}
