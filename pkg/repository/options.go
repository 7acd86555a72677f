package repository

import (
	"fmt"
	"log/slog"

	"overviewrepo/pkg/sqlbuilder"
)

type options struct {
	logger       *slog.Logger
	adapt        sqlbuilder.ValueAdapter
	decomposeKey func(any) ([]any, error)
	convertKey   func(int64) (any, error)
}

func newOptions(opts []Option) options {
	o := options{
		logger:     slog.Default(),
		adapt:      sqlbuilder.DefaultValueAdapter,
		convertKey: func(id int64) (any, error) { return id, nil },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Option func(*options)

// WithLogger sets the logger SQL statements are traced to. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithValueAdapter replaces the conversion applied to every statement parameter.
func WithValueAdapter(adapt sqlbuilder.ValueAdapter) Option {
	return func(o *options) {
		if adapt != nil {
			o.adapt = adapt
		}
	}
}

// WithKeyDecomposer splits a composite key into the values of the primary
// attributes in declaration order. Without it a key is a single value.
func WithKeyDecomposer[K any](decompose func(K) []any) Option {
	return func(o *options) {
		o.decomposeKey = func(key any) ([]any, error) {
			k, ok := key.(K)
			if !ok {
				return nil, fmt.Errorf("%w: key type %T", ErrInvalidArgument, key)
			}
			return decompose(k), nil
		}
	}
}

// WithGeneratedKeyConverter converts the generated id before it is bound to the
// primary attribute, e.g. to a string key type.
func WithGeneratedKeyConverter(convert func(int64) (any, error)) Option {
	return func(o *options) {
		if convert != nil {
			o.convertKey = convert
		}
	}
}
