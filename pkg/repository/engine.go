package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"overviewrepo/pkg/datasource"
	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/sqlbuilder"
)

// LevelTrace is the level executed statements and their parameters are logged at.
const LevelTrace = slog.LevelDebug - 4

// Engine executes statements, each on its own acquired resource.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	provider datasource.Provider
	logger   *slog.Logger
	adapt    sqlbuilder.ValueAdapter
}

func NewEngine(provider datasource.Provider, opts ...Option) *Engine {
	o := newOptions(opts)
	return &Engine{provider: provider, logger: o.logger, adapt: o.adapt}
}

// withResource runs fn on a newly acquired resource. Without auto-commit the
// resource is committed when fn succeeds and rolled back otherwise.
// The resource is closed on every path.
func (e *Engine) withResource(ctx context.Context, fn func(datasource.Resource) error) (err error) {
	res, err := e.provider.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if !res.AutoCommit() {
				_ = res.Rollback()
			}
			_ = res.Close()
			panic(p)
		}
		if !res.AutoCommit() {
			if err == nil {
				err = res.Commit()
			} else {
				err = errors.Join(err, res.Rollback())
			}
		}
		err = errors.Join(err, res.Close())
	}()
	return fn(res)
}

func (e *Engine) exec(ctx context.Context, res datasource.Resource, dataset, statement string, params []any) (sql.Result, error) {
	e.trace(ctx, dataset, statement, params)
	return res.ExecContext(ctx, statement, params...)
}

// execAffected runs statement on its own resource and returns the affected row count.
func (e *Engine) execAffected(ctx context.Context, dataset, statement string, params []any) (int64, error) {
	var affected int64
	err := e.withResource(ctx, func(res datasource.Resource) error {
		result, err := e.exec(ctx, res, dataset, statement, params)
		if err != nil {
			return err
		}
		affected, err = result.RowsAffected()
		return err
	})
	return affected, err
}

func (e *Engine) query(ctx context.Context, res datasource.Resource, dataset, statement string, params []any, row func(mapper.AttributeSource) error) error {
	e.trace(ctx, dataset, statement, params)
	rows, err := res.QueryxContext(ctx, statement, params...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		src, err := mapper.RowSource(rows)
		if err != nil {
			return err
		}
		if err := row(src); err != nil {
			return err
		}
	}
	return rows.Err()
}

// selectAll executes sel on its own resource and builds one result per row.
// Any row failing to build fails the whole read.
func selectAll[R any](ctx context.Context, e *Engine, dataset string, sel sqlbuilder.Select, build func(mapper.AttributeSource) (R, error)) ([]R, error) {
	statement, params, err := sel.Build(e.adapt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	var results []R
	err = e.withResource(ctx, func(res datasource.Resource) error {
		return e.query(ctx, res, dataset, statement, params, func(src mapper.AttributeSource) error {
			r, err := build(src)
			if err != nil {
				return err
			}
			results = append(results, r)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []R{}
	}
	return results, nil
}

func (e *Engine) trace(ctx context.Context, dataset, statement string, params []any) {
	if !e.logger.Enabled(ctx, LevelTrace) {
		return
	}
	e.logger.LogAttrs(ctx, LevelTrace, "executing statement",
		slog.String("dataset", dataset),
		slog.String("sql", statement),
		slog.Any("params", params))
}
