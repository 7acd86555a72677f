package mapper

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var ErrColumnNotFound = errors.New("column not found")

// AttributeSource exposes named column values of one row.
type AttributeSource interface {
	Lookup(name string) (any, bool)
}

// MapSource is an in-memory AttributeSource.
type MapSource map[string]any

func (m MapSource) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// RowSource scans the current row of rows into an AttributeSource.
func RowSource(rows *sqlx.Rows) (AttributeSource, error) {
	row := make(map[string]any)
	if err := rows.MapScan(row); err != nil {
		return nil, err
	}
	return MapSource(row), nil
}

// Value reads the named column from src converted to A.
// A NULL column yields a Null with Valid set to false.
func Value[A any](src AttributeSource, name string) (sql.Null[A], error) {
	raw, ok := src.Lookup(name)
	if !ok {
		return sql.Null[A]{}, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	if v, ok := raw.(A); ok {
		return sql.Null[A]{V: v, Valid: true}, nil
	}
	var n sql.Null[A]
	if err := n.Scan(raw); err != nil {
		return sql.Null[A]{}, fmt.Errorf("column %s: %w", name, err)
	}
	return n, nil
}
