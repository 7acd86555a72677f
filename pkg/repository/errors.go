package repository

import (
	"errors"
	"reflect"

	"overviewrepo/pkg/mapper"
	"overviewrepo/pkg/sqlbuilder"
)

var (
	// ErrInvalidArgument reports a caller bug such as a nil entity or an unknown attribute.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrUnsupportedAggregation = sqlbuilder.ErrUnsupportedAggregation

	// ErrNoGeneratedKey is returned by Create when the database generated no key.
	ErrNoGeneratedKey = errors.New("no generated key")
)

// Error wraps every data-access failure of a repository operation.
type Error struct {
	Op      string
	Dataset string
	// Attribute is set when mapping a single attribute failed.
	Attribute string
	Err       error
}

func (e *Error) Error() string {
	msg := "repository: " + e.Op + " " + e.Dataset
	if e.Attribute != "" {
		msg += "." + e.Attribute
	}
	return msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, dataset string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidArgument) {
		return err
	}
	e := &Error{Op: op, Dataset: dataset, Err: err}
	var attrErr *mapper.AttributeError
	if errors.As(err, &attrErr) {
		e.Attribute = attrErr.Attribute
	}
	return e
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
