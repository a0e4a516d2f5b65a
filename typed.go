package rowmap

import (
	"fmt"
	"reflect"
)

// TypedMapper maps rows into values of type T
type TypedMapper[T any] interface {
	// Map maps a single row
	//
	// on error, the zero T is returned - never a partially mapped value
	Map(row Row) (T, error)
	// MapAll maps all remaining rows of the cursor, in cursor order
	//
	// options can be any of Limiter or ErrorTranslator
	MapAll(cursor Cursor, options ...any) ([]T, error)
}

// Resolve resolves a TypedMapper for T from the registry
//
// if no factory in the registry can map T, returns an UnregisteredTypeError
func Resolve[T any](reg *Registry) (TypedMapper[T], error) {
	m, err := reg.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	return &typedMapper[T]{mapper: m}, nil
}

// MustResolve is the same as Resolve, except it panics on error
func MustResolve[T any](reg *Registry) TypedMapper[T] {
	m, err := Resolve[T](reg)
	if err != nil {
		panic(err)
	}
	return m
}

// MapAll resolves a mapper for T and maps all remaining rows of the cursor
//
// options can be any of Limiter or ErrorTranslator
func MapAll[T any](reg *Registry, cursor Cursor, options ...any) ([]T, error) {
	_, translator, err := mapAllOptions(options)
	if err != nil {
		return nil, err
	}
	m, err := Resolve[T](reg)
	if err != nil {
		return nil, translateError(err, translator)
	}
	return m.MapAll(cursor, options...)
}

type typedMapper[T any] struct {
	mapper Mapper
}

var _ TypedMapper[int] = (*typedMapper[int])(nil)

func (m *typedMapper[T]) Map(row Row) (result T, err error) {
	var v any
	if v, err = m.mapper.Map(row); err == nil && v != nil {
		if t, ok := v.(T); ok {
			result = t
		} else {
			err = fmt.Errorf("mapper produced %T, expected %s", v, reflect.TypeFor[T]())
		}
	}
	return result, err
}

func (m *typedMapper[T]) MapAll(cursor Cursor, options ...any) ([]T, error) {
	limiter, translator, err := mapAllOptions(options)
	if err != nil {
		return nil, err
	}
	result := make([]T, 0)
	rowCount := 0
	for cursor.Next() {
		rowCount++
		if limiter.LimitReached(rowCount) {
			break
		}
		item, err := m.Map(cursor)
		if err != nil {
			return nil, translateError(err, translator)
		}
		result = append(result, item)
	}
	if err = cursor.Err(); err != nil {
		return nil, translateError(err, translator)
	}
	return result, nil
}

func mapAllOptions(options []any) (limiter Limiter, translator ErrorTranslator, err error) {
	limiter = defaultLimiter
	translator = defaultErrorTranslator
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Limiter:
				limiter = option
			case ErrorTranslator:
				translator = option
			default:
				err = fmt.Errorf("unknown option type: %T", o)
				return
			}
		}
	}
	return
}
