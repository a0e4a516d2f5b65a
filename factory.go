package rowmap

import (
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mapper maps a row into a value
//
// Mappers are stateless and can be reused across rows
type Mapper interface {
	Map(row Row) (any, error)
}

// MapperFunc is an adapter to allow the use of an ordinary func as a Mapper
type MapperFunc func(row Row) (any, error)

func (f MapperFunc) Map(row Row) (any, error) {
	return f(row)
}

// Factory produces Mappers for the types it can map
type Factory interface {
	// CanMap returns true if the factory can produce a Mapper for the target type
	CanMap(target reflect.Type) bool
	// Build produces a Mapper for the target type
	//
	// the registry is supplied so that factories can resolve mappers for component types (e.g. struct fields)
	Build(target reflect.Type, reg *Registry) (Mapper, error)
}

// firstColumn returns the name and value of the first column in a row
func firstColumn(row Row) (name string, value Value) {
	if cols := row.Columns(); len(cols) > 0 {
		name = cols[0]
	}
	value, _ = row.ColumnAt(0)
	return name, value
}

func asConversionError(err error, column string, target reflect.Type, v Value) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return err
	}
	return &ConversionError{
		Column: column,
		Type:   target,
		Value:  v,
		Err:    err,
	}
}

type scalarFactory struct{}

// ScalarFactory returns the built-in factory for integer, float, bool and string types (and pointers to them)
//
// the first column of a row is converted using the narrowest lossless conversion - NULL maps to the zero value
// of the target type (i.e. 0, false, "" or nil)
//
// ScalarFactory is one of the default factories of a Registry
func ScalarFactory() Factory {
	return scalarFactory{}
}

func (scalarFactory) CanMap(target reflect.Type) bool {
	switch kind, _ := ClassifyType(target); kind {
	case FieldPrimitiveNumeric, FieldPrimitiveBool, FieldNullableNumeric, FieldNullableBool, FieldString:
		return true
	}
	return false
}

func (scalarFactory) Build(target reflect.Type, _ *Registry) (Mapper, error) {
	base := target
	ptr := target.Kind() == reflect.Pointer
	if ptr {
		base = target.Elem()
	}
	return MapperFunc(func(row Row) (any, error) {
		name, v := firstColumn(row)
		if v.IsNull() {
			return reflect.Zero(target).Interface(), nil
		}
		x, err := convertScalar(v, base)
		if err != nil {
			return nil, asConversionError(err, name, target, v)
		}
		if ptr {
			return pointerTo(x, base), nil
		}
		return x, nil
	}), nil
}

type valueFactory[V any] struct {
	target  reflect.Type
	convert func(v Value) (V, error)
}

// NewValueFactory creates a Factory for the fixed value type V (and *V)
//
// the convert func is called with the value of the first column in the row - when the target is *V, NULL
// maps to nil without calling convert
func NewValueFactory[V any](convert func(v Value) (V, error)) Factory {
	return &valueFactory[V]{
		target:  reflect.TypeFor[V](),
		convert: convert,
	}
}

func (f *valueFactory[V]) CanMap(target reflect.Type) bool {
	return target == f.target || (target.Kind() == reflect.Pointer && target.Elem() == f.target)
}

func (f *valueFactory[V]) Build(target reflect.Type, _ *Registry) (Mapper, error) {
	ptr := target != f.target
	return MapperFunc(func(row Row) (any, error) {
		name, v := firstColumn(row)
		if ptr && v.IsNull() {
			return (*V)(nil), nil
		}
		r, err := f.convert(v)
		if err != nil {
			return nil, asConversionError(err, name, target, v)
		}
		if ptr {
			return &r, nil
		}
		return r, nil
	}), nil
}

type decimalFactory struct{}

// DecimalFactory returns a factory for decimal.Decimal, *decimal.Decimal and decimal.NullDecimal
//
// integer, float and string column values are widened to decimal - NULL maps to nil (or an invalid
// decimal.NullDecimal) and cannot be mapped to a non-nullable decimal.Decimal
func DecimalFactory() Factory {
	return decimalFactory{}
}

func (decimalFactory) CanMap(target reflect.Type) bool {
	return target == decimalType || target == nullDecimalType ||
		(target.Kind() == reflect.Pointer && target.Elem() == decimalType)
}

func (decimalFactory) Build(target reflect.Type, _ *Registry) (Mapper, error) {
	return MapperFunc(func(row Row) (any, error) {
		name, v := firstColumn(row)
		if v.IsNull() {
			switch target {
			case decimalType:
				return nil, asConversionError(errNullDecimal, name, target, v)
			case nullDecimalType:
				return decimal.NullDecimal{}, nil
			}
			return (*decimal.Decimal)(nil), nil
		}
		d, err := toDecimal(v)
		if err != nil {
			return nil, asConversionError(err, name, target, v)
		}
		switch target {
		case decimalType:
			return d, nil
		case nullDecimalType:
			return decimal.NullDecimal{Decimal: d, Valid: true}, nil
		}
		return &d, nil
	}), nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.DateOnly,
}

// TimeFactory returns a factory for time.Time (and *time.Time)
//
// string column values are parsed (RFC3339 and common sql date/time layouts) - NULL maps to the zero time
// (or nil)
//
// TimeFactory is one of the default factories of a Registry
func TimeFactory() Factory {
	return NewValueFactory[time.Time](func(v Value) (time.Time, error) {
		switch v.Kind() {
		case KindNull:
			return time.Time{}, nil
		case KindTime:
			return v.t, nil
		case KindString:
			for _, layout := range timeLayouts {
				if t, err := time.Parse(layout, v.s); err == nil {
					return t, nil
				}
			}
			return time.Time{}, fmt.Errorf("unrecognised time format %q", v.s)
		}
		return time.Time{}, incompatible(v, "time")
	})
}

// UUIDFactory returns a factory for uuid.UUID (and *uuid.UUID)
//
// string column values are parsed, 16 byte binary values are read as raw uuid bytes - NULL maps to uuid.Nil
// (or nil)
func UUIDFactory() Factory {
	return NewValueFactory[uuid.UUID](func(v Value) (uuid.UUID, error) {
		switch v.Kind() {
		case KindNull:
			return uuid.Nil, nil
		case KindString:
			if len(v.s) == 16 && !strings.Contains(v.s, "-") {
				return uuid.FromBytes([]byte(v.s))
			}
			return uuid.Parse(v.s)
		}
		return uuid.Nil, incompatible(v, "uuid")
	})
}

var scannerType = reflect.TypeFor[sql.Scanner]()

type scannerFactory struct{}

// ScannerFactory returns a factory for any type whose pointer implements sql.Scanner (e.g. sql.NullString)
//
// the column value is passed to the Scan method as a driver value
func ScannerFactory() Factory {
	return scannerFactory{}
}

func (scannerFactory) CanMap(target reflect.Type) bool {
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	return target.Kind() != reflect.Pointer && reflect.PointerTo(target).Implements(scannerType)
}

func (scannerFactory) Build(target reflect.Type, _ *Registry) (Mapper, error) {
	base := target
	ptr := target.Kind() == reflect.Pointer
	if ptr {
		base = target.Elem()
	}
	return MapperFunc(func(row Row) (any, error) {
		name, v := firstColumn(row)
		if ptr && v.IsNull() {
			return reflect.Zero(target).Interface(), nil
		}
		p := reflect.New(base)
		dv, _ := v.Value()
		if err := p.Interface().(sql.Scanner).Scan(dv); err != nil {
			return nil, asConversionError(err, name, target, v)
		}
		if ptr {
			return p.Interface(), nil
		}
		return p.Elem().Interface(), nil
	}), nil
}
