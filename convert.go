package rowmap

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKind classifies a target type for the purposes of NULL coercion
type FieldKind int

const (
	// FieldPrimitiveNumeric is a non-pointer integer or float type - NULL maps to 0
	FieldPrimitiveNumeric FieldKind = iota
	// FieldPrimitiveBool is a non-pointer bool type - NULL maps to false
	FieldPrimitiveBool
	// FieldNullableNumeric is a pointer to an integer or float type - NULL maps to nil
	FieldNullableNumeric
	// FieldNullableBool is a pointer to a bool type - NULL maps to nil
	FieldNullableBool
	// FieldString is a string or *string type - NULL maps to "" or nil
	FieldString
	// FieldDecimal is decimal.Decimal, *decimal.Decimal or decimal.NullDecimal - NULL maps to nil or an invalid
	// decimal.NullDecimal (NULL cannot be mapped to a non-nullable decimal.Decimal)
	FieldDecimal
	// FieldOther is any other type - NULL handling is left to the factory that maps the type
	FieldOther
)

var fieldKindNames = [...]string{
	FieldPrimitiveNumeric: "primitive-numeric",
	FieldPrimitiveBool:    "primitive-boolean",
	FieldNullableNumeric:  "nullable-numeric",
	FieldNullableBool:     "nullable-boolean",
	FieldString:           "string",
	FieldDecimal:          "decimal",
	FieldOther:            "other",
}

func (k FieldKind) String() string {
	if k >= 0 && int(k) < len(fieldKindNames) {
		return fieldKindNames[k]
	}
	return fmt.Sprintf("FieldKind(%d)", int(k))
}

var (
	decimalType     = reflect.TypeFor[decimal.Decimal]()
	nullDecimalType = reflect.TypeFor[decimal.NullDecimal]()
	timeType        = reflect.TypeFor[time.Time]()
)

var errNullDecimal = errors.New("NULL cannot be mapped to a non-nullable decimal")

// ClassifyType returns the FieldKind of a type and whether the type can represent NULL
func ClassifyType(t reflect.Type) (kind FieldKind, nullable bool) {
	if t == nil {
		return FieldOther, true
	}
	base := t
	if t.Kind() == reflect.Pointer {
		nullable = true
		base = t.Elem()
	}
	if base == decimalType {
		return FieldDecimal, nullable
	} else if t == nullDecimalType {
		return FieldDecimal, true
	}
	switch base.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if nullable {
			return FieldNullableNumeric, true
		}
		return FieldPrimitiveNumeric, false
	case reflect.Bool:
		if nullable {
			return FieldNullableBool, true
		}
		return FieldPrimitiveBool, false
	case reflect.String:
		return FieldString, nullable
	}
	return FieldOther, nullable
}

// coerceNull applies the NULL coercion rules for a target type
//
// handled is false when NULL handling is left to the factory for the type
func coerceNull(t reflect.Type) (value any, handled bool, err error) {
	kind, nullable := ClassifyType(t)
	switch {
	case kind == FieldDecimal && !nullable:
		return nil, true, errNullDecimal
	case kind == FieldOther && !nullable:
		return nil, false, nil
	}
	return reflect.Zero(t).Interface(), true, nil
}

// convertScalar converts a non-null value to a (non-pointer) integer, float, bool or string type
func convertScalar(v Value, t reflect.Type) (any, error) {
	rv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if rv.OverflowInt(i) {
			return nil, fmt.Errorf("value %d overflows %s", i, t)
		}
		rv.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u, err := toUint64(v)
		if err != nil {
			return nil, err
		}
		if rv.OverflowUint(u) {
			return nil, fmt.Errorf("value %d overflows %s", u, t)
		}
		rv.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if !math.IsInf(f, 0) && !math.IsNaN(f) && rv.OverflowFloat(f) {
			return nil, fmt.Errorf("value %g overflows %s", f, t)
		}
		rv.SetFloat(f)
	case reflect.Bool:
		b, err := toBool(v)
		if err != nil {
			return nil, err
		}
		rv.SetBool(b)
	case reflect.String:
		rv.SetString(v.String())
	default:
		return nil, fmt.Errorf("unsupported scalar type %s", t)
	}
	return rv.Interface(), nil
}

func lossy(v Value, to string) error {
	return fmt.Errorf("%s value %s cannot be converted to %s without loss", v.Kind(), v.String(), to)
}

func incompatible(v Value, to string) error {
	return fmt.Errorf("%s value cannot be converted to %s", v.Kind(), to)
}

const twoTo63 = float64(1 << 63)

func toInt64(v Value) (int64, error) {
	switch v.Kind() {
	case KindInteger, KindLong:
		return v.i, nil
	case KindFloat, KindDouble:
		if v.f != math.Trunc(v.f) || v.f < -twoTo63 || v.f >= twoTo63 {
			return 0, lossy(v, "integer")
		}
		return int64(v.f), nil
	case KindDecimal:
		if !v.d.IsInteger() {
			return 0, lossy(v, "integer")
		}
		bi := v.d.BigInt()
		if !bi.IsInt64() {
			return 0, lossy(v, "integer")
		}
		return bi.Int64(), nil
	}
	return 0, incompatible(v, "integer")
}

func toUint64(v Value) (uint64, error) {
	switch v.Kind() {
	case KindInteger, KindLong:
		if v.i < 0 {
			return 0, lossy(v, "unsigned integer")
		}
		return uint64(v.i), nil
	case KindFloat, KindDouble:
		if v.f != math.Trunc(v.f) || v.f < 0 || v.f >= 2*twoTo63 {
			return 0, lossy(v, "unsigned integer")
		}
		return uint64(v.f), nil
	case KindDecimal:
		if !v.d.IsInteger() {
			return 0, lossy(v, "unsigned integer")
		}
		bi := v.d.BigInt()
		if bi.Sign() < 0 || !bi.IsUint64() {
			return 0, lossy(v, "unsigned integer")
		}
		return bi.Uint64(), nil
	}
	return 0, incompatible(v, "unsigned integer")
}

// toFloat64 widens numeric values to float64 - floats are approximate, so only range is checked by the caller
func toFloat64(v Value) (float64, error) {
	switch v.Kind() {
	case KindInteger, KindLong:
		return float64(v.i), nil
	case KindFloat, KindDouble:
		return v.f, nil
	case KindDecimal:
		f, _ := v.d.Float64()
		return f, nil
	}
	return 0, incompatible(v, "float")
}

func toBool(v Value) (bool, error) {
	switch v.Kind() {
	case KindBoolean:
		return v.b, nil
	case KindInteger, KindLong:
		switch v.i {
		case 0:
			return false, nil
		case 1:
			return true, nil
		}
		return false, lossy(v, "bool")
	}
	return false, incompatible(v, "bool")
}

func toDecimal(v Value) (decimal.Decimal, error) {
	switch v.Kind() {
	case KindDecimal:
		return v.d, nil
	case KindInteger, KindLong:
		return decimal.NewFromInt(v.i), nil
	case KindFloat:
		return decimal.NewFromFloat32(float32(v.f)), nil
	case KindDouble:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return decimal.Zero, lossy(v, "decimal")
		}
		return decimal.NewFromFloat(v.f), nil
	case KindString:
		return decimal.NewFromString(v.s)
	}
	return decimal.Zero, incompatible(v, "decimal")
}

// Value implements driver.Valuer, so that a Value can be passed as a query arg (or to a sql.Scanner)
func (v Value) Value() (driver.Value, error) {
	switch v.kind {
	case KindInteger, KindLong:
		return v.i, nil
	case KindFloat, KindDouble:
		return v.f, nil
	case KindBoolean:
		return v.b, nil
	case KindString:
		return v.s, nil
	case KindDecimal:
		return v.d.String(), nil
	case KindTime:
		return v.t, nil
	}
	return nil, nil
}

// pointerTo returns a pointer (of type *t) to a copy of x
func pointerTo(x any, t reflect.Type) any {
	p := reflect.New(t)
	p.Elem().Set(reflect.ValueOf(x))
	return p.Interface()
}
