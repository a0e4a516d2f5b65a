package rowmap

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies which variant of a Value is active
type Kind int

const (
	KindNull Kind = iota
	KindInteger
	KindLong
	KindFloat
	KindDouble
	KindBoolean
	KindString
	KindDecimal
	KindTime
)

var kindNames = [...]string{
	KindNull:    "Null",
	KindInteger: "Integer",
	KindLong:    "Long",
	KindFloat:   "Float",
	KindDouble:  "Double",
	KindBoolean: "Boolean",
	KindString:  "String",
	KindDecimal: "Decimal",
	KindTime:    "Time",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a single column value read from a row
//
// exactly one variant (see Kind) is active - the zero Value is Null
type Value struct {
	kind Kind
	i    int64
	f    float64
	b    bool
	s    string
	d    decimal.Decimal
	t    time.Time
}

// Null returns the Null value
func Null() Value {
	return Value{}
}

// Int returns an Integer value
func Int(v int32) Value {
	return Value{kind: KindInteger, i: int64(v)}
}

// Long returns a Long value
func Long(v int64) Value {
	return Value{kind: KindLong, i: v}
}

// Float returns a Float value
func Float(v float32) Value {
	return Value{kind: KindFloat, f: float64(v)}
}

// Double returns a Double value
func Double(v float64) Value {
	return Value{kind: KindDouble, f: v}
}

// Bool returns a Boolean value
func Bool(v bool) Value {
	return Value{kind: KindBoolean, b: v}
}

// String returns a String value
func String(v string) Value {
	return Value{kind: KindString, s: v}
}

// Decimal returns a Decimal value
func Decimal(v decimal.Decimal) Value {
	return Value{kind: KindDecimal, d: v}
}

// Time returns a Time value
func Time(v time.Time) Value {
	return Value{kind: KindTime, t: v}
}

// ValueOf converts a value, as produced by a database driver, into a Value
func ValueOf(src any) (Value, error) {
	switch v := src.(type) {
	case nil:
		return Null(), nil
	case Value:
		return v, nil
	case int64:
		return Long(v), nil
	case int:
		return Long(int64(v)), nil
	case int32:
		return Int(v), nil
	case int16:
		return Int(int32(v)), nil
	case int8:
		return Int(int32(v)), nil
	case uint8:
		return Int(int32(v)), nil
	case uint16:
		return Int(int32(v)), nil
	case uint32:
		return Long(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Decimal(decimal.NewFromUint64(v)), nil
		}
		return Long(int64(v)), nil
	case uint:
		return ValueOf(uint64(v))
	case float32:
		return Float(v), nil
	case float64:
		return Double(v), nil
	case bool:
		return Bool(v), nil
	case string:
		return String(v), nil
	case []byte:
		return String(string(v)), nil
	case decimal.Decimal:
		return Decimal(v), nil
	case *decimal.Decimal:
		if v == nil {
			return Null(), nil
		}
		return Decimal(*v), nil
	case decimal.NullDecimal:
		if !v.Valid {
			return Null(), nil
		}
		return Decimal(v.Decimal), nil
	case time.Time:
		return Time(v), nil
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return Null(), err
		}
		if _, again := dv.(driver.Valuer); again {
			return Null(), fmt.Errorf("unsupported column value type %T", src)
		}
		return ValueOf(dv)
	}
	return Null(), fmt.Errorf("unsupported column value type %T", src)
}

// Kind returns the active variant
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if the value is Null
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsInteger returns true for Integer and Long values
func (v Value) IsInteger() bool {
	return v.kind == KindInteger || v.kind == KindLong
}

// IsFloat returns true for Float and Double values
func (v Value) IsFloat() bool {
	return v.kind == KindFloat || v.kind == KindDouble
}

// IsNumeric returns true for integer, float and decimal values
func (v Value) IsNumeric() bool {
	return v.IsInteger() || v.IsFloat() || v.kind == KindDecimal
}

// AsInt64 returns the value of an Integer or Long
func (v Value) AsInt64() (int64, bool) {
	return v.i, v.IsInteger()
}

// AsFloat64 returns the value of a Float or Double
func (v Value) AsFloat64() (float64, bool) {
	return v.f, v.IsFloat()
}

// AsBool returns the value of a Boolean
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBoolean
}

// AsString returns the value of a String
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsDecimal returns the value of a Decimal
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	return v.d, v.kind == KindDecimal
}

// AsTime returns the value of a Time
func (v Value) AsTime() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Any returns the value as a plain Go value (nil for Null)
func (v Value) Any() any {
	switch v.kind {
	case KindInteger:
		return int32(v.i)
	case KindLong:
		return v.i
	case KindFloat:
		return float32(v.f)
	case KindDouble:
		return v.f
	case KindBoolean:
		return v.b
	case KindString:
		return v.s
	case KindDecimal:
		return v.d
	case KindTime:
		return v.t
	}
	return nil
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindInteger, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.s
	case KindDecimal:
		return v.d.String()
	case KindTime:
		return v.t.Format(time.RFC3339Nano)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInteger, KindLong:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat, KindDouble:
		return json.Marshal(v.f)
	case KindBoolean:
		return json.Marshal(v.b)
	case KindString:
		return json.Marshal(v.s)
	case KindDecimal:
		return v.d.MarshalJSON()
	case KindTime:
		return v.t.MarshalJSON()
	}
	return []byte("null"), nil
}
