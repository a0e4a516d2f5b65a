package rowmap

import (
	"math"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyType(t *testing.T) {
	testCases := []struct {
		t        reflect.Type
		kind     FieldKind
		nullable bool
	}{
		{reflect.TypeFor[int](), FieldPrimitiveNumeric, false},
		{reflect.TypeFor[uint8](), FieldPrimitiveNumeric, false},
		{reflect.TypeFor[float32](), FieldPrimitiveNumeric, false},
		{reflect.TypeFor[*int64](), FieldNullableNumeric, true},
		{reflect.TypeFor[*float64](), FieldNullableNumeric, true},
		{reflect.TypeFor[bool](), FieldPrimitiveBool, false},
		{reflect.TypeFor[*bool](), FieldNullableBool, true},
		{reflect.TypeFor[string](), FieldString, false},
		{reflect.TypeFor[*string](), FieldString, true},
		{reflect.TypeFor[decimal.Decimal](), FieldDecimal, false},
		{reflect.TypeFor[*decimal.Decimal](), FieldDecimal, true},
		{reflect.TypeFor[decimal.NullDecimal](), FieldDecimal, true},
		{reflect.TypeFor[struct{}](), FieldOther, false},
		{reflect.TypeFor[*struct{}](), FieldOther, true},
		{nil, FieldOther, true},
	}
	for _, tc := range testCases {
		kind, nullable := ClassifyType(tc.t)
		assert.Equal(t, tc.kind, kind, "type: %v", tc.t)
		assert.Equal(t, tc.nullable, nullable, "type: %v", tc.t)
	}
	assert.Equal(t, "nullable-numeric", FieldNullableNumeric.String())
	assert.Equal(t, "FieldKind(42)", FieldKind(42).String())
}

func TestCoerceNull(t *testing.T) {
	v, handled, err := coerceNull(reflect.TypeFor[int]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 0, v)

	v, handled, err = coerceNull(reflect.TypeFor[float64]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, float64(0), v)

	v, handled, err = coerceNull(reflect.TypeFor[bool]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, false, v)

	v, handled, err = coerceNull(reflect.TypeFor[string]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "", v)

	v, handled, err = coerceNull(reflect.TypeFor[*int]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, (*int)(nil), v)

	v, handled, err = coerceNull(reflect.TypeFor[decimal.NullDecimal]())
	require.NoError(t, err)
	assert.True(t, handled)
	assert.False(t, v.(decimal.NullDecimal).Valid)

	_, handled, err = coerceNull(reflect.TypeFor[decimal.Decimal]())
	assert.True(t, handled)
	assert.Error(t, err)

	_, handled, err = coerceNull(reflect.TypeFor[struct{}]())
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestConvertScalar(t *testing.T) {
	testCases := []struct {
		v      Value
		t      reflect.Type
		expect any
	}{
		{Int(16), reflect.TypeFor[int](), 16},
		{Long(16), reflect.TypeFor[int8](), int8(16)},
		{Long(-16), reflect.TypeFor[int16](), int16(-16)},
		{Long(math.MaxInt32), reflect.TypeFor[int32](), int32(math.MaxInt32)},
		{Double(16), reflect.TypeFor[int64](), int64(16)},
		{Decimal(decimal.RequireFromString("16.00")), reflect.TypeFor[int](), 16},
		{Long(255), reflect.TypeFor[uint8](), uint8(255)},
		{Decimal(decimal.NewFromUint64(math.MaxUint64)), reflect.TypeFor[uint64](), uint64(math.MaxUint64)},
		{Int(16), reflect.TypeFor[float32](), float32(16)},
		{Double(0.1), reflect.TypeFor[float32](), float32(0.1)},
		{Decimal(decimal.RequireFromString("16.16")), reflect.TypeFor[float64](), 16.16},
		{Bool(true), reflect.TypeFor[bool](), true},
		{Int(0), reflect.TypeFor[bool](), false},
		{Long(1), reflect.TypeFor[bool](), true},
		{String("foo"), reflect.TypeFor[string](), "foo"},
		{Long(16), reflect.TypeFor[string](), "16"},
		{Bool(false), reflect.TypeFor[string](), "false"},
	}
	for _, tc := range testCases {
		r, err := convertScalar(tc.v, tc.t)
		require.NoError(t, err, "value: %v, type: %v", tc.v, tc.t)
		assert.Equal(t, tc.expect, r, "value: %v, type: %v", tc.v, tc.t)
	}
}

func TestConvertScalar_Errors(t *testing.T) {
	testCases := []struct {
		v      Value
		t      reflect.Type
		expect string
	}{
		{Long(128), reflect.TypeFor[int8](), "value 128 overflows int8"},
		{Long(math.MaxInt32 + 1), reflect.TypeFor[int32](), "value 2147483648 overflows int32"},
		{Long(-1), reflect.TypeFor[uint](), "Long value -1 cannot be converted to unsigned integer without loss"},
		{Long(256), reflect.TypeFor[uint8](), "value 256 overflows uint8"},
		{Double(1.5), reflect.TypeFor[int](), "Double value 1.5 cannot be converted to integer without loss"},
		{Double(1e19), reflect.TypeFor[int64](), "Double value 1e+19 cannot be converted to integer without loss"},
		{Decimal(decimal.RequireFromString("1.5")), reflect.TypeFor[int](), "Decimal value 1.5 cannot be converted to integer without loss"},
		{Decimal(decimal.RequireFromString("99999999999999999999")), reflect.TypeFor[int64](), "Decimal value 99999999999999999999 cannot be converted to integer without loss"},
		{String("1"), reflect.TypeFor[int](), "String value cannot be converted to integer"},
		{Bool(true), reflect.TypeFor[int](), "Boolean value cannot be converted to integer"},
		{Double(1e300), reflect.TypeFor[float32](), "value 1e+300 overflows float32"},
		{String("1.5"), reflect.TypeFor[float64](), "String value cannot be converted to float"},
		{Long(2), reflect.TypeFor[bool](), "Long value 2 cannot be converted to bool without loss"},
		{String("true"), reflect.TypeFor[bool](), "String value cannot be converted to bool"},
		{Long(1), reflect.TypeFor[[]int](), "unsupported scalar type []int"},
	}
	for _, tc := range testCases {
		_, err := convertScalar(tc.v, tc.t)
		require.Error(t, err, "value: %v, type: %v", tc.v, tc.t)
		assert.Equal(t, tc.expect, err.Error())
	}
}

func TestToDecimal(t *testing.T) {
	d, err := toDecimal(Long(16))
	require.NoError(t, err)
	assert.Equal(t, "16", d.String())

	d, err = toDecimal(Double(16.16))
	require.NoError(t, err)
	assert.Equal(t, "16.16", d.String())

	d, err = toDecimal(Float(16.5))
	require.NoError(t, err)
	assert.Equal(t, "16.5", d.String())

	d, err = toDecimal(String("16.160"))
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("16.16")))

	_, err = toDecimal(String("not a number"))
	assert.Error(t, err)

	_, err = toDecimal(Double(math.Inf(1)))
	assert.Error(t, err)

	_, err = toDecimal(Bool(true))
	require.Error(t, err)
	assert.Equal(t, "Boolean value cannot be converted to decimal", err.Error())
}

func TestPointerTo(t *testing.T) {
	p := pointerTo(16, reflect.TypeFor[int]())
	ip, ok := p.(*int)
	require.True(t, ok)
	assert.Equal(t, 16, *ip)
}
