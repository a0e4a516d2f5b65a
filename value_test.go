package rowmap

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		src    any
		expect Value
	}{
		{nil, Null()},
		{int64(16), Long(16)},
		{16, Long(16)},
		{int32(16), Int(16)},
		{int16(16), Int(16)},
		{int8(16), Int(16)},
		{uint8(16), Int(16)},
		{uint16(16), Int(16)},
		{uint32(16), Long(16)},
		{uint64(16), Long(16)},
		{uint(16), Long(16)},
		{float32(1.5), Float(1.5)},
		{1.5, Double(1.5)},
		{true, Bool(true)},
		{"foo", String("foo")},
		{[]byte("foo"), String("foo")},
		{decimal.NewFromInt(10), Decimal(decimal.NewFromInt(10))},
		{(*decimal.Decimal)(nil), Null()},
		{decimal.NullDecimal{}, Null()},
		{decimal.NullDecimal{Decimal: decimal.NewFromInt(1), Valid: true}, Decimal(decimal.NewFromInt(1))},
		{now, Time(now)},
		{Long(3), Long(3)},
	}
	for _, tc := range testCases {
		v, err := ValueOf(tc.src)
		require.NoError(t, err)
		assert.Equal(t, tc.expect, v, "src: %#v", tc.src)
	}

	v, err := ValueOf(uint64(math.MaxUint64))
	require.NoError(t, err)
	assert.Equal(t, KindDecimal, v.Kind())
	assert.Equal(t, "18446744073709551615", v.String())

	_, err = ValueOf(struct{}{})
	require.Error(t, err)
	assert.Equal(t, "unsupported column value type struct {}", err.Error())
}

type testValuer struct {
	v   any
	err error
}

func (t testValuer) Value() (driver.Value, error) {
	return t.v, t.err
}

func TestValueOf_Valuer(t *testing.T) {
	v, err := ValueOf(testValuer{v: "foo"})
	require.NoError(t, err)
	assert.Equal(t, String("foo"), v)

	_, err = ValueOf(testValuer{err: errors.New("fooey")})
	require.Error(t, err)

	_, err = ValueOf(testValuer{v: testValuer{v: "foo"}})
	require.Error(t, err)
}

func TestValue_Accessors(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.Equal(t, KindNull, Value{}.Kind())

	i, ok := Int(3).AsInt64()
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)
	_, ok = Double(3).AsInt64()
	assert.False(t, ok)

	f, ok := Float(1.5).AsFloat64()
	assert.True(t, ok)
	assert.Equal(t, 1.5, f)

	b, ok := Bool(true).AsBool()
	assert.True(t, ok)
	assert.True(t, b)

	s, ok := String("foo").AsString()
	assert.True(t, ok)
	assert.Equal(t, "foo", s)

	d, ok := Decimal(decimal.NewFromInt(2)).AsDecimal()
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(2)))

	now := time.Now()
	tm, ok := Time(now).AsTime()
	assert.True(t, ok)
	assert.Equal(t, now, tm)

	assert.True(t, Long(1).IsNumeric())
	assert.True(t, Float(1).IsNumeric())
	assert.True(t, Decimal(decimal.Zero).IsNumeric())
	assert.False(t, String("1").IsNumeric())
}

func TestValue_Any(t *testing.T) {
	assert.Nil(t, Null().Any())
	assert.Equal(t, int32(1), Int(1).Any())
	assert.Equal(t, int64(1), Long(1).Any())
	assert.Equal(t, float32(1.5), Float(1.5).Any())
	assert.Equal(t, 1.5, Double(1.5).Any())
	assert.Equal(t, true, Bool(true).Any())
	assert.Equal(t, "foo", String("foo").Any())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "NULL", Null().String())
	assert.Equal(t, "16", Int(16).String())
	assert.Equal(t, "0.1", Float(0.1).String())
	assert.Equal(t, "0.1", Double(0.1).String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "16.16", Decimal(decimal.RequireFromString("16.16")).String())
	assert.Equal(t, "Decimal", KindDecimal.String())
	assert.Equal(t, "Kind(99)", Kind(99).String())
}

func TestValue_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(map[string]Value{
		"a": Null(),
		"b": Long(16),
		"c": Double(1.5),
		"d": Bool(false),
		"e": String("foo"),
		"f": Decimal(decimal.RequireFromString("16.16")),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":null,"b":16,"c":1.5,"d":false,"e":"foo","f":"16.16"}`, string(data))

	_, err = json.Marshal(Double(math.NaN()))
	assert.Error(t, err)
}

func TestValue_DriverValue(t *testing.T) {
	testCases := []struct {
		v      Value
		expect any
	}{
		{Null(), nil},
		{Int(1), int64(1)},
		{Float(1.5), 1.5},
		{Bool(true), true},
		{String("foo"), "foo"},
		{Decimal(decimal.RequireFromString("1.10")), "1.1"},
	}
	for _, tc := range testCases {
		dv, err := tc.v.Value()
		require.NoError(t, err)
		assert.Equal(t, tc.expect, dv)
	}
}
