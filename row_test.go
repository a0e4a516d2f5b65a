package rowmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRow(t *testing.T) {
	r, err := NewRow([]string{"Id", "name", "ID"}, []any{int64(1), "foo", int64(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Id", "name", "ID"}, r.Columns())

	v, ok := r.Column("id")
	require.True(t, ok)
	assert.Equal(t, Long(1), v)
	v, ok = r.Column("NAME")
	require.True(t, ok)
	assert.Equal(t, String("foo"), v)
	_, ok = r.Column("unknown")
	assert.False(t, ok)

	v, ok = r.ColumnAt(2)
	require.True(t, ok)
	assert.Equal(t, Long(2), v)
	_, ok = r.ColumnAt(3)
	assert.False(t, ok)
	_, ok = r.ColumnAt(-1)
	assert.False(t, ok)
}

func TestNewRow_Errors(t *testing.T) {
	_, err := NewRow([]string{"a", "b"}, []any{1})
	require.Error(t, err)
	assert.Equal(t, "row has 2 columns but 1 values", err.Error())

	_, err = NewRow([]string{"a"}, []any{struct{}{}})
	require.Error(t, err)
	assert.Equal(t, `column "a": unsupported column value type struct {}`, err.Error())

	require.Panics(t, func() {
		_ = MustNewRow([]string{"a"}, nil)
	})
}

func TestSingleColumnRow(t *testing.T) {
	r := singleColumnRow{name: "Foo", value: Long(1)}
	assert.Equal(t, []string{"Foo"}, r.Columns())
	v, ok := r.Column("foo")
	require.True(t, ok)
	assert.Equal(t, Long(1), v)
	_, ok = r.Column("bar")
	assert.False(t, ok)
	v, ok = r.ColumnAt(0)
	require.True(t, ok)
	assert.Equal(t, Long(1), v)
	_, ok = r.ColumnAt(1)
	assert.False(t, ok)
}

func TestSliceCursor(t *testing.T) {
	c := NewSliceCursor(
		MustNewRow([]string{"id"}, []any{int64(1)}),
		MustNewRow([]string{"id"}, []any{int64(2)}),
	)
	assert.Nil(t, c.Columns())
	_, ok := c.Column("id")
	assert.False(t, ok)

	require.True(t, c.Next())
	assert.Equal(t, []string{"id"}, c.Columns())
	v, ok := c.Column("id")
	require.True(t, ok)
	assert.Equal(t, Long(1), v)

	require.True(t, c.Next())
	v, ok = c.ColumnAt(0)
	require.True(t, ok)
	assert.Equal(t, Long(2), v)

	require.False(t, c.Next())
	require.False(t, c.Next())
	require.NoError(t, c.Err())
	_, ok = c.ColumnAt(0)
	assert.False(t, ok)

	empty := NewSliceCursor()
	require.False(t, empty.Next())
}
