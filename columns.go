package rowmap

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ColumnScanner is a func that can be used to read the value of a specific database column
type ColumnScanner func(src any) (Value, error)

// ColumnScanners is an option that can be passed to NewCursor, providing ColumnScanner by column name
type ColumnScanners map[string]ColumnScanner

// UseDecimals is an option that can be passed to NewCursor and determines whether numeric/decimal columns
// are read as Decimal values
//
// by default, numeric/decimal columns are read as Decimal
type UseDecimals bool

// BoolColumn is a ColumnScanner that can be used to read a column as a Boolean value
//
// Particularly useful for MySql which only supports BOOL columns as TINYINT
func BoolColumn(src any) (Value, error) {
	switch v := src.(type) {
	case bool:
		return Bool(v), nil
	case int64:
		return Bool(v != 0), nil
	case float64:
		return Bool(v != 0), nil
	case []byte:
		b, err := strconv.ParseBool(string(v))
		return Bool(b), err
	case string:
		b, err := strconv.ParseBool(v)
		return Bool(b), err
	case nil:
		return Null(), nil
	}
	return Null(), fmt.Errorf("type %T is not a bool", src)
}

type columnsInfo struct {
	count       int
	cols        *columnIndex
	dbTypes     []string
	scanners    map[string]ColumnScanner
	useDecimals bool
}

type columnsReader struct {
	values   []Value
	scanArgs []any
}

func newColumnsInfo(rows *sql.Rows, scanners ColumnScanners, useDecimals bool) (result *columnsInfo, err error) {
	var cts []*sql.ColumnType
	if cts, err = rows.ColumnTypes(); err == nil {
		count := len(cts)
		names := make([]string, count)
		result = &columnsInfo{
			count:       count,
			dbTypes:     make([]string, count),
			scanners:    make(map[string]ColumnScanner, len(scanners)),
			useDecimals: useDecimals,
		}
		for i, ct := range cts {
			names[i] = ct.Name()
			result.dbTypes[i] = normalizeDbType(ct.DatabaseTypeName())
		}
		result.cols = newColumnIndex(names)
		for name, s := range scanners {
			if s != nil {
				result.scanners[strings.ToLower(name)] = s
			}
		}
	}
	return result, err
}

// normalizeDbType upper-cases a database type name and drops any size/precision, e.g. "varchar(20)" -> "VARCHAR"
func normalizeDbType(dbType string) string {
	dbType = strings.ToUpper(strings.TrimSpace(dbType))
	if i := strings.IndexByte(dbType, '('); i >= 0 {
		dbType = strings.TrimSpace(dbType[:i])
	}
	return dbType
}

func (ci *columnsInfo) reader() *columnsReader {
	r := &columnsReader{
		values:   make([]Value, ci.count),
		scanArgs: make([]any, ci.count),
	}
	for i := 0; i < ci.count; i++ {
		r.scanArgs[i] = ci.buildScanner(r, i)
	}
	return r
}

func (ci *columnsInfo) buildScanner(cr *columnsReader, index int) sql.Scanner {
	if s, ok := ci.scanners[strings.ToLower(ci.cols.names[index])]; ok {
		return &customColumnScanner{
			columns: cr,
			index:   index,
			scanner: s,
		}
	}
	switch ci.dbTypes[index] {
	case "JSON", "JSONB":
		return &jsonColumnScanner{
			columns: cr,
			index:   index,
		}
	case "DECIMAL", "NUMERIC":
		if ci.useDecimals {
			return &decimalColumnScanner{
				columns: cr,
				index:   index,
			}
		}
	case "INT", "INT2", "INT4", "INTEGER", "SMALLINT", "TINYINT", "MEDIUMINT", "SERIAL", "SMALLSERIAL":
		return &integerColumnScanner{
			columns: cr,
			index:   index,
		}
	case "FLOAT4":
		return &floatColumnScanner{
			columns: cr,
			index:   index,
		}
	}
	return &rawColumnScanner{
		columns: cr,
		index:   index,
	}
}

type customColumnScanner struct {
	columns *columnsReader
	index   int
	scanner ColumnScanner
}

func (c *customColumnScanner) Scan(src any) error {
	v, err := c.scanner(src)
	if err == nil {
		c.columns.values[c.index] = v
	}
	return err
}

type rawColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *rawColumnScanner) Scan(src any) (err error) {
	c.columns.values[c.index], err = ValueOf(src)
	return err
}

type integerColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *integerColumnScanner) Scan(src any) (err error) {
	if i, ok := src.(int64); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
		c.columns.values[c.index] = Int(int32(i))
		return nil
	}
	c.columns.values[c.index], err = ValueOf(src)
	return err
}

type floatColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *floatColumnScanner) Scan(src any) (err error) {
	if f, ok := src.(float64); ok && math.Abs(f) <= math.MaxFloat32 {
		c.columns.values[c.index] = Float(float32(f))
		return nil
	}
	c.columns.values[c.index], err = ValueOf(src)
	return err
}

type decimalColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *decimalColumnScanner) Scan(src any) error {
	var err error
	var d decimal.Decimal
	switch v := src.(type) {
	case float32:
		d = decimal.NewFromFloat32(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case int64:
		d = decimal.New(v, 0)
	case []byte:
		d, err = decimal.NewFromString(unquote(string(v)))
	case string:
		d, err = decimal.NewFromString(unquote(v))
	default:
		c.columns.values[c.index], err = ValueOf(src)
		return err
	}
	if err == nil {
		c.columns.values[c.index] = Decimal(d)
	}
	return err
}

func unquote(s string) string {
	if len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	return s
}

type jsonColumnScanner struct {
	columns *columnsReader
	index   int
}

func (c *jsonColumnScanner) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		var err error
		c.columns.values[c.index], err = ValueOf(src)
		return err
	}
	if !json.Valid(data) {
		return errors.New("invalid json column value")
	}
	c.columns.values[c.index] = String(string(data))
	return nil
}

type sqlCursor struct {
	rows   *sql.Rows
	info   *columnsInfo
	reader *columnsReader
	err    error
	ready  bool
}

var _ Cursor = (*sqlCursor)(nil)

// NewCursor creates a Cursor over the supplied sql.Rows
//
// the cursor never closes the rows - that remains the responsibility of the caller
//
// options can be any of ColumnScanners or UseDecimals
func NewCursor(rows *sql.Rows, options ...any) (Cursor, error) {
	var scanners ColumnScanners
	useDecimals := true
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case ColumnScanners:
				if scanners == nil {
					scanners = ColumnScanners{}
				}
				for k, v := range option {
					scanners[k] = v
				}
			case UseDecimals:
				useDecimals = bool(option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	info, err := newColumnsInfo(rows, scanners, useDecimals)
	if err != nil {
		return nil, err
	}
	return &sqlCursor{
		rows:   rows,
		info:   info,
		reader: info.reader(),
	}, nil
}

func (c *sqlCursor) Next() bool {
	c.ready = false
	if c.err != nil {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		return false
	}
	if c.err = c.rows.Scan(c.reader.scanArgs...); c.err != nil {
		return false
	}
	c.ready = true
	return true
}

func (c *sqlCursor) Err() error {
	return c.err
}

func (c *sqlCursor) Columns() []string {
	return c.info.cols.names
}

func (c *sqlCursor) Column(name string) (Value, bool) {
	if i, ok := c.info.cols.lookup(name); ok && c.ready {
		return c.reader.values[i], true
	}
	return Null(), false
}

func (c *sqlCursor) ColumnAt(index int) (Value, bool) {
	if !c.ready || index < 0 || index >= c.info.count {
		return Null(), false
	}
	return c.reader.values[index], true
}
