package rowmap

import (
	"fmt"
	"reflect"
)

// Record is a row mapped by column name
type Record map[string]Value

var recordType = reflect.TypeFor[Record]()

// RecordMapping determines how a single column is placed into a Record
type RecordMapping struct {
	// Name is the key to use (if not an empty string) - overrides the column name
	Name string
	// OmitNull indicates that if the column is null then the key is not added to the record (this is not
	// overridden by specifying NullDefault)
	OmitNull bool
	// NullDefault is the value to use when the column is null
	NullDefault Value
}

// RecordMappings is an option that can be passed to NewRecordFactory, providing RecordMapping by column name
type RecordMappings map[string]RecordMapping

// ColumnExclusion is an option that can be passed to NewRecordFactory and determines which columns are left out
// of the record
type ColumnExclusion interface {
	// Exclude should return true if the column is to be excluded
	Exclude(column string) bool
}

// ExcludeColumns is a ColumnExclusion that excludes the named columns
type ExcludeColumns []string

var _ ColumnExclusion = ExcludeColumns{}

func (x ExcludeColumns) Exclude(column string) bool {
	for _, c := range x {
		if c == column {
			return true
		}
	}
	return false
}

// ConditionalExclude is a func that determines whether an allowed column is excluded
type ConditionalExclude func(column string) bool

// AllowedColumns is a ColumnExclusion that excludes every column not in the map
//
// an allowed column with a non-nil ConditionalExclude is excluded when the func returns true
type AllowedColumns map[string]ConditionalExclude

var _ ColumnExclusion = AllowedColumns{}

func (ac AllowedColumns) Exclude(column string) bool {
	if cx, ok := ac[column]; ok {
		if cx != nil {
			return cx(column)
		}
		return false
	}
	return true
}

type recordFactory struct {
	mappings   RecordMappings
	exclusions []ColumnExclusion
}

// NewRecordFactory creates a factory that maps every column of a row into a Record
//
// options can be any of: RecordMappings or ColumnExclusion (e.g. ExcludeColumns, AllowedColumns)
func NewRecordFactory(options ...any) (Factory, error) {
	f := &recordFactory{mappings: RecordMappings{}}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case RecordMappings:
				for k, v := range option {
					f.mappings[k] = v
				}
			case ColumnExclusion:
				f.exclusions = append(f.exclusions, option)
			default:
				return nil, fmt.Errorf("unknown option type: %T", o)
			}
		}
	}
	return f, nil
}

// MustNewRecordFactory is the same as NewRecordFactory, except it panics on error
func MustNewRecordFactory(options ...any) Factory {
	f, err := NewRecordFactory(options...)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *recordFactory) CanMap(target reflect.Type) bool {
	return target == recordType
}

func (f *recordFactory) Build(reflect.Type, *Registry) (Mapper, error) {
	return MapperFunc(func(row Row) (any, error) {
		cols := row.Columns()
		result := make(Record, len(cols))
		for i, col := range cols {
			if f.excluded(col) {
				continue
			}
			v, _ := row.ColumnAt(i)
			name := col
			if mapping, ok := f.mappings[col]; ok {
				if mapping.Name != "" {
					name = mapping.Name
				}
				if v.IsNull() {
					if mapping.OmitNull {
						continue
					}
					v = mapping.NullDefault
				}
			}
			result[name] = v
		}
		return result, nil
	}), nil
}

func (f *recordFactory) excluded(col string) bool {
	for _, x := range f.exclusions {
		if x.Exclude(col) {
			return true
		}
	}
	return false
}
