package rowmap

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

const sqlTag = "sql"

// UseTagName is a type that can be passed as an option to NewTaggedFactory
// and determines the field tag name to use for field column mappings
//
// If this option is not passed to NewTaggedFactory, then the default "sql" tag is used
type UseTagName string

// FieldColumnNamer is an interface that can be passed as an option to NewTaggedFactory
// and is used to derive the column name to use for a given field
//
// If this option is not specified (or none are satisfied), the name is deduced from the "sql" tag for the field
type FieldColumnNamer interface {
	// ColumnName returns the column name to use for the given struct field
	//
	// The returned name is only used if second return arg is true
	ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool)
}

// FieldNameColumnNamer is a FieldColumnNamer that uses the field name as the column name
//
// as columns are matched case-insensitively, a field `TeamId` is mapped from a column `teamid` or `TEAMID`
var FieldNameColumnNamer FieldColumnNamer = fieldNameColumnNamer{}

type fieldNameColumnNamer struct{}

func (fieldNameColumnNamer) ColumnName(_ reflect.Type, fld reflect.StructField) (string, bool) {
	return fld.Name, true
}

// ErrorOnUnknownColumns is a type that can be passed as an option to NewStructFactory or NewTaggedFactory
// and determines whether an error is raised when a field is mapped to a column that is not in the row
//
// by default, fields whose column is not in the row are left at their zero value
type ErrorOnUnknownColumns bool

// ErrorOnUnMappedColumns is a type that can be passed as an option to NewStructFactory or NewTaggedFactory
// and determines whether an error is raised when there are columns in the row that are not mapped to fields
type ErrorOnUnMappedColumns bool

// FieldDescriptor describes the binding of one struct field to a column
type FieldDescriptor struct {
	// Name is the field name (dotted path for nested struct fields)
	Name string
	// Column is the column name (matched case-insensitively)
	Column string
	// Type is the field type
	Type reflect.Type
	// Kind is the classification of the field type
	Kind FieldKind
	// Nullable is whether the field type can represent NULL
	Nullable bool
}

func newFieldDescriptor(name, column string, t reflect.Type) FieldDescriptor {
	kind, nullable := ClassifyType(t)
	return FieldDescriptor{
		Name:     name,
		Column:   column,
		Type:     t,
		Kind:     kind,
		Nullable: nullable,
	}
}

// Field is an explicit binding of a field of struct T to a column - see Bind
type Field[T any] struct {
	desc FieldDescriptor
	set  func(t *T, v any) error
}

// Bind binds a field of struct T to a column
//
// the field is identified by an accessor func that returns a pointer to the field, e.g.
//
//	rowmap.Bind("team_id", func(t *Team) *int { return &t.TeamId })
func Bind[T any, V any](column string, field func(*T) *V) Field[T] {
	return Field[T]{
		desc: newFieldDescriptor(column, column, reflect.TypeFor[V]()),
		set: func(t *T, v any) error {
			if v == nil {
				var zero V
				*field(t) = zero
				return nil
			}
			tv, ok := v.(V)
			if !ok {
				return fmt.Errorf("mapper produced %T, expected %s", v, reflect.TypeFor[V]())
			}
			*field(t) = tv
			return nil
		},
	}
}

// Named returns a copy of the binding with the given field name (used in error messages)
func (f Field[T]) Named(name string) Field[T] {
	f.desc.Name = name
	return f
}

// Descriptor returns the descriptor of the binding
func (f Field[T]) Descriptor() FieldDescriptor {
	return f.desc
}

// StructFactory is a Factory that maps rows into structs of type T
//
// it only maps T itself - fields are converted by mappers resolved, per field type, from the registry
type StructFactory[T any] struct {
	target                 reflect.Type
	fields                 []Field[T]
	errorOnUnknownColumns  bool
	errorOnUnMappedColumns bool
}

var _ Factory = (*StructFactory[struct{}])(nil)

// NewStructFactory creates a StructFactory for T from explicit field bindings
//
// options can be any of: Field[T] (see Bind), ErrorOnUnknownColumns or ErrorOnUnMappedColumns
func NewStructFactory[T any](options ...any) (*StructFactory[T], error) {
	f, err := newStructFactory[T]()
	if err != nil {
		return nil, err
	}
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case Field[T]:
				f.fields = append(f.fields, option)
			case []Field[T]:
				f.fields = append(f.fields, option...)
			default:
				if !f.commonOption(o) {
					return nil, fmt.Errorf("unknown option type: %T", o)
				}
			}
		}
	}
	if err = f.checkFields(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustNewStructFactory is the same as NewStructFactory except that it panics on error
func MustNewStructFactory[T any](options ...any) *StructFactory[T] {
	f, err := NewStructFactory[T](options...)
	if err != nil {
		panic(err)
	}
	return f
}

// NewTaggedFactory creates a StructFactory for T, deriving field bindings from struct tags
//
// the fields of T are read once, when the factory is created.  Exported struct fields of non-scannable struct
// types (i.e. not time.Time and not implementing sql.Scanner) are walked for further bindings
//
// options can be any of: UseTagName, FieldColumnNamer, ErrorOnUnknownColumns or ErrorOnUnMappedColumns
func NewTaggedFactory[T any](options ...any) (*StructFactory[T], error) {
	f, err := newStructFactory[T]()
	if err != nil {
		return nil, err
	}
	tagName := sqlTag
	var namers []FieldColumnNamer
	for _, o := range options {
		if o != nil {
			switch option := o.(type) {
			case UseTagName:
				if option != "" {
					tagName = string(option)
				}
			case FieldColumnNamer:
				namers = append(namers, option)
			default:
				if !f.commonOption(o) {
					return nil, fmt.Errorf("unknown option type: %T", o)
				}
			}
		}
	}
	namers = append(namers, &defaultFieldColumnNamer{tagName: tagName})
	buildTaggedFields(namers, f.target, nil, "", &f.fields)
	if err = f.checkFields(); err != nil {
		return nil, err
	}
	return f, nil
}

// MustNewTaggedFactory is the same as NewTaggedFactory except that it panics on error
func MustNewTaggedFactory[T any](options ...any) *StructFactory[T] {
	f, err := NewTaggedFactory[T](options...)
	if err != nil {
		panic(err)
	}
	return f
}

func newStructFactory[T any]() (*StructFactory[T], error) {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		return nil, errors.New("StructFactory can only be used with struct types")
	}
	return &StructFactory[T]{target: rt}, nil
}

func (f *StructFactory[T]) commonOption(o any) bool {
	switch option := o.(type) {
	case ErrorOnUnknownColumns:
		f.errorOnUnknownColumns = bool(option)
	case ErrorOnUnMappedColumns:
		f.errorOnUnMappedColumns = bool(option)
	default:
		return false
	}
	return true
}

func (f *StructFactory[T]) checkFields() error {
	seen := make(map[string]struct{}, len(f.fields))
	for _, fld := range f.fields {
		if fld.set == nil {
			return errors.New("field binding not created with Bind")
		}
		if fld.desc.Column == "" {
			return fmt.Errorf("field %q has no column name", fld.desc.Name)
		}
		key := strings.ToLower(fld.desc.Column)
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate column mapping %q", fld.desc.Column)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Fields returns the field descriptors, in binding order
func (f *StructFactory[T]) Fields() []FieldDescriptor {
	result := make([]FieldDescriptor, len(f.fields))
	for i, fld := range f.fields {
		result[i] = fld.desc
	}
	return result
}

func (f *StructFactory[T]) CanMap(target reflect.Type) bool {
	return target == f.target
}

func (f *StructFactory[T]) Build(target reflect.Type, reg *Registry) (Mapper, error) {
	if target != f.target {
		return nil, &UnregisteredTypeError{Type: target}
	}
	m := &structMapper[T]{
		factory:    f,
		converters: make([]Mapper, len(f.fields)),
		columns:    make(map[string]struct{}, len(f.fields)),
	}
	for i, fld := range f.fields {
		cm, err := reg.Resolve(fld.desc.Type)
		if err != nil {
			var ute *UnregisteredTypeError
			if errors.As(err, &ute) && ute.Owner == nil {
				return nil, &UnregisteredTypeError{Type: fld.desc.Type, Owner: f.target, Field: fld.desc.Name}
			}
			return nil, err
		}
		m.converters[i] = cm
		m.columns[strings.ToLower(fld.desc.Column)] = struct{}{}
	}
	return m, nil
}

type structMapper[T any] struct {
	factory    *StructFactory[T]
	converters []Mapper
	columns    map[string]struct{}
}

func (m *structMapper[T]) Map(row Row) (any, error) {
	item, err := m.mapRow(row)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (m *structMapper[T]) mapRow(row Row) (result T, err error) {
	if err = m.checkColumns(row); err != nil {
		return result, err
	}
	var item T
	for i, fld := range m.factory.fields {
		v, ok := row.Column(fld.desc.Column)
		if !ok {
			continue
		}
		var fv any
		handled := false
		if v.IsNull() {
			fv, handled, err = coerceNull(fld.desc.Type)
		}
		if !handled && err == nil {
			fv, err = m.converters[i].Map(singleColumnRow{name: fld.desc.Column, value: v})
		}
		if err == nil {
			err = fld.set(&item, fv)
		}
		if err != nil {
			return result, fieldConversionError(err, fld.desc, v)
		}
	}
	return item, nil
}

func fieldConversionError(err error, fld FieldDescriptor, v Value) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		if ce.Field == "" {
			cp := *ce
			cp.Column = fld.Column
			cp.Field = fld.Name
			cp.Type = fld.Type
			return &cp
		}
		return err
	}
	return &ConversionError{
		Column: fld.Column,
		Field:  fld.Name,
		Type:   fld.Type,
		Value:  v,
		Err:    err,
	}
}

func (m *structMapper[T]) checkColumns(row Row) error {
	if m.factory.errorOnUnMappedColumns {
		unmapped := make([]string, 0)
		for _, col := range row.Columns() {
			if _, ok := m.columns[strings.ToLower(col)]; !ok {
				unmapped = append(unmapped, col)
			}
		}
		if len(unmapped) > 0 {
			return fmt.Errorf("unmapped column(s): %s", `"`+strings.Join(unmapped, `","`)+`"`)
		}
	}
	if m.factory.errorOnUnknownColumns {
		unknown := make([]string, 0)
		for _, fld := range m.factory.fields {
			if _, ok := row.Column(fld.desc.Column); !ok {
				unknown = append(unknown, fld.desc.Column)
			}
		}
		if len(unknown) > 0 {
			return fmt.Errorf("unknown column(s): %s", `"`+strings.Join(unknown, `","`)+`"`)
		}
	}
	return nil
}

func buildTaggedFields[T any](namers []FieldColumnNamer, rt reflect.Type, parentIndex []int, parentName string, fields *[]Field[T]) {
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		index := append([]int{}, parentIndex...)
		index = append(index, f.Index...)
		name := f.Name
		if parentName != "" {
			name = parentName + "." + f.Name
		}
		if f.Type.Kind() == reflect.Struct && !isScannable(f.Type) {
			childName := parentName
			if !f.Anonymous {
				childName = name
			}
			buildTaggedFields(namers, f.Type, index, childName, fields)
			continue
		}
		useColName := ""
		named := false
		for _, namer := range namers {
			if useColName, named = namer.ColumnName(rt, f); named {
				break
			}
		}
		if !named || useColName == "-" || useColName == "" {
			continue
		}
		*fields = append(*fields, Field[T]{
			desc: newFieldDescriptor(name, useColName, f.Type),
			set:  reflectSetter[T](index),
		})
	}
}

func reflectSetter[T any](index []int) func(t *T, v any) error {
	return func(t *T, v any) error {
		fv := reflect.ValueOf(t).Elem().FieldByIndex(index)
		if v == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(fv.Type()) {
			return fmt.Errorf("mapper produced %T, expected %s", v, fv.Type())
		}
		fv.Set(rv)
		return nil
	}
}

func isScannable(t reflect.Type) bool {
	if t == nil {
		return false
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return true
	}
	// time.Time isn't a sql.Scanner, but drivers produce it
	if t == timeType {
		return true
	}
	return t.Implements(scannerType) || reflect.PointerTo(t).Implements(scannerType)
}

type defaultFieldColumnNamer struct {
	tagName string
}

var _ FieldColumnNamer = &defaultFieldColumnNamer{}

func (d *defaultFieldColumnNamer) ColumnName(structType reflect.Type, fld reflect.StructField) (string, bool) {
	tag, ok := fld.Tag.Lookup(d.tagName)
	if !ok || tag == "-" || tag == "" {
		return "", false
	}
	return tag, true
}
