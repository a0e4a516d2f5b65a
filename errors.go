package rowmap

import (
	"errors"
	"reflect"
	"strings"
)

var (
	// ErrUnregisteredType is matched (using errors.Is) by any UnregisteredTypeError
	ErrUnregisteredType = errors.New("no mapper for type")
	// ErrConversion is matched (using errors.Is) by any ConversionError
	ErrConversion = errors.New("cannot convert column value")
)

// UnregisteredTypeError is returned when no registered factory can map a type
type UnregisteredTypeError struct {
	// Type is the type that could not be resolved
	Type reflect.Type
	// Owner is the struct type being built when Type was required for one of its fields (nil otherwise)
	Owner reflect.Type
	// Field is the name of the field that required Type (empty if Owner is nil)
	Field string
}

func (e *UnregisteredTypeError) Error() string {
	var sb strings.Builder
	sb.WriteString("no mapper for type ")
	sb.WriteString(typeName(e.Type))
	if e.Owner != nil {
		sb.WriteString(" (field ")
		sb.WriteString(typeName(e.Owner))
		sb.WriteString(".")
		sb.WriteString(e.Field)
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *UnregisteredTypeError) Is(target error) bool {
	return target == ErrUnregisteredType
}

// ConversionError is returned when a column value cannot be converted to the type of the field it is mapped to
//
// when mapping a row fails with a ConversionError, no partially mapped object is returned
type ConversionError struct {
	// Column is the name of the offending column
	Column string
	// Field is the name of the target field (empty when mapping a column directly to a value type)
	Field string
	// Type is the target type
	Type reflect.Type
	// Value is the column value that could not be converted
	Value Value
	// Err is the underlying cause
	Err error
}

func (e *ConversionError) Error() string {
	var sb strings.Builder
	sb.WriteString("cannot convert column ")
	if e.Column != "" {
		sb.WriteString(`"` + e.Column + `" `)
	}
	sb.WriteString("value ")
	sb.WriteString(e.Value.Kind().String())
	if !e.Value.IsNull() {
		sb.WriteString("(" + e.Value.String() + ")")
	}
	if e.Field != "" {
		sb.WriteString(" to field ")
		sb.WriteString(e.Field)
	}
	sb.WriteString(" of type ")
	sb.WriteString(typeName(e.Type))
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
