package access

import (
	"database/sql"
	"errors"
	"reflect"
)

var (
	// ErrNotPointer is returned by Set when the entity argument is not a
	// non-nil pointer to the owning struct.
	ErrNotPointer = errors.New("entity is not a settable struct pointer")

	// ErrNotNullable is returned when a null value is written to a property
	// that cannot represent it, and no nil-able embeddable reference on the
	// path can absorb the null as "no value object".
	ErrNotNullable = errors.New("null value on non-nullable property")

	// ErrIncompatible is returned when a value cannot be assigned or safely
	// converted to a property's type.
	ErrIncompatible = errors.New("incompatible value type")
)

var scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()

// Nullable reports whether t can represent a database NULL. A type qualifies
// when it can hold nil (pointer, interface, map, slice) or when *t implements
// sql.Scanner and therefore defines its own NULL representation (sql.Null*,
// uuid.UUID and friends).
func Nullable(t reflect.Type) bool {
	if isNilable(t) {
		return true
	}
	return reflect.PointerTo(t).Implements(scannerType)
}

// isNilable reports whether values of t can literally be nil. This is the
// strict check used for the null-collapse branch: only a nil-able embeddable
// reference can be cleared to express "no value object".
func isNilable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	default:
		return false
	}
}

// IsNull reports whether value represents a database NULL: a nil interface or
// a typed nil of a nil-able kind.
func IsNull(value any) bool {
	if value == nil {
		return true
	}
	return isNilValue(reflect.ValueOf(value))
}

// isNilValue reports whether v holds nil. Non-nil-able kinds are never nil.
func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

// propertyValue converts a resolved field value to its Get result: nil for
// interrupted paths and nil-able nils, the dereferenced value otherwise.
func propertyValue(fv reflect.Value) any {
	if !fv.IsValid() {
		return nil
	}
	for fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	if isNilValue(fv) {
		return nil
	}
	return fv.Interface()
}
