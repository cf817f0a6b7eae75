package access

import (
	"database/sql"
	"fmt"
	"math"
	"reflect"
)

// assign stores value into dst, which must be settable. Conversions beyond
// direct assignability are restricted to lossless ones: pointer wrapping and
// unwrapping, sql.Scanner destinations scanning for themselves,
// overflow-checked numeric moves, string/[]byte, and the 0/1 integers some
// drivers return for boolean columns.
func assign(dst reflect.Value, value any, prop string) error {
	if IsNull(value) {
		return assignNull(dst, prop)
	}

	rv := reflect.ValueOf(value)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)
		return nil
	}

	// Unwrap source pointers down to the concrete value. reflect.ValueOf
	// already unwrapped the interface, so only pointer hops remain.
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return assignNull(dst, prop)
		}
		rv = rv.Elem()
		if rv.Type().AssignableTo(dst.Type()) {
			dst.Set(rv)
			return nil
		}
	}

	// A pointer destination adopts a converted copy of the value. The copy
	// is built aside first so a failed conversion leaves dst untouched.
	if dst.Kind() == reflect.Pointer {
		pv := reflect.New(dst.Type().Elem())
		if err := assign(pv.Elem(), rv.Interface(), prop); err != nil {
			return err
		}
		dst.Set(pv)
		return nil
	}

	if dst.CanAddr() && reflect.PointerTo(dst.Type()).Implements(scannerType) {
		if err := dst.Addr().Interface().(sql.Scanner).Scan(rv.Interface()); err != nil {
			return fmt.Errorf("access: set %s: %w", prop, err)
		}
		return nil
	}

	if coerce(dst, rv) {
		return nil
	}

	return fmt.Errorf("access: set %s: cannot assign %T to %s: %w", prop, value, dst.Type(), ErrIncompatible)
}

// assignNull writes the NULL representation of dst's type: nil for nil-able
// kinds, the scanned null for sql.Scanner values. Anything else cannot hold
// a null and the write fails.
func assignNull(dst reflect.Value, prop string) error {
	t := dst.Type()
	switch {
	case isNilable(t):
		dst.Set(reflect.Zero(t))
		return nil
	case dst.CanAddr() && reflect.PointerTo(t).Implements(scannerType):
		dst.Set(reflect.Zero(t))
		if err := dst.Addr().Interface().(sql.Scanner).Scan(nil); err != nil {
			return fmt.Errorf("access: set %s: %w", prop, err)
		}
		return nil
	}
	return fmt.Errorf("access: set %s: %w", prop, ErrNotNullable)
}

// coerce performs the conversions that need value inspection to stay
// lossless. It reports whether the value was stored.
func coerce(dst, src reflect.Value) bool {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return coerceInt(dst, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return coerceUint(dst, src)
	case reflect.Float32, reflect.Float64:
		return coerceFloat(dst, src)
	case reflect.Bool:
		return coerceBool(dst, src)
	case reflect.String:
		switch {
		case src.Kind() == reflect.String:
			// Named string types, e.g. a Status defined over string.
			dst.SetString(src.String())
			return true
		case src.Kind() == reflect.Slice && src.Type().Elem().Kind() == reflect.Uint8:
			dst.SetString(string(src.Bytes()))
			return true
		}
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 && src.Kind() == reflect.String {
			dst.SetBytes([]byte(src.String()))
			return true
		}
	}
	return false
}

func coerceInt(dst, src reflect.Value) bool {
	var n int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := src.Uint()
		if u > math.MaxInt64 {
			return false
		}
		n = int64(u)
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		// math.MaxInt64 rounds up when converted to float64, so the
		// boundary itself is already out of range.
		if math.Trunc(f) != f || f < math.MinInt64 || f >= math.MaxInt64 {
			return false
		}
		n = int64(f)
	default:
		return false
	}
	if dst.OverflowInt(n) {
		return false
	}
	dst.SetInt(n)
	return true
}

func coerceUint(dst, src reflect.Value) bool {
	var u uint64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := src.Int()
		if n < 0 {
			return false
		}
		u = uint64(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u = src.Uint()
	case reflect.Float32, reflect.Float64:
		f := src.Float()
		if math.Trunc(f) != f || f < 0 || f >= math.MaxUint64 {
			return false
		}
		u = uint64(f)
	default:
		return false
	}
	if dst.OverflowUint(u) {
		return false
	}
	dst.SetUint(u)
	return true
}

func coerceFloat(dst, src reflect.Value) bool {
	var f float64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f = float64(src.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f = float64(src.Uint())
	case reflect.Float32, reflect.Float64:
		f = src.Float()
	default:
		return false
	}
	if dst.OverflowFloat(f) {
		return false
	}
	dst.SetFloat(f)
	return true
}

// coerceBool accepts the 0/1 integers SQLite and MySQL hand back for
// boolean columns.
func coerceBool(dst, src reflect.Value) bool {
	var n int64
	switch src.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n = src.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := src.Uint()
		if u > 1 {
			return false
		}
		n = int64(u)
	default:
		return false
	}
	if n != 0 && n != 1 {
		return false
	}
	dst.SetBool(n == 1)
	return true
}
