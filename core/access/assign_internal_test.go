package access

import (
	"database/sql"
	"math"
	"reflect"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"
)

func ptr[T any](v T) *T { return &v }

type status string

func TestAssign(t *testing.T) {
	tests := []struct {
		name    string
		dst     any // pointer to the destination
		value   any
		want    any
		wantErr error
	}{
		{name: "direct string", dst: new(string), value: "x", want: "x"},
		{name: "pointer source", dst: new(string), value: ptr("x"), want: "x"},
		{name: "value into pointer", dst: new(*int), value: int64(5), want: ptr(5)},
		{name: "int64 to int32", dst: new(int32), value: int64(7), want: int32(7)},
		{name: "int64 overflow", dst: new(int8), value: int64(300), wantErr: ErrIncompatible},
		{name: "uint to int", dst: new(int), value: uint16(9), want: 9},
		{name: "uint overflow", dst: new(uint8), value: uint64(300), wantErr: ErrIncompatible},
		{name: "negative to uint", dst: new(uint8), value: -1, wantErr: ErrIncompatible},
		{name: "exact float to int", dst: new(int64), value: float64(42), want: int64(42)},
		{name: "fractional float to int", dst: new(int64), value: 41.5, wantErr: ErrIncompatible},
		{name: "int to float", dst: new(float64), value: int64(3), want: 3.0},
		{name: "float overflow", dst: new(float32), value: math.MaxFloat64, wantErr: ErrIncompatible},
		{name: "string to named string", dst: new(status), value: "active", want: status("active")},
		{name: "named string to string", dst: new(string), value: status("active"), want: "active"},
		{name: "string into named string pointer", dst: new(*status), value: "active", want: ptr(status("active"))},
		{name: "bytes to string", dst: new(string), value: []byte("abc"), want: "abc"},
		{name: "string to bytes", dst: new([]byte), value: "abc", want: []byte("abc")},
		{name: "int64 one to bool", dst: new(bool), value: int64(1), want: true},
		{name: "int64 zero to bool", dst: new(bool), value: int64(0), want: false},
		{name: "int64 two to bool", dst: new(bool), value: int64(2), wantErr: ErrIncompatible},
		{name: "null into pointer", dst: new(*int), value: nil, want: (*int)(nil)},
		{name: "typed nil source", dst: new(*int), value: (*string)(nil), want: (*int)(nil)},
		{name: "null into scalar", dst: new(string), value: nil, wantErr: ErrNotNullable},
		{name: "null into NullString", dst: new(sql.NullString), value: nil, want: sql.NullString{}},
		{name: "string into NullString", dst: new(sql.NullString), value: "x", want: sql.NullString{String: "x", Valid: true}},
		{name: "string into uuid", dst: new(uuid.UUID), value: "6ba7b810-9dad-11d1-80b4-00c04fd430c8", want: uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{name: "incompatible struct", dst: new(int), value: struct{}{}, wantErr: ErrIncompatible},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			dst := reflect.ValueOf(tt.dst).Elem()
			err := assign(dst, tt.value, "prop")
			if tt.wantErr != nil {
				c.Assert(err, qt.ErrorIs, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(dst.Interface(), qt.DeepEquals, tt.want)
		})
	}
}

func TestAssign_ScanError(t *testing.T) {
	c := qt.New(t)

	// Scanner destinations surface their own scan errors.
	var id uuid.UUID
	err := assign(reflect.ValueOf(&id).Elem(), "not-a-uuid", "prop")
	c.Assert(err, qt.IsNotNil)
}

func TestAssign_FailedConversionLeavesPointerUntouched(t *testing.T) {
	c := qt.New(t)

	var n *int8
	err := assign(reflect.ValueOf(&n).Elem(), int64(300), "prop")
	c.Assert(err, qt.ErrorIs, ErrIncompatible)
	c.Assert(n, qt.IsNil)
}

func TestNullable_ScannerTypes(t *testing.T) {
	c := qt.New(t)

	c.Assert(Nullable(reflect.TypeOf(uuid.UUID{})), qt.IsTrue)
	c.Assert(Nullable(reflect.TypeOf(sql.NullTime{})), qt.IsTrue)
	c.Assert(Nullable(reflect.TypeOf(struct{ X int }{})), qt.IsFalse)
}
