package access

import "reflect"

// Instantiate creates a fresh value of type t and returns a pointer to it.
// This is the constructor-bypassing instantiation used when a nil embeddable
// reference is materialized on write: the result is the zero value of t and
// no initialization logic of any kind runs. Embeddable types must therefore
// have usable zero values, which holds for flattened-column value objects by
// construction.
func Instantiate(t reflect.Type) reflect.Value {
	return reflect.New(t)
}
