// Package access provides runtime property handles for entity structs and for
// the embeddable value objects nested inside them.
//
// A Property is a reflection-backed get/set handle for one mapped property of
// an entity. Two implementations exist:
//
//   - FieldProperty reads and writes a single struct field directly.
//   - EmbeddedProperty proxies a field of an embeddable value object through
//     the entity field that holds the embeddable, preserving nil as "no value
//     object" instead of materializing a zero-valued object with broken
//     invariants.
//
// Handles are built once per (owner type, field path), typically by
// entity.Introspect, and are safe for concurrent use: all per-call state
// lives on the stack.
package access

import (
	"fmt"
	"reflect"
)

// Property is a runtime handle allowing get/set access to a mapped property of
// an entity struct, bypassing normal encapsulation.
//
// Get never mutates the entity: resolving a property through a nil embeddable
// reference short-circuits to nil rather than instantiating anything. Set
// requires a non-nil pointer to the owning entity struct and instantiates
// intermediate embeddables lazily, except for the null-collapse case described
// on EmbeddedProperty.Set.
type Property interface {
	// Name returns the qualified Go path of the property within the owning
	// entity, e.g. "Email" or "Address.Street".
	Name() string

	// Type returns the declared Go type of the property.
	Type() reflect.Type

	// Nullable reports whether a database NULL can be represented by this
	// property without losing the owning entity's type contract. See the
	// package-level Nullable function for the type-level rules.
	Nullable() bool

	// Get reads the property from entity. A nil entity, a nil embeddable
	// reference on the path, or a nil-able property holding nil all yield
	// (nil, nil).
	Get(entity any) (any, error)

	// Set writes value into the property of entity, which must be a non-nil
	// pointer to the owning struct type.
	Set(entity, value any) error

	// resolve returns the reflect.Value of the property within owner,
	// instantiating nil pointer hops on the way when alloc is true. An
	// invalid Value with a nil error means the path is interrupted by a nil
	// reference (only possible when alloc is false).
	resolve(owner reflect.Value, alloc bool) (reflect.Value, error)
}

// FieldProperty is a Property backed by a single field of a struct type. It is
// the building block for both plain column fields on an entity and the
// "parent" and "child" halves of an EmbeddedProperty.
type FieldProperty struct {
	owner    reflect.Type // struct type declaring the field, never a pointer
	index    int
	name     string
	typ      reflect.Type
	nullable bool
}

var _ Property = (*FieldProperty)(nil)

// NewFieldProperty builds a property handle for the named field of owner.
// Owner may be a struct type or a pointer to one. Promoted fields of
// anonymous members are not resolved here: the field must be declared on
// owner itself.
func NewFieldProperty(owner reflect.Type, fieldName string) (*FieldProperty, error) {
	t := derefType(owner)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("access: %s is not a struct type", owner)
	}
	sf, ok := t.FieldByName(fieldName)
	if !ok || len(sf.Index) != 1 {
		return nil, fmt.Errorf("access: %s has no field %q", t, fieldName)
	}
	return FieldPropertyOf(t, sf)
}

// FieldPropertyOf builds a property handle from an already resolved
// reflect.StructField of owner. The field must be exported and declared
// directly on owner.
func FieldPropertyOf(owner reflect.Type, sf reflect.StructField) (*FieldProperty, error) {
	t := derefType(owner)
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("access: %s is not a struct type", owner)
	}
	if !sf.IsExported() {
		return nil, fmt.Errorf("access: field %s.%s is not exported", t, sf.Name)
	}
	if len(sf.Index) != 1 {
		return nil, fmt.Errorf("access: field %s.%s is promoted, not declared on %s", t, sf.Name, t)
	}
	return &FieldProperty{
		owner:    t,
		index:    sf.Index[0],
		name:     sf.Name,
		typ:      sf.Type,
		nullable: Nullable(sf.Type),
	}, nil
}

// Name returns the Go field name.
func (p *FieldProperty) Name() string { return p.name }

// Type returns the declared field type.
func (p *FieldProperty) Type() reflect.Type { return p.typ }

// Nullable reports whether the field type can represent a database NULL.
func (p *FieldProperty) Nullable() bool { return p.nullable }

// Owner returns the struct type declaring the field.
func (p *FieldProperty) Owner() reflect.Type { return p.owner }

// Get reads the field from entity. A nil entity yields (nil, nil); a nil-able
// field holding nil yields (nil, nil) as well, so callers observe NULL rather
// than a typed nil. Pointer fields are dereferenced: Get returns the value or
// nil, never a pointer.
func (p *FieldProperty) Get(entity any) (any, error) {
	owner := reflect.ValueOf(entity)
	if !owner.IsValid() || isNilValue(owner) {
		return nil, nil
	}
	fv, err := p.resolve(owner, false)
	if err != nil {
		return nil, err
	}
	return propertyValue(fv), nil
}

// Set writes value into the field of entity, which must be a non-nil pointer
// to the owner struct. Assignment applies the package conversion rules; a
// null value on a non-nullable field returns an error wrapping
// ErrNotNullable.
func (p *FieldProperty) Set(entity, value any) error {
	owner, err := settableOwner(entity, p.name)
	if err != nil {
		return err
	}
	fv, err := p.resolve(owner, true)
	if err != nil {
		return err
	}
	return assign(fv, value, p.name)
}

func (p *FieldProperty) resolve(owner reflect.Value, alloc bool) (reflect.Value, error) {
	v := owner
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			if !alloc {
				return reflect.Value{}, nil
			}
			if !v.CanSet() {
				return reflect.Value{}, fmt.Errorf("access: cannot instantiate nil %s while resolving %s", v.Type(), p.name)
			}
			v.Set(Instantiate(v.Type().Elem()))
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct || v.Type() != p.owner {
		return reflect.Value{}, fmt.Errorf("access: %s resolves fields of %s, got %s", p.name, p.owner, v.Type())
	}
	return v.Field(p.index), nil
}

// settableOwner validates that entity is a usable Set target and returns its
// reflect.Value. The owning struct type check is deferred to resolve, which
// walks pointer indirections.
func settableOwner(entity any, prop string) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return reflect.Value{}, fmt.Errorf("access: set %s requires a non-nil struct pointer, got %T: %w", prop, entity, ErrNotPointer)
	}
	return v, nil
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
