package access

import (
	"fmt"
	"reflect"
)

// EmbeddedProperty proxies a property of an embeddable value object through
// the entity field holding the embeddable. The parent half resolves the
// embeddable reference within the entity (and may itself be an
// EmbeddedProperty when embeddables nest); the child half is the field on the
// embeddable type.
//
// The accessor preserves the owning entity's type contract around nil:
//
//   - Get short-circuits to nil when the embeddable reference is nil instead
//     of instantiating it, so reading an absent value object never creates
//     one.
//   - Set with a null value collapses to the embeddable reference itself when
//     the reference is nil-able and the child field cannot hold null: the
//     reference is set to nil and no embeddable is instantiated. A nil
//     reference therefore always means "no value object", never "a value
//     object with broken invariants".
//   - Any other Set lazily instantiates nil references on the path (plain
//     reflect.New, no constructor involved) and delegates to the child field.
//
// Example:
//
//	type Address struct {
//		Street string
//		City   string
//	}
//
//	type User struct {
//		Email   string
//		Address *Address
//	}
//
//	parent, _ := access.NewFieldProperty(reflect.TypeOf(User{}), "Address")
//	street, _ := access.NewEmbeddedProperty(parent, "Street")
//
//	u := &User{}
//	v, _ := street.Get(u)        // v == nil, u.Address still nil
//	_ = street.Set(u, "Main St") // u.Address instantiated lazily
//	_ = street.Set(u, nil)       // u.Address == nil again: string cannot hold null
type EmbeddedProperty struct {
	parent Property
	child  *FieldProperty
	name   string
}

var _ Property = (*EmbeddedProperty)(nil)

// NewEmbeddedProperty builds an accessor for the named field of the embeddable
// referenced by parent. The parent property's type must be the embeddable
// struct or a pointer to it.
func NewEmbeddedProperty(parent Property, childField string) (*EmbeddedProperty, error) {
	embeddable := derefType(parent.Type())
	if embeddable.Kind() != reflect.Struct {
		return nil, fmt.Errorf("access: parent property %s has non-struct type %s", parent.Name(), parent.Type())
	}
	child, err := NewFieldProperty(embeddable, childField)
	if err != nil {
		return nil, err
	}
	return newEmbeddedProperty(parent, child), nil
}

// NewEmbeddedPropertyOf is the reflect.StructField flavor of
// NewEmbeddedProperty, used by callers that are already walking the
// embeddable's fields.
func NewEmbeddedPropertyOf(parent Property, sf reflect.StructField) (*EmbeddedProperty, error) {
	embeddable := derefType(parent.Type())
	if embeddable.Kind() != reflect.Struct {
		return nil, fmt.Errorf("access: parent property %s has non-struct type %s", parent.Name(), parent.Type())
	}
	child, err := FieldPropertyOf(embeddable, sf)
	if err != nil {
		return nil, err
	}
	return newEmbeddedProperty(parent, child), nil
}

func newEmbeddedProperty(parent Property, child *FieldProperty) *EmbeddedProperty {
	return &EmbeddedProperty{
		parent: parent,
		child:  child,
		name:   parent.Name() + "." + child.Name(),
	}
}

// Name returns the qualified path of the child within the entity, e.g.
// "Address.Street".
func (p *EmbeddedProperty) Name() string { return p.name }

// Type returns the declared type of the child field.
func (p *EmbeddedProperty) Type() reflect.Type { return p.child.Type() }

// Nullable reports whether a database NULL round-trips through this property:
// either the child field itself holds null, or the embeddable reference is
// nil-able and absorbs the null as "no value object".
func (p *EmbeddedProperty) Nullable() bool {
	return p.child.Nullable() || isNilable(p.parent.Type())
}

// Parent returns the parent half of the accessor.
func (p *EmbeddedProperty) Parent() Property { return p.parent }

// Child returns the child half of the accessor.
func (p *EmbeddedProperty) Child() *FieldProperty { return p.child }

// Get reads the child property from entity. It returns (nil, nil) when the
// entity is nil, when any embeddable reference on the path is nil, or when
// the child field is nil-able and nil. The embeddable is never instantiated
// by a read. Pointer children are dereferenced: Get returns the value or
// nil, never a pointer.
func (p *EmbeddedProperty) Get(entity any) (any, error) {
	owner := reflect.ValueOf(entity)
	if !owner.IsValid() || isNilValue(owner) {
		return nil, nil
	}
	cv, err := p.resolve(owner, false)
	if err != nil {
		return nil, err
	}
	return propertyValue(cv), nil
}

// Set writes value into the child property of entity, which must be a non-nil
// pointer to the owning struct.
//
// A null value is handled in three tiers:
//  1. The child field cannot hold null but the embeddable reference can: the
//     reference is set to nil directly and no embeddable is instantiated.
//     When the reference is already nil (or an outer embeddable on the path
//     is), the entity is left untouched.
//  2. The child field can hold null: the embeddable is instantiated if absent
//     and the child is zeroed, exactly as the child's own setter would do.
//  3. Neither can hold null: an error wrapping ErrNotNullable is returned.
//
// Non-null values instantiate nil references on the path lazily and then
// assign to the child with the package conversion rules.
func (p *EmbeddedProperty) Set(entity, value any) error {
	owner, err := settableOwner(entity, p.name)
	if err != nil {
		return err
	}

	if IsNull(value) && !p.child.Nullable() {
		if !isNilable(p.parent.Type()) {
			return fmt.Errorf("access: set %s: %w", p.name, ErrNotNullable)
		}
		return p.collapseParent(owner)
	}

	cv, err := p.resolve(owner, true)
	if err != nil {
		return err
	}
	return assign(cv, value, p.name)
}

// collapseParent sets the embeddable reference to nil without instantiating
// anything. A path already interrupted by a nil outer reference needs no
// action: the value object is absent either way.
func (p *EmbeddedProperty) collapseParent(owner reflect.Value) error {
	pv, err := p.parent.resolve(owner, false)
	if err != nil {
		return err
	}
	if !pv.IsValid() {
		return nil
	}
	if !pv.CanSet() {
		return fmt.Errorf("access: cannot clear embeddable reference %s", p.parent.Name())
	}
	pv.Set(reflect.Zero(pv.Type()))
	return nil
}

func (p *EmbeddedProperty) resolve(owner reflect.Value, alloc bool) (reflect.Value, error) {
	pv, err := p.parent.resolve(owner, alloc)
	if err != nil {
		return reflect.Value{}, err
	}
	if !pv.IsValid() {
		return reflect.Value{}, nil
	}
	if !alloc && isNilValue(pv) {
		return reflect.Value{}, nil
	}
	return p.child.resolve(pv, alloc)
}
