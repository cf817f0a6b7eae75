package entity

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/stokaro/tefnut/core/access"
	"github.com/stokaro/tefnut/core/naming"
)

// mappings caches built mappings per (struct type, tag key). Mappings are
// immutable once built, so a single shared instance serves all callers.
var mappings sync.Map // mappingKey -> *Mapping

type mappingKey struct {
	typ reflect.Type
	tag string
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	valuerType  = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// Introspect returns the column mapping for v's struct type, building and
// caching it on first use. v may be the struct, a pointer to it, or a typed
// nil pointer.
func Introspect(v any) (*Mapping, error) {
	return IntrospectType(reflect.TypeOf(v))
}

// IntrospectType is Introspect for an already resolved reflect.Type.
func IntrospectType(t reflect.Type) (*Mapping, error) {
	return IntrospectTag(t, DefaultTag)
}

// IntrospectTag builds the mapping using a custom struct tag key in place of
// "db".
func IntrospectTag(t reflect.Type, tag string) (*Mapping, error) {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: cannot map %v: %w", t, ErrNotStruct)
	}

	key := mappingKey{typ: t, tag: tag}
	if cached, ok := mappings.Load(key); ok {
		return cached.(*Mapping), nil
	}

	m, err := buildMapping(t, tag)
	if err != nil {
		return nil, err
	}
	actual, _ := mappings.LoadOrStore(key, m)
	return actual.(*Mapping), nil
}

func buildMapping(t reflect.Type, tag string) (*Mapping, error) {
	m := &Mapping{
		Type:   t,
		Table:  tableName(t),
		byName: make(map[string]*Column),
	}
	if m.Table == "" {
		return nil, fmt.Errorf("entity: anonymous struct %s needs a TableName method", t)
	}
	w := &walker{mapping: m, tag: tag}
	if err := w.walk(t, nil, "", nil); err != nil {
		return nil, fmt.Errorf("entity: map %s: %w", t, err)
	}
	if len(m.Columns) == 0 {
		return nil, fmt.Errorf("entity: %s has no mapped columns", t)
	}
	return m, nil
}

func tableName(t reflect.Type) string {
	if tn, ok := reflect.New(t).Interface().(Tabler); ok {
		return tn.TableName()
	}
	return naming.Snake(t.Name())
}

// walker accumulates columns and groups while descending into embeddables.
type walker struct {
	mapping *Mapping
	tag     string
	chain   []reflect.Type // embeddable structs on the current path, cycle guard
}

func (w *walker) walk(t reflect.Type, parent access.Property, prefix string, group *Group) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		info, err := ParseTagValue(sf.Tag.Get(w.tag))
		if err != nil {
			return fmt.Errorf("field %s: %w", fieldPath(parent, sf.Name), err)
		}
		if info.Skip {
			continue
		}

		// Anonymous struct fields without a tag flatten in place, the way
		// Go itself promotes their fields. Scannable types like time.Time
		// stay columns even when embedded.
		if info.Embedded || (sf.Anonymous && sf.Tag.Get(w.tag) == "" && !scannableLeaf(sf.Type)) {
			if err := w.walkGroup(t, sf, parent, prefix, group, info); err != nil {
				return err
			}
			continue
		}

		if err := w.addColumn(t, sf, parent, prefix, group, info); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) walkGroup(owner reflect.Type, sf reflect.StructField, parent access.Property, prefix string, outer *Group, info TagValue) error {
	et := sf.Type
	nilable := et.Kind() == reflect.Pointer
	for et.Kind() == reflect.Pointer {
		et = et.Elem()
	}
	if et.Kind() != reflect.Struct {
		return fmt.Errorf("field %s: embedded needs a struct type, got %s", fieldPath(parent, sf.Name), sf.Type)
	}
	for _, seen := range w.chain {
		if seen == et {
			return fmt.Errorf("field %s: embeddable cycle through %s", fieldPath(parent, sf.Name), et)
		}
	}

	ref, err := w.refProperty(owner, sf, parent)
	if err != nil {
		return err
	}

	g := &Group{
		Path:    ref.Name(),
		Prefix:  prefix + info.Prefix,
		Ref:     ref,
		Nilable: nilable,
		Parent:  outer,
	}
	w.mapping.Groups = append(w.mapping.Groups, g)

	w.chain = append(w.chain, et)
	err = w.walk(et, ref, g.Prefix, g)
	w.chain = w.chain[:len(w.chain)-1]
	return err
}

func (w *walker) addColumn(owner reflect.Type, sf reflect.StructField, parent access.Property, prefix string, group *Group, info TagValue) error {
	path := fieldPath(parent, sf.Name)
	if !scannableLeaf(sf.Type) {
		return fmt.Errorf(`field %s: %s does not map to a single column, mark it embedded or skip it with "-"`, path, sf.Type)
	}

	prop, err := w.refProperty(owner, sf, parent)
	if err != nil {
		return err
	}

	name := info.Name
	if name == "" {
		name = naming.Snake(sf.Name)
	}
	name = prefix + name

	if dup := w.mapping.byName[name]; dup != nil {
		return fmt.Errorf("column %q mapped by both %s and %s", name, dup.Prop.Name(), prop.Name())
	}

	// A nil-able group anywhere on the path makes the column NULL-able,
	// not just the innermost one.
	nullable := prop.Nullable()
	for g := group; g != nil && !nullable; g = g.Parent {
		nullable = g.Nilable
	}

	col := &Column{
		Name:     name,
		Prop:     prop,
		Type:     sf.Type,
		Nullable: nullable,
		Group:    group,
	}
	w.mapping.Columns = append(w.mapping.Columns, col)
	w.mapping.byName[name] = col
	for g := group; g != nil; g = g.Parent {
		g.Columns = append(g.Columns, col)
	}
	return nil
}

// refProperty builds the accessor for sf: a direct field property at the
// top level, an embedded chain underneath a group.
func (w *walker) refProperty(owner reflect.Type, sf reflect.StructField, parent access.Property) (access.Property, error) {
	if parent == nil {
		return access.FieldPropertyOf(owner, sf)
	}
	return access.NewEmbeddedPropertyOf(parent, sf)
}

// scannableLeaf reports whether t maps to a single database column: anything
// database/sql can scan into or hand to a driver, or a non-struct kind.
func scannableLeaf(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == timeType {
		return true
	}
	if reflect.PointerTo(t).Implements(scannerType) {
		return true
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		return true
	}
	return t.Kind() != reflect.Struct
}

func fieldPath(parent access.Property, field string) string {
	if parent == nil {
		return field
	}
	return parent.Name() + "." + field
}

func unknownColumnError(m *Mapping, column string) error {
	return fmt.Errorf("entity: %s has no column %q: %w", m.Type, column, ErrUnknownColumn)
}
