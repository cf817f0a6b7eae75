// Package entity builds runtime column mappings for entity structs.
//
// A mapping flattens an entity struct, including the embeddable value objects
// nested inside it, into an ordered list of database columns. Each column
// carries a property accessor from core/access, so hydration can read and
// write entity state without knowing anything about struct layout, and
// embeddable groups keep enough structure to collapse a whole value object to
// nil when every one of its columns is NULL.
//
// Mappings are derived from struct tags:
//
//	type User struct {
//		ID      int64    `db:"id"`
//		Email   string   `db:"email"`
//		Address *Address `db:",embedded,prefix=addr_"`
//		Scratch string   `db:"-"`
//	}
//
//	type Address struct {
//		Street string `db:"street"`
//		City   string `db:"city"`
//	}
//
// maps to the columns id, email, addr_street and addr_city. Untagged fields
// map to the snake_case of the field name. Anonymous struct fields without a
// tag are flattened in place with no prefix, matching how Go promotes their
// fields.
package entity

import (
	"errors"
	"reflect"

	"github.com/stokaro/tefnut/core/access"
)

// DefaultTag is the struct tag key consulted by Introspect.
const DefaultTag = "db"

var (
	// ErrNotStruct reports an attempt to map something other than a struct
	// type.
	ErrNotStruct = errors.New("need a struct type")

	// ErrUnknownColumn reports a column name the mapping does not contain.
	ErrUnknownColumn = errors.New("unknown column")
)

// Tabler overrides the default snake_case table name for an entity type.
type Tabler interface {
	TableName() string
}

// Mapping is the flattened column view of one entity struct type.
type Mapping struct {
	// Type is the entity struct type the mapping was built from.
	Type reflect.Type

	// Table is the database table the entity maps to.
	Table string

	// Columns lists the mapped columns in field declaration order,
	// embeddables flattened in place.
	Columns []*Column

	// Groups lists the embeddable groups, outer groups before the groups
	// nested inside them.
	Groups []*Group

	byName map[string]*Column
}

// Column is one mapped database column of an entity.
type Column struct {
	// Name is the database column name, group prefixes included.
	Name string

	// Prop reads and writes the column's property on the entity.
	Prop access.Property

	// Type is the declared Go type of the property.
	Type reflect.Type

	// Nullable reports whether a NULL in this column can be represented on
	// the entity, either by the property's type or by collapsing a nil-able
	// embeddable reference on its path.
	Nullable bool

	// Group is the innermost embeddable group the column belongs to, nil
	// for columns declared directly on the entity.
	Group *Group
}

// Group is one embeddable value object flattened into the entity's columns.
type Group struct {
	// Path is the Go path of the embeddable field, e.g. "Address" or
	// "Address.Geo".
	Path string

	// Prefix is the accumulated column name prefix of the group.
	Prefix string

	// Ref accesses the embeddable reference itself, for collapsing the
	// value object to nil.
	Ref access.Property

	// Nilable reports whether the reference can hold nil, i.e. whether the
	// group can express "no value object" at all.
	Nilable bool

	// Parent is the enclosing group, nil for groups declared directly on
	// the entity.
	Parent *Group

	// Columns lists every column under the group, nested groups included.
	Columns []*Column
}

// HoldsNull reports whether the column's own Go type can represent NULL,
// without resorting to collapsing an embeddable reference. Nullable can be
// true while HoldsNull is false: such a column round-trips NULL only when
// the whole group is NULL.
func (c *Column) HoldsNull() bool {
	if ep, ok := c.Prop.(*access.EmbeddedProperty); ok {
		return ep.Child().Nullable()
	}
	return access.Nullable(c.Type)
}

// Column returns the mapped column with the given database name, or nil.
func (m *Mapping) Column(name string) *Column {
	return m.byName[name]
}

// Names returns the database column names in mapping order.
func (m *Mapping) Names() []string {
	names := make([]string, len(m.Columns))
	for i, col := range m.Columns {
		names[i] = col.Name
	}
	return names
}

// Get reads the named column's property from entity.
func (m *Mapping) Get(entity any, column string) (any, error) {
	col := m.byName[column]
	if col == nil {
		return nil, unknownColumnError(m, column)
	}
	return col.Prop.Get(entity)
}

// Set writes value into the named column's property of entity.
func (m *Mapping) Set(entity any, column string, value any) error {
	col := m.byName[column]
	if col == nil {
		return unknownColumnError(m, column)
	}
	return col.Prop.Set(entity, value)
}
