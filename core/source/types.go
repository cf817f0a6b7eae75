// Package source inspects entity structs in Go source files without
// compiling them. It parses struct declarations with go/ast, applies the same
// tag grammar the runtime mapping uses, and flattens embedded value objects
// into the column lists a database would see. Nullability is inferred from
// the declared type expression, so tooling can reason about NULL handling
// for packages it cannot import.
package source

// Schema is the result of inspecting a source tree.
type Schema struct {
	// Structs holds every struct declaration found, in walk order.
	Structs []Struct

	// Entities holds the resolved root entities, sorted by name. Structs
	// referenced as embeddables do not appear here unless they declare a
	// TableName method of their own.
	Entities []Entity
}

// Struct is a single struct type declaration.
type Struct struct {
	Name   string
	File   string
	Fields []FieldDecl

	// Table is the literal returned by a TableName() string method, empty
	// when the type declares none.
	Table string

	// Methods lists the method names declared on the type in the parsed
	// sources, value and pointer receivers alike.
	Methods []string
}

// HasMethod reports whether the parsed sources declare a method with the
// given name on the type.
func (s *Struct) HasMethod(name string) bool {
	for _, m := range s.Methods {
		if m == name {
			return true
		}
	}
	return false
}

// FieldDecl is one declared field of a struct.
type FieldDecl struct {
	Name string

	// GoType is the declared type expression, e.g. "*Address" or
	// "sql.NullString".
	GoType string

	// BaseType is the type name GoType refers to, pointers and package
	// qualifiers stripped. Empty for composite types like slices and maps.
	BaseType string

	// Tag is the unquoted struct tag, e.g. `db:"street"`.
	Tag string

	Anonymous bool
}

// Entity is the flattened column mapping of one root struct.
type Entity struct {
	Name    string
	Table   string
	Columns []Column

	// Embedded lists the value object groups of the entity, outer groups
	// before the groups nested inside them.
	Embedded []Embedded
}

// Column is one database column of an entity.
type Column struct {
	// Name is the column name, prefixes already applied.
	Name string

	// Path is the Go field path from the entity root, e.g.
	// "Address.Street".
	Path string

	// GoType is the declared type expression of the leaf field.
	GoType string

	// Nullable reports whether the column can come back NULL: its type can
	// hold one, or an enclosing embeddable reference is a pointer and the
	// whole group may be absent.
	Nullable bool

	// HoldsNull reports whether the declared type itself can represent
	// NULL, ignoring enclosing groups.
	HoldsNull bool

	// Embedded is the path of the innermost embedded group the column
	// belongs to, empty for top-level columns.
	Embedded string
}

// Embedded is one embeddable value object group of an entity.
type Embedded struct {
	// Path is the field path from the entity root, e.g. "Address" or
	// "Address.Geo".
	Path string

	// Type is the embeddable struct name.
	Type string

	// Prefix is the accumulated column name prefix.
	Prefix string

	// Nilable reports whether the group is declared through a pointer and
	// can be absent as a whole.
	Nilable bool

	// Parent is the path of the enclosing group, empty at the top level.
	Parent string

	// Columns lists the column names of the group, nested groups included.
	Columns []string
}

// Entity returns the resolved entity with the given struct name, or nil.
func (s *Schema) Entity(name string) *Entity {
	for i := range s.Entities {
		if s.Entities[i].Name == name {
			return &s.Entities[i]
		}
	}
	return nil
}

// EntityByTable returns the resolved entity mapped to the given table, or
// nil.
func (s *Schema) EntityByTable(table string) *Entity {
	for i := range s.Entities {
		if s.Entities[i].Table == table {
			return &s.Entities[i]
		}
	}
	return nil
}

// Struct returns the struct declaration with the given name, or nil.
func (s *Schema) Struct(name string) *Struct {
	for i := range s.Structs {
		if s.Structs[i].Name == name {
			return &s.Structs[i]
		}
	}
	return nil
}

// Column returns the entity column with the given name, or nil.
func (e *Entity) Column(name string) *Column {
	for i := range e.Columns {
		if e.Columns[i].Name == name {
			return &e.Columns[i]
		}
	}
	return nil
}

// ColumnNames returns the column names of the entity in mapping order.
func (e *Entity) ColumnNames() []string {
	names := make([]string, len(e.Columns))
	for i, col := range e.Columns {
		names[i] = col.Name
	}
	return names
}

// Group returns the embedded group with the given path, or nil.
func (e *Entity) Group(path string) *Embedded {
	for i := range e.Embedded {
		if e.Embedded[i].Path == path {
			return &e.Embedded[i]
		}
	}
	return nil
}
