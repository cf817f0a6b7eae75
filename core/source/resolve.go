package source

import (
	"fmt"
	"go/ast"
	"reflect"
	"slices"
	"sort"
	"strings"

	"github.com/stokaro/tefnut/core/entity"
	"github.com/stokaro/tefnut/core/naming"
)

// Resolve flattens struct declarations into entity column mappings using the
// given struct tag key.
//
// A struct referenced as an embeddable by another struct resolves into its
// referencing entities and does not become an entity itself, unless it
// declares its own TableName method. Structs with no mapped columns are kept
// in Schema.Structs but produce no entity.
func Resolve(structs []Struct, tag string) (*Schema, error) {
	structs, err := dedupe(structs)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Struct, len(structs))
	for i := range structs {
		byName[structs[i].Name] = &structs[i]
	}

	schema := &Schema{Structs: structs}
	referenced := embeddableRefs(structs, tag, byName)

	for i := range structs {
		st := &structs[i]
		// Embeddables and scannable value types are not entities unless
		// they name a table of their own.
		if (referenced[st.Name] || scannableDecl(st)) && st.Table == "" {
			continue
		}

		r := &resolver{tag: tag, byName: byName, seen: make(map[string]string)}
		e, err := r.entity(st)
		if err != nil {
			return nil, err
		}
		if len(e.Columns) == 0 {
			if st.Table != "" {
				return nil, fmt.Errorf("source: %s names table %s but maps no columns", st.Name, st.Table)
			}
			continue
		}
		schema.Entities = append(schema.Entities, e)
	}

	sort.Slice(schema.Entities, func(i, j int) bool {
		return schema.Entities[i].Name < schema.Entities[j].Name
	})
	return schema, nil
}

// embeddableRefs collects the struct names used as embeddable groups, so
// they can be excluded from the entity list. Tag errors are left for the
// resolver, which reports them with full field paths.
func embeddableRefs(structs []Struct, tag string, byName map[string]*Struct) map[string]bool {
	referenced := make(map[string]bool)
	for i := range structs {
		for _, fd := range structs[i].Fields {
			raw := reflect.StructTag(fd.Tag).Get(tag)
			tv, err := entity.ParseTagValue(raw)
			if err != nil || tv.Skip {
				continue
			}
			ref := localRef(fd, byName)
			if ref == nil {
				continue
			}
			if tv.Embedded || (fd.Anonymous && raw == "" && !scannableDecl(ref)) {
				referenced[ref.Name] = true
			}
		}
	}
	return referenced
}

type resolver struct {
	tag    string
	byName map[string]*Struct
	seen   map[string]string // column name -> field path
}

func (r *resolver) entity(st *Struct) (Entity, error) {
	e := Entity{
		Name:  st.Name,
		Table: st.Table,
	}
	if e.Table == "" {
		e.Table = naming.Snake(st.Name)
	}
	if err := r.walk(&e, st, walkFrame{chain: []string{st.Name}}); err != nil {
		return Entity{}, fmt.Errorf("source: map %s: %w", st.Name, err)
	}
	rollupColumns(&e)
	return e, nil
}

// walkFrame carries the flattening state of one nesting level.
type walkFrame struct {
	path    string
	prefix  string
	group   string
	nilable bool
	chain   []string
}

func (r *resolver) walk(e *Entity, st *Struct, frame walkFrame) error {
	for _, fd := range st.Fields {
		if !ast.IsExported(fd.Name) {
			continue
		}

		raw := reflect.StructTag(fd.Tag).Get(r.tag)
		tv, err := entity.ParseTagValue(raw)
		if err != nil {
			return fmt.Errorf("field %s: %w", joinPath(frame.path, fd.Name), err)
		}
		if tv.Skip {
			continue
		}

		ref := localRef(fd, r.byName)
		scannable := ref != nil && scannableDecl(ref)
		inline := fd.Anonymous && raw == "" && ref != nil && !scannable
		if tv.Embedded || inline {
			if err := r.walkGroup(e, fd, ref, tv, frame); err != nil {
				return err
			}
			continue
		}
		if ref != nil && !scannable {
			return fmt.Errorf(`field %s: %s does not map to a single column, mark it embedded or skip it with "-"`,
				joinPath(frame.path, fd.Name), fd.GoType)
		}
		if err := r.addColumn(e, fd, tv, frame); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) walkGroup(e *Entity, fd FieldDecl, ref *Struct, tv entity.TagValue, frame walkFrame) error {
	fieldPath := joinPath(frame.path, fd.Name)
	if ref == nil {
		return fmt.Errorf("field %s: embedded needs a struct type declared in the parsed sources, got %s", fieldPath, fd.GoType)
	}
	for _, seen := range frame.chain {
		if seen == ref.Name {
			return fmt.Errorf("field %s: embeddable cycle through %s", fieldPath, ref.Name)
		}
	}

	nilable := strings.HasPrefix(fd.GoType, "*")
	e.Embedded = append(e.Embedded, Embedded{
		Path:    fieldPath,
		Type:    ref.Name,
		Prefix:  frame.prefix + tv.Prefix,
		Nilable: nilable,
		Parent:  frame.group,
	})

	return r.walk(e, ref, walkFrame{
		path:    fieldPath,
		prefix:  frame.prefix + tv.Prefix,
		group:   fieldPath,
		nilable: frame.nilable || nilable,
		chain:   append(frame.chain, ref.Name),
	})
}

func (r *resolver) addColumn(e *Entity, fd FieldDecl, tv entity.TagValue, frame walkFrame) error {
	fieldPath := joinPath(frame.path, fd.Name)

	name := tv.Name
	if name == "" {
		name = naming.Snake(fd.Name)
	}
	name = frame.prefix + name

	if prev, dup := r.seen[name]; dup {
		return fmt.Errorf("column %q mapped by both %s and %s", name, prev, fieldPath)
	}
	r.seen[name] = fieldPath

	holds := holdsNull(fd.GoType)
	e.Columns = append(e.Columns, Column{
		Name:      name,
		Path:      fieldPath,
		GoType:    fd.GoType,
		Nullable:  holds || frame.nilable,
		HoldsNull: holds,
		Embedded:  frame.group,
	})
	return nil
}

// rollupColumns fills Embedded.Columns with the member column names of each
// group, nested groups included.
func rollupColumns(e *Entity) {
	byPath := make(map[string]*Embedded, len(e.Embedded))
	for i := range e.Embedded {
		byPath[e.Embedded[i].Path] = &e.Embedded[i]
	}
	for _, col := range e.Columns {
		for path := col.Embedded; path != ""; {
			g := byPath[path]
			if g == nil {
				break
			}
			g.Columns = append(g.Columns, col.Name)
			path = g.Parent
		}
	}
}

// localRef looks up the struct a field refers to. Package qualified types
// like sql.NullString are never local, even when a struct in the parsed
// sources shares their name.
func localRef(fd FieldDecl, byName map[string]*Struct) *Struct {
	if strings.Contains(fd.GoType, ".") {
		return nil
	}
	return byName[fd.BaseType]
}

// scannableDecl reports whether a locally declared struct reads and writes as
// a single value. Scan and Value methods seen in the parsed sources stand in
// for the sql.Scanner and driver.Valuer checks the runtime mapping performs.
func scannableDecl(st *Struct) bool {
	return st.HasMethod("Scan") || st.HasMethod("Value")
}

// holdsNull reports whether a declared type expression can represent NULL on
// its own. This is the static stand-in for access.Nullable: nilable kinds
// and the well known nullable wrappers, judged from the type text.
func holdsNull(goType string) bool {
	switch {
	case strings.HasPrefix(goType, "*"),
		strings.HasPrefix(goType, "[]"),
		strings.HasPrefix(goType, "map["),
		goType == "any",
		goType == "interface{}":
		return true
	case strings.HasPrefix(goType, "sql.Null"),
		strings.HasPrefix(goType, "uuid.Null"):
		return true
	case goType == "json.RawMessage", goType == "sql.RawBytes":
		return true
	}
	return false
}

func joinPath(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

// dedupe removes exact duplicate struct declarations, as happens when the
// same file is handed in twice. Conflicting redefinitions of one name are an
// error: the flattened mapping would depend on parse order.
func dedupe(structs []Struct) ([]Struct, error) {
	out := structs[:0]
	index := make(map[string]int)
	for _, st := range structs {
		at, ok := index[st.Name]
		if !ok {
			index[st.Name] = len(out)
			out = append(out, st)
			continue
		}
		prev := out[at]
		if prev.Table != st.Table || !slices.Equal(prev.Fields, st.Fields) {
			return nil, fmt.Errorf("source: %s declared in both %s and %s with different shapes", st.Name, prev.File, st.File)
		}
	}
	return out, nil
}
