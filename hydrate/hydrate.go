// Package hydrate assigns database rows to entity structs and extracts
// database values back out of them.
//
// All assignment goes through the property accessors of core/access, so the
// embeddable null contract holds during hydration:
//
//   - a row where every column of a nil-able embeddable group is NULL leaves
//     the group reference nil (and clears it on a reused entity), so "no
//     value object" survives a round trip;
//   - the first non-NULL member column materializes the value object lazily,
//     with plain instantiation and no constructor logic;
//   - a NULL in a column whose property cannot represent it fails loudly with
//     access.ErrNotNullable instead of silently zeroing the field.
//
// Extraction is the inverse: a nil embeddable reference extracts NULL for
// every one of its member columns, and nothing is instantiated along the way.
package hydrate

import (
	"database/sql/driver"
	"fmt"
	"reflect"
	"sort"

	"github.com/stokaro/tefnut/config"
	"github.com/stokaro/tefnut/core/access"
	"github.com/stokaro/tefnut/core/entity"
)

// Hydrator applies database rows to entities according to config.Options.
// The zero-cost way to obtain one with default behavior is the package-level
// functions.
type Hydrator struct {
	opts *config.Options
	tag  string
}

// New returns a Hydrator using the given options. A nil opts means defaults:
// the "db" tag key, no ignored columns, unmapped columns skipped.
func New(opts *config.Options) *Hydrator {
	tag := entity.DefaultTag
	if opts != nil && opts.TagKey != "" {
		tag = opts.TagKey
	}
	return &Hydrator{opts: opts, tag: tag}
}

var defaultHydrator = New(nil)

// Hydrate applies row to e using default options. See Hydrator.Hydrate.
func Hydrate(e any, row map[string]any) error {
	return defaultHydrator.Hydrate(e, row)
}

// Extract reads e's mapped columns using default options. See
// Hydrator.Extract.
func Extract(e any) (map[string]any, error) {
	return defaultHydrator.Extract(e)
}

// Hydrate assigns the column values of row to the mapped properties of e,
// which must be a non-nil pointer to an entity struct.
//
// Columns absent from row leave their properties untouched, so partial
// selects hydrate partially. Row columns with no mapped property are skipped,
// or rejected when the options are strict. Ignored columns never take part.
//
// For each embeddable group whose present columns are all NULL, the member
// properties are not assigned at all; if the group reference is nil-able it
// is cleared, expressing "no value object".
func (h *Hydrator) Hydrate(e any, row map[string]any) error {
	m, err := entity.IntrospectTag(reflect.TypeOf(e), h.tag)
	if err != nil {
		return err
	}

	// Group pass: decide which embeddables the row leaves absent. A group
	// nested inside an absent group is absent itself.
	skip := make(map[*entity.Group]bool)
	var clear []*entity.Group
	for _, g := range m.Groups {
		if skip[g.Parent] {
			skip[g] = true
			continue
		}
		if present, allNull := h.groupState(g, row); present && allNull {
			skip[g] = true
			if g.Nilable {
				clear = append(clear, g)
			}
		}
	}

	for _, col := range m.Columns {
		v, ok := row[col.Name]
		if !ok || h.opts.IsIgnoredColumn(col.Name) {
			continue
		}
		if col.Group != nil && skip[col.Group] {
			continue
		}
		// A NULL member of a group that sibling columns keep present must
		// land in the field itself. Letting the setter collapse the group
		// here would drop the siblings' values.
		if col.Group != nil && access.IsNull(v) && !col.HoldsNull() {
			return fmt.Errorf("hydrate: column %s: NULL with other %s columns set: %w",
				col.Name, col.Group.Path, access.ErrNotNullable)
		}
		if err := col.Prop.Set(e, v); err != nil {
			return fmt.Errorf("hydrate: column %s: %w", col.Name, err)
		}
	}

	// Clearing after the column pass lets a materialized outer embeddable
	// absorb the nil write for a nested group without extra instantiation.
	for _, g := range clear {
		if err := g.Ref.Set(e, nil); err != nil {
			return fmt.Errorf("hydrate: clear %s: %w", g.Path, err)
		}
	}

	if h.opts.Strict() {
		if err := h.checkUnmapped(m, row); err != nil {
			return err
		}
	}
	return nil
}

// groupState reports whether any member column of g appears in row, and
// whether every one that does is NULL. Ignored columns are invisible.
func (h *Hydrator) groupState(g *entity.Group, row map[string]any) (present, allNull bool) {
	allNull = true
	for _, col := range g.Columns {
		v, ok := row[col.Name]
		if !ok || h.opts.IsIgnoredColumn(col.Name) {
			continue
		}
		present = true
		if !access.IsNull(v) {
			return true, false
		}
	}
	return present, allNull
}

func (h *Hydrator) checkUnmapped(m *entity.Mapping, row map[string]any) error {
	var unmapped []string
	for name := range row {
		if m.Column(name) == nil && !h.opts.IsIgnoredColumn(name) {
			unmapped = append(unmapped, name)
		}
	}
	if len(unmapped) == 0 {
		return nil
	}
	sort.Strings(unmapped)
	return fmt.Errorf("hydrate: %s has no property mapped to columns %v: %w", m.Type, unmapped, entity.ErrUnknownColumn)
}

// Extract reads every mapped column value from e, normalized the way
// database/sql normalizes query arguments: driver.Valuer implementations are
// unwrapped, so sql.NullString extracts as a string or nil. Member columns
// of a nil embeddable reference extract as nil, and the read never
// instantiates anything.
func (h *Hydrator) Extract(e any) (map[string]any, error) {
	m, err := entity.IntrospectTag(reflect.TypeOf(e), h.tag)
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(m.Columns))
	for _, col := range m.Columns {
		if h.opts.IsIgnoredColumn(col.Name) {
			continue
		}
		v, err := col.Prop.Get(e)
		if err != nil {
			return nil, fmt.Errorf("hydrate: extract column %s: %w", col.Name, err)
		}
		nv, err := driverValue(v)
		if err != nil {
			return nil, fmt.Errorf("hydrate: extract column %s: %w", col.Name, err)
		}
		out[col.Name] = nv
	}
	return out, nil
}

// driverValue unwraps driver.Valuer values, mirroring database/sql.
func driverValue(v any) (any, error) {
	if valuer, ok := v.(driver.Valuer); ok {
		return valuer.Value()
	}
	return v, nil
}
