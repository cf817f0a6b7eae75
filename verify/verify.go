// Package verify checks that a database schema can round-trip entity
// mappings. The embeddable null contract is the centerpiece: a nil value
// object stores NULL into every member column and hydrates back from an
// all-NULL group, which only works when the database permits NULL in those
// columns. Findings report where the two sides disagree, with remediation
// suggestions per dialect.
package verify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/stokaro/tefnut/config"
	"github.com/stokaro/tefnut/core/entity"
	"github.com/stokaro/tefnut/core/naming"
	"github.com/stokaro/tefnut/core/source"
	"github.com/stokaro/tefnut/dbschema/types"
)

// Severity grades a finding.
type Severity string

const (
	SeverityInfo    Severity = "INFO"
	SeverityWarning Severity = "WARNING"
	SeverityError   Severity = "ERROR"
)

// Kind names the condition a finding reports.
type Kind string

const (
	// KindMissingTable: the entity's table does not exist.
	KindMissingTable Kind = "missing-table"

	// KindMissingColumn: a mapped column does not exist on the table.
	KindMissingColumn Kind = "missing-column"

	// KindUnmappedColumn: a table column has no mapped field.
	KindUnmappedColumn Kind = "unmapped-column"

	// KindNullContract: a member column of a nilable embeddable rejects
	// NULL, so the absent value object cannot be stored.
	KindNullContract Kind = "null-contract"

	// KindHydrationRisk: a column allows NULL that the mapped Go field
	// cannot represent.
	KindHydrationRisk Kind = "hydration-risk"
)

// Finding is a single verification result.
type Finding struct {
	Severity Severity
	Kind     Kind
	Table    string
	Column   string // empty for table level findings
	Message  string

	// Suggestion carries remediation SQL for the connected dialect, or a
	// hint where no single statement fixes the finding.
	Suggestion string
}

// Report collects the findings of one verification run in deterministic
// order.
type Report struct {
	Findings []Finding
}

// HasProblems reports whether any finding needs attention, i.e. is graded
// above informational.
func (r *Report) HasProblems() bool {
	for _, f := range r.Findings {
		if f.Severity != SeverityInfo {
			return true
		}
	}
	return false
}

// String renders the report as text, one finding per line with indented
// remediation suggestions.
func (r *Report) String() string {
	if len(r.Findings) == 0 {
		return "no findings\n"
	}

	var b strings.Builder
	for _, f := range r.Findings {
		target := f.Table
		if f.Column != "" {
			target += "." + f.Column
		}
		fmt.Fprintf(&b, "%-7s %s: %s\n", f.Severity, target, f.Message)
		if f.Suggestion != "" {
			fmt.Fprintf(&b, "        fix: %s\n", f.Suggestion)
		}
	}
	return b.String()
}

// Schema verifies every entity of a parsed source schema against the
// database schema. The dialect selects identifier quoting and remediation
// SQL flavor. opts may be nil; ignored columns are skipped on both sides.
func Schema(schema *source.Schema, db *types.DBSchema, dialect string, opts *config.Options) *Report {
	report := &Report{}
	for i := range schema.Entities {
		verifyTable(report, fromSourceEntity(&schema.Entities[i]), db, dialect, opts)
	}
	finish(report)
	return report
}

// Mapping verifies a single runtime entity mapping against the database
// schema.
func Mapping(m *entity.Mapping, db *types.DBSchema, dialect string, opts *config.Options) *Report {
	report := &Report{}
	verifyTable(report, fromMapping(m), db, dialect, opts)
	finish(report)
	return report
}

// expectedColumn is the dialect neutral view of one mapped column, shared by
// the runtime and source based entry points.
type expectedColumn struct {
	name   string
	path   string // Go field path, for messages
	goType string

	// holdsNull: the field's own type can represent NULL.
	holdsNull bool

	// nilableGroup is the path of the nearest enclosing embeddable that
	// can be absent as a whole, empty when there is none.
	nilableGroup string
}

func (c *expectedColumn) nullable() bool {
	return c.holdsNull || c.nilableGroup != ""
}

type expectedTable struct {
	entity  string
	table   string
	columns []expectedColumn
}

func (t *expectedTable) column(name string) *expectedColumn {
	for i := range t.columns {
		if t.columns[i].name == name {
			return &t.columns[i]
		}
	}
	return nil
}

func fromSourceEntity(e *source.Entity) expectedTable {
	want := expectedTable{
		entity:  e.Name,
		table:   e.Table,
		columns: make([]expectedColumn, 0, len(e.Columns)),
	}
	for _, col := range e.Columns {
		want.columns = append(want.columns, expectedColumn{
			name:         col.Name,
			path:         col.Path,
			goType:       col.GoType,
			holdsNull:    col.HoldsNull,
			nilableGroup: sourceNilableGroup(e, col.Embedded),
		})
	}
	return want
}

func sourceNilableGroup(e *source.Entity, path string) string {
	for path != "" {
		g := e.Group(path)
		if g == nil {
			return ""
		}
		if g.Nilable {
			return g.Path
		}
		path = g.Parent
	}
	return ""
}

func fromMapping(m *entity.Mapping) expectedTable {
	want := expectedTable{
		entity:  m.Type.String(),
		table:   m.Table,
		columns: make([]expectedColumn, 0, len(m.Columns)),
	}
	for _, col := range m.Columns {
		nilableGroup := ""
		for g := col.Group; g != nil; g = g.Parent {
			if g.Nilable {
				nilableGroup = g.Path
				break
			}
		}
		want.columns = append(want.columns, expectedColumn{
			name:         col.Name,
			path:         col.Prop.Name(),
			goType:       col.Type.String(),
			holdsNull:    col.HoldsNull(),
			nilableGroup: nilableGroup,
		})
	}
	return want
}

func verifyTable(report *Report, want expectedTable, db *types.DBSchema, dialect string, opts *config.Options) {
	table := db.Table(want.table)
	if table == nil {
		report.Findings = append(report.Findings, Finding{
			Severity:   SeverityError,
			Kind:       KindMissingTable,
			Table:      want.table,
			Message:    fmt.Sprintf("entity %s maps to table %s, which does not exist", want.entity, want.table),
			Suggestion: createTable(dialect, want),
		})
		return
	}

	for _, col := range want.columns {
		if opts.IsIgnoredColumn(col.name) {
			continue
		}

		dbCol := table.Column(col.name)
		if dbCol == nil {
			report.Findings = append(report.Findings, Finding{
				Severity:   SeverityError,
				Kind:       KindMissingColumn,
				Table:      want.table,
				Column:     col.name,
				Message:    fmt.Sprintf("mapped by %s.%s but missing from the table", want.entity, col.path),
				Suggestion: addColumn(dialect, want.table, col),
			})
			continue
		}

		if col.nilableGroup != "" && !dbCol.Nullable() {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityError,
				Kind:     KindNullContract,
				Table:    want.table,
				Column:   col.name,
				Message: fmt.Sprintf("column rejects NULL but embeddable %s can be absent, so a nil value object cannot be stored",
					col.nilableGroup),
				Suggestion: dropNotNull(dialect, want.table, dbCol),
			})
			continue
		}

		if !col.nullable() && dbCol.Nullable() {
			report.Findings = append(report.Findings, Finding{
				Severity: SeverityWarning,
				Kind:     KindHydrationRisk,
				Table:    want.table,
				Column:   col.name,
				Message: fmt.Sprintf("column allows NULL but %s.%s (%s) cannot hold one",
					want.entity, col.path, col.goType),
				Suggestion: setNotNull(dialect, want.table, dbCol),
			})
		}
	}

	for _, dbCol := range table.Columns {
		if opts.IsIgnoredColumn(dbCol.Name) {
			continue
		}
		if want.column(dbCol.Name) != nil {
			continue
		}
		report.Findings = append(report.Findings, Finding{
			Severity: SeverityInfo,
			Kind:     KindUnmappedColumn,
			Table:    want.table,
			Column:   dbCol.Name,
			Message:  fmt.Sprintf("column has no mapped field on %s", want.entity),
			Suggestion: fmt.Sprintf("map it to a field named %s, or ignore the column",
				naming.GoName(dbCol.Name)),
		})
	}
}

func finish(report *Report) {
	sort.SliceStable(report.Findings, func(i, j int) bool {
		a, b := report.Findings[i], report.Findings[j]
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Kind < b.Kind
	})
}
