// Package config provides configuration options for the Tefnut hydration
// system.
//
// This package provides a simple, programmatic API for configuring entity
// introspection, hydration and schema verification behavior when using Tefnut
// as a library. It focuses on providing clean Go APIs rather than external
// configuration file management.
package config

// Options contains configuration options for hydration and verification
// operations. The zero value and a nil *Options both mean defaults.
type Options struct {
	// TagKey is the struct tag key consulted during entity introspection.
	// Empty means the default "db".
	TagKey string

	// IgnoredColumns is a list of database column names that should be
	// ignored during hydration and verification. These columns will:
	// - Be skipped when hydrating rows, even in strict mode
	// - Be excluded from verification findings
	//
	// Typical candidates are bookkeeping columns maintained outside the
	// entity mapping, such as trigger-managed audit columns.
	IgnoredColumns []string

	// StrictColumns makes hydration fail on result-set columns that have no
	// mapped property instead of silently skipping them.
	StrictColumns bool
}

// DefaultOptions returns the default options: the "db" tag key, no ignored
// columns, lenient column handling.
func DefaultOptions() *Options {
	return &Options{}
}

// WithTagKey returns a new Options using the given struct tag key in place
// of "db".
//
// Example:
//
//	opts := config.WithTagKey("orm")
func WithTagKey(key string) *Options {
	return &Options{TagKey: key}
}

// WithIgnoredColumns returns a new Options ignoring the given database
// column names.
//
// Example:
//
//	opts := config.WithIgnoredColumns("search_tsv", "audit_rev")
func WithIgnoredColumns(columns ...string) *Options {
	return &Options{IgnoredColumns: columns}
}

// WithStrictColumns returns a new Options that rejects unmapped result-set
// columns during hydration.
func WithStrictColumns() *Options {
	return &Options{StrictColumns: true}
}

// WithAdditionalIgnoredColumns returns a copy of the options with the given
// column names appended to the ignored list. The receiver is not modified; a
// nil receiver extends the defaults.
//
// Example:
//
//	opts := config.WithStrictColumns().WithAdditionalIgnoredColumns("audit_rev")
func (o *Options) WithAdditionalIgnoredColumns(columns ...string) *Options {
	out := &Options{}
	if o != nil {
		out.TagKey = o.TagKey
		out.StrictColumns = o.StrictColumns
		out.IgnoredColumns = append(out.IgnoredColumns, o.IgnoredColumns...)
	}
	out.IgnoredColumns = append(out.IgnoredColumns, columns...)
	return out
}

// IsIgnoredColumn checks if the given column name should be ignored during
// hydration and verification based on the current configuration. A nil
// receiver ignores nothing.
func (o *Options) IsIgnoredColumn(name string) bool {
	if o == nil {
		return false
	}
	for _, ignored := range o.IgnoredColumns {
		if ignored == name {
			return true
		}
	}
	return false
}

// FilterIgnoredColumns removes ignored columns from the provided slice and
// returns a new slice containing only columns that take part in hydration
// and verification.
func (o *Options) FilterIgnoredColumns(columns []string) []string {
	filtered := make([]string, 0, len(columns))
	for _, col := range columns {
		if !o.IsIgnoredColumn(col) {
			filtered = append(filtered, col)
		}
	}
	return filtered
}

// Strict reports whether unmapped result-set columns are an error. A nil
// receiver is lenient.
func (o *Options) Strict() bool {
	return o != nil && o.StrictColumns
}
