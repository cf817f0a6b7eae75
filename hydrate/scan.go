package hydrate

import "fmt"

// Rows is the subset of *sql.Rows the scanning helpers use.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// ScanRow hydrates e from the current row of rows using default options.
// Callers advance the cursor with rows.Next themselves.
func ScanRow(e any, rows Rows) error {
	return defaultHydrator.ScanRow(e, rows)
}

// ScanRow hydrates e from the current row of rows. Every result-set column
// is scanned as a raw driver value and assigned through Hydrate, so the
// embeddable group semantics apply to scanned rows as well.
func (h *Hydrator) ScanRow(e any, rows Rows) error {
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("hydrate: columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return fmt.Errorf("hydrate: scan: %w", err)
	}

	row := make(map[string]any, len(cols))
	for i, name := range cols {
		row[name] = values[i]
	}
	return h.Hydrate(e, row)
}

// ScanAll drains rows into a slice of freshly instantiated entities using
// default options.
func ScanAll[T any](rows Rows) ([]*T, error) {
	return ScanAllWith[T](defaultHydrator, rows)
}

// ScanAllWith is ScanAll bound to a specific Hydrator.
func ScanAllWith[T any](h *Hydrator, rows Rows) ([]*T, error) {
	var out []*T
	for rows.Next() {
		e := new(T)
		if err := h.ScanRow(e, rows); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
