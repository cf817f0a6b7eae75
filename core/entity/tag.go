package entity

import (
	"fmt"
	"strings"
)

// TagValue is the parsed form of one mapping tag value, e.g. "street", "-",
// ",embedded" or ",embedded,prefix=addr_". The same grammar serves runtime
// introspection and static source inspection.
type TagValue struct {
	// Name is the explicit column name, empty when defaulted.
	Name string

	// Skip marks a field excluded from mapping ("-").
	Skip bool

	// Embedded marks an embeddable group field.
	Embedded bool

	// Prefix is the column name prefix of an embedded group.
	Prefix string
}

// ParseTagValue parses a mapping tag value.
func ParseTagValue(raw string) (TagValue, error) {
	var tv TagValue
	if raw == "" {
		return tv, nil
	}

	parts := strings.Split(raw, ",")
	tv.Name = strings.TrimSpace(parts[0])
	if tv.Name == "-" {
		if len(parts) > 1 {
			return tv, fmt.Errorf(`"-" does not combine with options`)
		}
		tv.Skip = true
		tv.Name = ""
		return tv, nil
	}

	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "embedded":
			tv.Embedded = true
		case strings.HasPrefix(opt, "prefix="):
			tv.Prefix = strings.TrimPrefix(opt, "prefix=")
		default:
			return tv, fmt.Errorf("unknown tag option %q", opt)
		}
	}

	if tv.Prefix != "" && !tv.Embedded {
		return tv, fmt.Errorf(`option "prefix" requires "embedded"`)
	}
	if tv.Embedded && tv.Name != "" {
		return tv, fmt.Errorf("embedded fields take a prefix, not a column name %q", tv.Name)
	}
	return tv, nil
}
