// Package naming converts between Go identifier casing and database
// identifier casing. The conversions are used for default table and column
// names and for suggesting Go field names in verification output.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// initialisms maps lowercase column name segments to their conventional Go
// spelling.
var initialisms = map[string]string{
	"api":  "API",
	"db":   "DB",
	"http": "HTTP",
	"id":   "ID",
	"ip":   "IP",
	"json": "JSON",
	"sql":  "SQL",
	"uri":  "URI",
	"url":  "URL",
	"uuid": "UUID",
}

// Snake converts a Go identifier to snake_case. Acronym runs stay together:
// "UserID" becomes "user_id" and "HTTPServer" becomes "http_server".
func Snake(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range runes {
		if !unicode.IsUpper(r) {
			b.WriteRune(r)
			continue
		}
		if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// GoName converts a database identifier to the exported Go field name it
// would conventionally map to: "street_name" becomes "StreetName" and
// "user_id" becomes "UserID".
func GoName(column string) string {
	title := cases.Title(language.English)
	var b strings.Builder
	b.Grow(len(column))
	for _, part := range strings.Split(column, "_") {
		if part == "" {
			continue
		}
		if up, ok := initialisms[strings.ToLower(part)]; ok {
			b.WriteString(up)
			continue
		}
		b.WriteString(title.String(part))
	}
	return b.String()
}
