package inspect

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-extras/cobraflags"
	"github.com/spf13/cobra"

	"github.com/stokaro/tefnut/core/entity"
	"github.com/stokaro/tefnut/core/source"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect entity column mappings in Go source files",
	Long: `Inspect Go entity structs and print the column mapping each one produces.

This command scans the directory recursively for Go structs with db tags,
flattens embedded value objects into their column lists and prints, per
entity, the resulting columns with their Go field paths, declared types,
nullability and embeddable group membership.

Examples:
  tefnut inspect --root-dir ./entities              # All entities under the directory
  tefnut inspect --root-dir ./entities --table users # One entity, selected by table name
  tefnut inspect --root-dir ./entities --tag orm    # Custom struct tag key`,
	RunE: inspectCommand,
}

const (
	rootDirFlag = "root-dir"
	tableFlag   = "table"
	tagFlag     = "tag"
)

var inspectFlags = map[string]cobraflags.Flag{
	rootDirFlag: &cobraflags.StringFlag{
		Name:  rootDirFlag,
		Value: "./",
		Usage: "Root directory to scan for Go entities",
	},
	tableFlag: &cobraflags.StringFlag{
		Name:  tableFlag,
		Value: "",
		Usage: "Only show the entity mapped to this table",
	},
	tagFlag: &cobraflags.StringFlag{
		Name:  tagFlag,
		Value: entity.DefaultTag,
		Usage: "Struct tag key to read column mappings from",
	},
}

func NewInspectCommand() *cobra.Command {
	cobraflags.RegisterMap(inspectCmd, inspectFlags)
	return inspectCmd
}

func inspectCommand(_ *cobra.Command, _ []string) error {
	rootDir := inspectFlags[rootDirFlag].GetString()
	table := inspectFlags[tableFlag].GetString()
	tag := inspectFlags[tagFlag].GetString()

	absPath, err := filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("error resolving path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("directory does not exist: %s", absPath)
	}

	schema, err := source.ParseDirTag(absPath, tag)
	if err != nil {
		return fmt.Errorf("error parsing entities: %w", err)
	}

	entities := schema.Entities
	if table != "" {
		e := schema.EntityByTable(table)
		if e == nil {
			return fmt.Errorf("no entity maps to table %q under %s", table, absPath)
		}
		entities = []source.Entity{*e}
	}
	if len(entities) == 0 {
		fmt.Printf("No entities found under %s\n", absPath)
		return nil
	}

	fmt.Printf("Scanning directory: %s\n", absPath)
	fmt.Printf("Found %d entities, %d struct declarations\n\n", len(schema.Entities), len(schema.Structs))

	for i := range entities {
		printEntity(&entities[i])
	}
	return nil
}

func printEntity(e *source.Entity) {
	heading := fmt.Sprintf("%s (table %s)", e.Name, e.Table)
	fmt.Println(heading)
	fmt.Println(strings.Repeat("=", len(heading)))

	nameWidth, pathWidth, typeWidth := len("COLUMN"), len("FIELD"), len("TYPE")
	for _, col := range e.Columns {
		nameWidth = max(nameWidth, len(col.Name))
		pathWidth = max(pathWidth, len(col.Path))
		typeWidth = max(typeWidth, len(col.GoType))
	}

	fmt.Printf("%-*s  %-*s  %-*s  %-8s  %s\n",
		nameWidth, "COLUMN", pathWidth, "FIELD", typeWidth, "TYPE", "NULL", "GROUP")
	for _, col := range e.Columns {
		nullable := "no"
		if col.Nullable {
			nullable = "yes"
		}
		fmt.Printf("%-*s  %-*s  %-*s  %-8s  %s\n",
			nameWidth, col.Name, pathWidth, col.Path, typeWidth, col.GoType, nullable, col.Embedded)
	}

	if len(e.Embedded) > 0 {
		fmt.Println()
		fmt.Println("Embeddable groups:")
		for _, g := range e.Embedded {
			kind := "required"
			if g.Nilable {
				kind = "nilable"
			}
			fmt.Printf("  %s (%s, %s, prefix %q): %s\n",
				g.Path, g.Type, kind, g.Prefix, strings.Join(g.Columns, ", "))
		}
	}
	fmt.Println()
}
