package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/stokaro/tefnut/core/entity"
)

// ParseDir parses every Go file under rootDir and resolves the structs it
// finds into entity column mappings.
//
// The walk skips test files and vendor directories. Files are visited in
// lexical order, so the resulting schema is deterministic for a given tree.
func ParseDir(rootDir string) (*Schema, error) {
	return ParseDirTag(rootDir, entity.DefaultTag)
}

// ParseDirTag is ParseDir with a custom struct tag key in place of "db".
func ParseDirTag(rootDir, tag string) (*Schema, error) {
	var structs []Struct

	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			// Only a directory literally named vendor is pruned, so
			// trees like myvendor/ still get walked.
			if info.Name() == "vendor" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			return nil
		}

		parsed, err := ParseFile(path)
		if err != nil {
			return err
		}
		structs = append(structs, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return Resolve(structs, tag)
}
