package source

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"strconv"
)

// ParseFile parses a single Go file and returns the struct declarations it
// contains. A TableName() method returning a plain string literal becomes the
// table override of its receiver type.
func ParseFile(filename string) ([]Struct, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, nil, 0)
	if err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", filename, err)
	}

	var structs []Struct
	tables := make(map[string]string)
	methods := make(map[string][]string)

	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				typeSpec, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				structType, ok := typeSpec.Type.(*ast.StructType)
				if !ok {
					continue
				}
				structs = append(structs, Struct{
					Name:   typeSpec.Name.Name,
					File:   filename,
					Fields: fieldDecls(structType),
				})
			}
		case *ast.FuncDecl:
			recv := receiverType(d)
			if recv == "" {
				continue
			}
			methods[recv] = append(methods[recv], d.Name.Name)
			if isTableNameMethod(d) {
				table, ok := literalReturn(d)
				if !ok {
					slog.Warn("TableName does not return a plain string literal, using the derived table name",
						"type", recv, "file", filename)
					continue
				}
				tables[recv] = table
			}
		}
	}

	for i := range structs {
		structs[i].Table = tables[structs[i].Name]
		structs[i].Methods = methods[structs[i].Name]
	}
	return structs, nil
}

func fieldDecls(structType *ast.StructType) []FieldDecl {
	var fields []FieldDecl
	for _, f := range structType.Fields.List {
		goType := types.ExprString(f.Type)
		base := baseTypeName(f.Type)
		tag := ""
		if f.Tag != nil {
			if unquoted, err := strconv.Unquote(f.Tag.Value); err == nil {
				tag = unquoted
			}
		}
		if len(f.Names) == 0 {
			fields = append(fields, FieldDecl{
				Name:      base,
				GoType:    goType,
				BaseType:  base,
				Tag:       tag,
				Anonymous: true,
			})
			continue
		}
		for _, name := range f.Names {
			fields = append(fields, FieldDecl{
				Name:     name.Name,
				GoType:   goType,
				BaseType: base,
				Tag:      tag,
			})
		}
	}
	return fields
}

// baseTypeName resolves a type expression to the identifier it names,
// stripping pointers and package qualifiers: *pkg.Type yields "Type".
// Composite types yield "".
func baseTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return baseTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		// Generic instantiation, e.g. sql.Null[string].
		return baseTypeName(t.X)
	}
	return ""
}

func receiverType(fn *ast.FuncDecl) string {
	if fn.Recv == nil || len(fn.Recv.List) != 1 {
		return ""
	}
	return baseTypeName(fn.Recv.List[0].Type)
}

func isTableNameMethod(fn *ast.FuncDecl) bool {
	if fn.Name.Name != "TableName" {
		return false
	}
	if fn.Type.Params.NumFields() != 0 || fn.Type.Results.NumFields() != 1 {
		return false
	}
	result, ok := fn.Type.Results.List[0].Type.(*ast.Ident)
	return ok && result.Name == "string"
}

// literalReturn extracts the string literal from a single-statement
// `return "..."` body.
func literalReturn(fn *ast.FuncDecl) (string, bool) {
	if fn.Body == nil || len(fn.Body.List) != 1 {
		return "", false
	}
	ret, ok := fn.Body.List[0].(*ast.ReturnStmt)
	if !ok || len(ret.Results) != 1 {
		return "", false
	}
	lit, ok := ret.Results[0].(*ast.BasicLit)
	if !ok || lit.Kind != token.STRING {
		return "", false
	}
	table, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false
	}
	return table, true
}
