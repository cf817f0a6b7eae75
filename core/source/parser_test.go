package source_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/stokaro/tefnut/core/source"
	"github.com/stokaro/tefnut/core/source/testutil"
)

func TestParseFile(t *testing.T) {
	c := qt.New(t)

	content := `package entities

import (
	"database/sql"
	"time"
)

type Address struct {
	Street string ` + "`db:\"street\"`" + `
	City   string ` + "`db:\"city\"`" + `
}

type User struct {
	ID        int64          ` + "`db:\"id\"`" + `
	Email     string         ` + "`db:\"email\" json:\"email\"`" + `
	Nickname  sql.NullString ` + "`db:\"nickname\"`" + `
	Address   *Address       ` + "`db:\",embedded,prefix=addr_\"`" + `
	CreatedAt time.Time
	Scratch   string ` + "`db:\"-\"`" + `
	Timestamps
}

func (u *User) TableName() string {
	return "users"
}

func (u *User) Validate() error {
	return nil
}
`

	path := testutil.CreateTempGoFile(t, content)
	structs, err := source.ParseFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(structs, qt.HasLen, 2)

	addr := structs[0]
	c.Assert(addr.Name, qt.Equals, "Address")
	c.Assert(addr.File, qt.Equals, path)
	c.Assert(addr.Table, qt.Equals, "")
	c.Assert(addr.Fields, qt.DeepEquals, []source.FieldDecl{
		{Name: "Street", GoType: "string", BaseType: "string", Tag: `db:"street"`},
		{Name: "City", GoType: "string", BaseType: "string", Tag: `db:"city"`},
	})

	user := structs[1]
	c.Assert(user.Name, qt.Equals, "User")
	c.Assert(user.Table, qt.Equals, "users")
	c.Assert(user.HasMethod("Validate"), qt.IsTrue)
	c.Assert(user.HasMethod("Scan"), qt.IsFalse)
	c.Assert(user.Fields, qt.DeepEquals, []source.FieldDecl{
		{Name: "ID", GoType: "int64", BaseType: "int64", Tag: `db:"id"`},
		{Name: "Email", GoType: "string", BaseType: "string", Tag: `db:"email" json:"email"`},
		{Name: "Nickname", GoType: "sql.NullString", BaseType: "NullString", Tag: `db:"nickname"`},
		{Name: "Address", GoType: "*Address", BaseType: "Address", Tag: `db:",embedded,prefix=addr_"`},
		{Name: "CreatedAt", GoType: "time.Time", BaseType: "Time"},
		{Name: "Scratch", GoType: "string", BaseType: "string", Tag: `db:"-"`},
		{Name: "Timestamps", GoType: "Timestamps", BaseType: "Timestamps", Anonymous: true},
	})
}

func TestParseFile_SharedFieldDecl(t *testing.T) {
	c := qt.New(t)

	path := testutil.CreateTempGoFile(t, `package entities

type Span struct {
	Start, End int64
}
`)

	structs, err := source.ParseFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(structs, qt.HasLen, 1)
	c.Assert(structs[0].Fields, qt.HasLen, 2)
	c.Assert(structs[0].Fields[0].Name, qt.Equals, "Start")
	c.Assert(structs[0].Fields[1].Name, qt.Equals, "End")
	c.Assert(structs[0].Fields[1].GoType, qt.Equals, "int64")
}

func TestParseFile_TableNameNotLiteral(t *testing.T) {
	c := qt.New(t)

	path := testutil.CreateTempGoFile(t, `package entities

var table = "users"

type User struct {
	ID int64 `+"`db:\"id\"`"+`
}

func (u User) TableName() string {
	return table
}
`)

	structs, err := source.ParseFile(path)
	c.Assert(err, qt.IsNil)
	c.Assert(structs, qt.HasLen, 1)
	c.Assert(structs[0].Table, qt.Equals, "")
}

func TestParseFile_Invalid(t *testing.T) {
	c := qt.New(t)

	path := testutil.CreateTempGoFile(t, "package entities\n\ntype Broken struct {\n")
	_, err := source.ParseFile(path)
	c.Assert(err, qt.IsNotNil)
}

func TestParseFile_Missing(t *testing.T) {
	c := qt.New(t)

	_, err := source.ParseFile("does-not-exist.go")
	c.Assert(err, qt.IsNotNil)
}
