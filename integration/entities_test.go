package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/stokaro/tefnut/core/entity"
	"github.com/stokaro/tefnut/core/platform"
	"github.com/stokaro/tefnut/dbschema"
	"github.com/stokaro/tefnut/hydrate"
)

// Address mirrors the 002-embedded fixture: a value object flattened into
// the owner's columns.
type Address struct {
	Street  string  `db:"street"`
	City    string  `db:"city"`
	Country string  `db:"country"`
	Zip     *string `db:"zip"`
}

type Customer struct {
	ID       uuid.UUID `db:"id"`
	Email    string    `db:"email"`
	Shipping *Address  `db:",embedded,prefix=ship_"`
	Billing  Address   `db:",embedded,prefix=bill_"`
}

func (Customer) TableName() string {
	return "customers"
}

// customersDDL builds the CREATE TABLE statement matching the Customer
// mapping for the given dialect: NOT NULL everywhere the mapping cannot
// produce NULL, nullable columns for the nilable shipping group and the
// optional zip fields.
func customersDDL(dialect string) string {
	text := "TEXT"
	id := "TEXT"
	switch dialect {
	case platform.Postgres:
		id = "UUID"
	case platform.MySQL:
		text = "VARCHAR(255)"
		id = "CHAR(36)"
	}

	return fmt.Sprintf(`CREATE TABLE customers (
		id %s NOT NULL,
		email %s NOT NULL,
		ship_street %s,
		ship_city %s,
		ship_country %s,
		ship_zip %s,
		bill_street %s NOT NULL,
		bill_city %s NOT NULL,
		bill_country %s NOT NULL,
		bill_zip %s
	)`, id, text, text, text, text, text, text, text, text, text)
}

// insertCustomer extracts cust and inserts it, exercising the NULL contract
// on the write side: a nil shipping group inserts NULL into every ship_*
// column.
func insertCustomer(t *testing.T, conn *dbschema.DatabaseConnection, cust *Customer) {
	t.Helper()
	c := qt.New(t)

	m, err := entity.Introspect(cust)
	c.Assert(err, qt.IsNil)
	row, err := hydrate.Extract(cust)
	c.Assert(err, qt.IsNil)

	cols := m.Names()
	args := make([]any, len(cols))
	marks := make([]string, len(cols))
	for i, name := range cols {
		args[i] = row[name]
		if conn.Info().Dialect == platform.Postgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}

	query := fmt.Sprintf("INSERT INTO customers (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(marks, ", "))
	_, err = conn.ExecContext(context.Background(), query, args...)
	c.Assert(err, qt.IsNil)
}

// fetchCustomers reads every customer back through the scanning bridge,
// sorted by email for deterministic assertions.
func fetchCustomers(t *testing.T, conn *dbschema.DatabaseConnection) []*Customer {
	t.Helper()
	c := qt.New(t)

	rows, err := conn.QueryContext(context.Background(), "SELECT * FROM customers")
	c.Assert(err, qt.IsNil)
	defer rows.Close()

	customers, err := hydrate.ScanAll[Customer](rows)
	c.Assert(err, qt.IsNil)
	sort.Slice(customers, func(i, j int) bool { return customers[i].Email < customers[j].Email })
	return customers
}

func strptr(s string) *string {
	return &s
}
