package integration

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/stokaro/tefnut/config"
	"github.com/stokaro/tefnut/core/entity"
	"github.com/stokaro/tefnut/core/platform"
	"github.com/stokaro/tefnut/dbschema"
	"github.com/stokaro/tefnut/verify"
)

// openSQLite opens a fresh in-memory database. Every test gets its own, so
// no cleanup between tests is needed.
func openSQLite(t *testing.T) *dbschema.DatabaseConnection {
	t.Helper()
	c := qt.New(t)

	conn, err := dbschema.ConnectToDatabase("sqlite://")
	c.Assert(err, qt.IsNil)
	t.Cleanup(func() { conn.Close() })

	c.Assert(conn.Info().Dialect, qt.Equals, platform.SQLite)
	return conn
}

func TestSQLite_RoundTrip(t *testing.T) {
	c := qt.New(t)
	conn := openSQLite(t)

	_, err := conn.ExecContext(context.Background(), customersDDL(platform.SQLite))
	c.Assert(err, qt.IsNil)

	withShipping := &Customer{
		ID:    uuid.New(),
		Email: "alice@example.com",
		Shipping: &Address{
			Street:  "Main St 1",
			City:    "Springfield",
			Country: "US",
			Zip:     strptr("10001"),
		},
		Billing: Address{Street: "Billing Rd 2", City: "Shelbyville", Country: "US"},
	}
	withoutShipping := &Customer{
		ID:      uuid.New(),
		Email:   "bob@example.com",
		Billing: Address{Street: "Billing Rd 3", City: "Shelbyville", Country: "US"},
	}

	insertCustomer(t, conn, withShipping)
	insertCustomer(t, conn, withoutShipping)

	customers := fetchCustomers(t, conn)
	c.Assert(customers, qt.HasLen, 2)

	alice, bob := customers[0], customers[1]
	c.Assert(alice, qt.DeepEquals, withShipping)

	// The all-NULL shipping group hydrates as "no address", not as a
	// zero-valued one.
	c.Assert(bob.ID, qt.Equals, withoutShipping.ID)
	c.Assert(bob.Shipping, qt.IsNil)
	c.Assert(bob.Billing, qt.DeepEquals, withoutShipping.Billing)
	c.Assert(bob.Billing.Zip, qt.IsNil)
}

func TestSQLite_NullColumnsStored(t *testing.T) {
	c := qt.New(t)
	conn := openSQLite(t)

	_, err := conn.ExecContext(context.Background(), customersDDL(platform.SQLite))
	c.Assert(err, qt.IsNil)

	insertCustomer(t, conn, &Customer{
		ID:      uuid.New(),
		Email:   "bob@example.com",
		Billing: Address{Street: "Billing Rd 3", City: "Shelbyville", Country: "US"},
	})

	// The nil group really is stored as SQL NULL, not as empty strings.
	var nulls int
	err = conn.QueryRow(`SELECT COUNT(*) FROM customers
		WHERE ship_street IS NULL AND ship_city IS NULL AND ship_country IS NULL AND ship_zip IS NULL`).Scan(&nulls)
	c.Assert(err, qt.IsNil)
	c.Assert(nulls, qt.Equals, 1)
}

func TestSQLite_Verify(t *testing.T) {
	c := qt.New(t)
	conn := openSQLite(t)

	_, err := conn.ExecContext(context.Background(), customersDDL(platform.SQLite))
	c.Assert(err, qt.IsNil)

	m, err := entity.Introspect(Customer{})
	c.Assert(err, qt.IsNil)

	db, err := conn.Reader().ReadSchema()
	c.Assert(err, qt.IsNil)

	report := verify.Mapping(m, db, conn.Info().Dialect, nil)
	c.Assert(report.HasProblems(), qt.IsFalse, qt.Commentf("unexpected findings:\n%s", report))
}

func TestSQLite_VerifyNullContractViolation(t *testing.T) {
	c := qt.New(t)
	conn := openSQLite(t)

	// ship_city rejects NULL even though the shipping group can be absent,
	// and email allows NULL the entity cannot represent.
	_, err := conn.ExecContext(context.Background(), `CREATE TABLE customers (
		id TEXT NOT NULL,
		email TEXT,
		ship_street TEXT,
		ship_city TEXT NOT NULL,
		ship_country TEXT,
		ship_zip TEXT,
		bill_street TEXT NOT NULL,
		bill_city TEXT NOT NULL,
		bill_country TEXT NOT NULL,
		bill_zip TEXT,
		audit_rev INTEGER
	)`)
	c.Assert(err, qt.IsNil)

	m, err := entity.Introspect(Customer{})
	c.Assert(err, qt.IsNil)
	db, err := conn.Reader().ReadSchema()
	c.Assert(err, qt.IsNil)

	report := verify.Mapping(m, db, conn.Info().Dialect, config.WithIgnoredColumns("audit_rev"))
	c.Assert(report.HasProblems(), qt.IsTrue)

	kinds := make(map[verify.Kind][]string)
	for _, f := range report.Findings {
		kinds[f.Kind] = append(kinds[f.Kind], f.Column)
	}
	c.Assert(kinds[verify.KindNullContract], qt.DeepEquals, []string{"ship_city"})
	c.Assert(kinds[verify.KindHydrationRisk], qt.DeepEquals, []string{"email"})

	// The ignored bookkeeping column produces no finding at all.
	c.Assert(kinds[verify.KindUnmappedColumn], qt.HasLen, 0)
}
