package entity_test

import (
	"database/sql"
	"reflect"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/stokaro/tefnut/core/entity"
)

type Coordinates struct {
	Lat  float64 `db:"lat"`
	Long float64 `db:"long"`
}

type Address struct {
	Street string       `db:"street"`
	City   string       `db:"city"`
	Geo    *Coordinates `db:",embedded,prefix=geo_"`
}

type Timestamps struct {
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type User struct {
	ID       int64          `db:"id"`
	Email    string         `db:"email"`
	Nickname sql.NullString `db:"nickname"`
	Address  *Address       `db:",embedded,prefix=addr_"`
	Scratch  string         `db:"-"`
	Timestamps

	internal string //nolint:unused // unexported fields are skipped
}

type LegacyUser struct {
	ID int64 `db:"id"`
}

func (LegacyUser) TableName() string { return "app_users" }

func TestIntrospect(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)

	c.Assert(m.Table, qt.Equals, "user")
	c.Assert(m.Type, qt.Equals, reflect.TypeOf(User{}))
	c.Assert(m.Names(), qt.DeepEquals, []string{
		"id", "email", "nickname",
		"addr_street", "addr_city", "addr_geo_lat", "addr_geo_long",
		"created_at", "updated_at",
	})
}

func TestIntrospect_Columns(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)

	id := m.Column("id")
	c.Assert(id, qt.IsNotNil)
	c.Assert(id.Prop.Name(), qt.Equals, "ID")
	c.Assert(id.Nullable, qt.IsFalse)
	c.Assert(id.Group, qt.IsNil)

	nickname := m.Column("nickname")
	c.Assert(nickname.Nullable, qt.IsTrue)

	// Columns under a nil-able group are nullable through the collapse even
	// when their own type is not.
	street := m.Column("addr_street")
	c.Assert(street.Prop.Name(), qt.Equals, "Address.Street")
	c.Assert(street.Nullable, qt.IsTrue)
	c.Assert(street.Group, qt.IsNotNil)
	c.Assert(street.Group.Path, qt.Equals, "Address")

	lat := m.Column("addr_geo_lat")
	c.Assert(lat.Prop.Name(), qt.Equals, "Address.Geo.Lat")
	c.Assert(lat.Group.Path, qt.Equals, "Address.Geo")

	// Inline timestamps are columns of a value group: NULL cannot be
	// represented, neither by time.Time nor by collapsing.
	created := m.Column("created_at")
	c.Assert(created.Prop.Name(), qt.Equals, "Timestamps.CreatedAt")
	c.Assert(created.Nullable, qt.IsFalse)

	c.Assert(m.Column("scratch"), qt.IsNil)
	c.Assert(m.Column("internal"), qt.IsNil)
}

func TestIntrospect_Groups(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Groups, qt.HasLen, 3)

	addr := m.Groups[0]
	c.Assert(addr.Path, qt.Equals, "Address")
	c.Assert(addr.Prefix, qt.Equals, "addr_")
	c.Assert(addr.Nilable, qt.IsTrue)
	c.Assert(addr.Parent, qt.IsNil)

	geo := m.Groups[1]
	c.Assert(geo.Path, qt.Equals, "Address.Geo")
	c.Assert(geo.Prefix, qt.Equals, "addr_geo_")
	c.Assert(geo.Nilable, qt.IsTrue)
	c.Assert(geo.Parent, qt.Equals, addr)

	ts := m.Groups[2]
	c.Assert(ts.Path, qt.Equals, "Timestamps")
	c.Assert(ts.Prefix, qt.Equals, "")
	c.Assert(ts.Nilable, qt.IsFalse)

	// A group rolls up the columns of the groups nested inside it.
	var addrCols []string
	for _, col := range addr.Columns {
		addrCols = append(addrCols, col.Name)
	}
	c.Assert(addrCols, qt.DeepEquals, []string{
		"addr_street", "addr_city", "addr_geo_lat", "addr_geo_long",
	})

	var geoCols []string
	for _, col := range geo.Columns {
		geoCols = append(geoCols, col.Name)
	}
	c.Assert(geoCols, qt.DeepEquals, []string{"addr_geo_lat", "addr_geo_long"})
}

func TestColumn_HoldsNull(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)

	// Nullable through the group collapse, but the field itself cannot
	// hold a NULL.
	street := m.Column("addr_street")
	c.Assert(street.Nullable, qt.IsTrue)
	c.Assert(street.HoldsNull(), qt.IsFalse)

	c.Assert(m.Column("nickname").HoldsNull(), qt.IsTrue)
	c.Assert(m.Column("id").HoldsNull(), qt.IsFalse)
}

func TestColumn_NullableThroughOuterGroup(t *testing.T) {
	c := qt.New(t)

	type Span struct {
		Lat  float64 `db:"lat"`
		Long float64 `db:"long"`
	}
	type Location struct {
		Label string `db:"label"`
		Span  Span   `db:",embedded,prefix=span_"`
	}
	type Venue struct {
		ID       int64     `db:"id"`
		Location *Location `db:",embedded,prefix=loc_"`
	}

	m, err := entity.Introspect(Venue{})
	c.Assert(err, qt.IsNil)

	// The value-embedded Span cannot be absent on its own, but it sits
	// inside a nil-able Location, so its columns still accept NULL.
	lat := m.Column("loc_span_lat")
	c.Assert(lat.Group.Nilable, qt.IsFalse)
	c.Assert(lat.Nullable, qt.IsTrue)
	c.Assert(lat.HoldsNull(), qt.IsFalse)
}

func TestIntrospect_TableName(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(LegacyUser{})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Table, qt.Equals, "app_users")

	type BlogPost struct {
		ID int64 `db:"id"`
	}
	m, err = entity.Introspect(BlogPost{})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Table, qt.Equals, "blog_post")
}

func TestIntrospect_UntaggedFields(t *testing.T) {
	c := qt.New(t)

	type Device struct {
		SerialNumber string
		OwnerID      uuid.UUID
		LastSeen     *time.Time
	}

	m, err := entity.Introspect(Device{})
	c.Assert(err, qt.IsNil)
	c.Assert(m.Names(), qt.DeepEquals, []string{"serial_number", "owner_id", "last_seen"})
	c.Assert(m.Column("owner_id").Nullable, qt.IsTrue) // uuid.UUID scans NULL itself
	c.Assert(m.Column("last_seen").Nullable, qt.IsTrue)
}

func TestIntrospect_Cached(t *testing.T) {
	c := qt.New(t)

	m1, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)
	m2, err := entity.Introspect(&User{})
	c.Assert(err, qt.IsNil)
	c.Assert(m1, qt.Equals, m2)

	m3, err := entity.IntrospectType(reflect.TypeOf((*User)(nil)))
	c.Assert(err, qt.IsNil)
	c.Assert(m3, qt.Equals, m1)
}

func TestIntrospectTag(t *testing.T) {
	c := qt.New(t)

	type Tagged struct {
		Name string `col:"the_name" db:"ignored"`
	}

	m, err := entity.IntrospectTag(reflect.TypeOf(Tagged{}), "col")
	c.Assert(err, qt.IsNil)
	c.Assert(m.Names(), qt.DeepEquals, []string{"the_name"})
}

func TestIntrospect_Errors(t *testing.T) {
	type meta struct {
		Notes map[string]string
	}

	tests := []struct {
		name   string
		in     any
		wantIs error
	}{
		{name: "not a struct", in: 42, wantIs: entity.ErrNotStruct},
		{name: "nil", in: nil, wantIs: entity.ErrNotStruct},
		{
			name: "duplicate column",
			in: struct {
				A string `db:"email"`
				B string `db:"email"`
			}{},
		},
		{
			name: "plain struct field",
			in: struct {
				ID   int64 `db:"id"`
				Meta meta
			}{},
		},
		{
			name: "embedded non-struct",
			in: struct {
				N int `db:",embedded"`
			}{},
		},
		{
			name: "unknown option",
			in: struct {
				A string `db:"a,nope"`
			}{},
		},
		{
			name: "prefix without embedded",
			in: struct {
				A string `db:"a,prefix=p_"`
			}{},
		},
		{
			name: "embedded with column name",
			in: struct {
				M *meta `db:"m,embedded"`
			}{},
		},
		{
			name: "skip with options",
			in: struct {
				A string `db:"-,embedded"`
			}{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			_, err := entity.Introspect(tt.in)
			c.Assert(err, qt.IsNotNil)
			if tt.wantIs != nil {
				c.Assert(err, qt.ErrorIs, tt.wantIs)
			}
		})
	}
}

type cycleA struct {
	Name string  `db:"name"`
	B    *cycleB `db:",embedded,prefix=b_"`
}

type cycleB struct {
	Label string  `db:"label"`
	A     *cycleA `db:",embedded,prefix=a_"`
}

func TestIntrospect_EmbeddableCycle(t *testing.T) {
	c := qt.New(t)

	_, err := entity.Introspect(cycleA{})
	c.Assert(err, qt.IsNotNil)
	c.Assert(err.Error(), qt.Contains, "cycle")
}

func TestMapping_GetSet(t *testing.T) {
	c := qt.New(t)

	m, err := entity.Introspect(User{})
	c.Assert(err, qt.IsNil)

	u := &User{}
	c.Assert(m.Set(u, "email", "bob@example.com"), qt.IsNil)
	c.Assert(u.Email, qt.Equals, "bob@example.com")

	// Writing through a group materializes the embeddable chain.
	c.Assert(m.Set(u, "addr_geo_lat", 48.85), qt.IsNil)
	c.Assert(u.Address, qt.IsNotNil)
	c.Assert(u.Address.Geo, qt.IsNotNil)

	v, err := m.Get(u, "addr_geo_lat")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, 48.85)

	// Reading a column of an absent embeddable yields nil.
	v, err = m.Get(&User{}, "addr_street")
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.IsNil)

	_, err = m.Get(u, "no_such_column")
	c.Assert(err, qt.ErrorIs, entity.ErrUnknownColumn)
	err = m.Set(u, "no_such_column", 1)
	c.Assert(err, qt.ErrorIs, entity.ErrUnknownColumn)
}
