package entities

// Address is a value object flattened into the columns of its owner. Owners
// holding it through a pointer can be stored without an address at all.
type Address struct {
	Street  string  `db:"street"`
	City    string  `db:"city"`
	Country string  `db:"country"`
	Zip     *string `db:"zip"`
}
