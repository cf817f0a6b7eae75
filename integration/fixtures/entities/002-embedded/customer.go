package entities

import "github.com/google/uuid"

type Customer struct {
	ID    uuid.UUID `db:"id"`
	Email string    `db:"email"`

	// Shipping is optional: a customer without one stores NULL in every
	// ship_* column.
	Shipping *Address `db:",embedded,prefix=ship_"`

	// Billing is required, its columns are never NULL as a group.
	Billing Address `db:",embedded,prefix=bill_"`
}

func (Customer) TableName() string {
	return "customers"
}
