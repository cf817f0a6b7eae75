package entities

import "github.com/google/uuid"

type User struct {
	ID        uuid.UUID `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	Age       *int16    `db:"age"`
	Biography *string   `db:"biography"`
	Scratch   string    `db:"-"`
}
