package entities

import (
	"database/sql"
	"time"
)

// Geo nests inside Destination, so its columns carry both prefixes.
type Geo struct {
	Lat float64 `db:"lat"`
	Lon float64 `db:"lon"`
}

type Destination struct {
	Street string `db:"street"`
	City   string `db:"city"`
	Geo    *Geo   `db:",embedded,prefix=geo_"`
}

type Order struct {
	ID        int64          `db:"id"`
	Reference sql.NullString `db:"reference"`
	PlacedAt  time.Time      `db:"placed_at"`
	Delivery  *Destination   `db:",embedded,prefix=delivery_"`
}

func (Order) TableName() string {
	return "orders"
}
