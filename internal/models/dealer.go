package models

import "time"

// Dealer is a physical dealership. Dealers arrive on a separate feed from
// stock entries; the only join between them is the live stock-feed query
// keyed by (trim, color, region). There is no stable foreign key from a
// StockEntry to a Dealer.
type Dealer struct {
	ID        string      `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	Address   string      `db:"address" json:"address"`
	Phones    StringSlice `db:"phones" json:"phones"`
	RegionID  string      `db:"region_id" json:"regionId"`
	Rating    *float64    `db:"rating" json:"rating,omitempty"`
	IsActive  bool        `db:"is_active" json:"-"`
	CreatedAt time.Time   `db:"created_at" json:"-"`
	UpdatedAt time.Time   `db:"updated_at" json:"-"`
}
