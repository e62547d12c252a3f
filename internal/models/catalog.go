package models

import "time"

// CarModel is a vehicle model: the parent of purchasable trims. Model-level
// offers form the shared promotion pool trims fall back to when they carry
// no valid offer of their own.
type CarModel struct {
	ID        int              `db:"id" json:"id"`
	Slug      string           `db:"slug" json:"slug"`
	Name      string           `db:"name" json:"name"`
	Brand     string           `db:"brand" json:"brand"`
	ImageURL  *string          `db:"image_url" json:"imageUrl,omitempty"`
	IsActive  bool             `db:"is_active" json:"-"`
	Trims     []Trim           `db:"-" json:"trims,omitempty"`
	Offers    []PromotionOffer `db:"-" json:"offers,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"-"`
	UpdatedAt time.Time        `db:"updated_at" json:"-"`
}

// Trim is a purchasable configuration of a model. Price is in currency
// minor units.
type Trim struct {
	ID           int              `db:"id" json:"id"`
	ModelID      int              `db:"model_id" json:"modelId"`
	Name         string           `db:"name" json:"name"`
	Price        int64            `db:"price" json:"price"`
	PowerHP      *int             `db:"power_hp" json:"powerHp,omitempty"`
	Transmission *string          `db:"transmission" json:"transmission,omitempty"`
	FuelUse      *string          `db:"fuel_use" json:"fuelUse,omitempty"`
	IsActive     bool             `db:"is_active" json:"-"`
	Colors       []ColorOption    `db:"-" json:"colors,omitempty"`
	Offers       []PromotionOffer `db:"-" json:"offers,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"-"`
	UpdatedAt    time.Time        `db:"updated_at" json:"-"`
}

// ColorOption is a paint option of a trim. Ordering follows the upstream
// feed; the first color is the default after a trim switch.
type ColorOption struct {
	ID        int          `db:"id" json:"id"`
	TrimID    int          `db:"trim_id" json:"trimId"`
	Name      string       `db:"name" json:"name"`
	Swatch    string       `db:"swatch" json:"swatch"`
	ImageURLs StringSlice  `db:"image_urls" json:"imageUrls,omitempty"`
	Position  int          `db:"position" json:"-"`
	Stock     []StockEntry `db:"-" json:"stock,omitempty"`
}

// StockEntry is a raw per-region stock row as pushed by the upstream feed.
// Count is string-encoded at the source and not guaranteed numeric; it must
// be parsed defensively (see inventory.ParseCount).
type StockEntry struct {
	ID        int       `db:"id" json:"-"`
	ColorID   int       `db:"color_id" json:"-"`
	RegionID  string    `db:"region_id" json:"regionId"`
	RawCount  string    `db:"raw_count" json:"count"`
	SyncedAt  time.Time `db:"synced_at" json:"-"`
}

// PromotionOffer is a financing/installment promotion record. Offers attach
// to a trim directly or to the parent model as a shared pool. There is no
// trim→offer foreign key upstream; pool offers are linked to a trim by
// price proximity only (see promo.Matcher).
type PromotionOffer struct {
	ID               int       `db:"id" json:"id"`
	ModelID          *int      `db:"model_id" json:"-"`
	TrimID           *int      `db:"trim_id" json:"-"`
	EligibilityPrice *int64    `db:"eligibility_price" json:"eligibilityPrice,omitempty"`
	TermMonths       *int      `db:"term_months" json:"termMonths,omitempty"`
	DownPayment      *int64    `db:"down_payment" json:"downPayment,omitempty"`
	DownPercent      *float64  `db:"down_percent" json:"downPercent,omitempty"`
	MonthlyAmount    *int64    `db:"monthly_amount" json:"monthlyAmount,omitempty"`
	Position         int       `db:"position" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"-"`
	UpdatedAt        time.Time `db:"updated_at" json:"-"`
}

// IsComplete reports whether the offer carries all four required fields.
// Incomplete offers are discarded by the matcher rather than guessed at.
func (o *PromotionOffer) IsComplete() bool {
	return o.EligibilityPrice != nil && *o.EligibilityPrice > 0 &&
		o.TermMonths != nil && *o.TermMonths > 0 &&
		o.DownPayment != nil && *o.DownPayment > 0 &&
		o.DownPercent != nil && *o.DownPercent > 0
}
