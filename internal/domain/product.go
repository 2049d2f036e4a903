package domain

import (
	"time"
)

// Product represents a vinyl record in the catalog.
type Product struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	ImageURL    string     `json:"img_url"`
	PriceCents  int64      `json:"price_cents"`
	Currency    string     `json:"currency"`
	Categories  []Category `json:"categories,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProductWithDiscount pairs a product with its currently active discount, if
// any, and the effective price after applying it.
type ProductWithDiscount struct {
	Product
	Discount        *Discount `json:"discount,omitempty"`
	EffectiveCents  int64     `json:"effective_cents"`
	DiscountApplied bool      `json:"discount_applied"`
}

// EffectivePrice returns the price in cents after applying the discount, or
// the base price when the discount is nil or no longer active.
func EffectivePrice(p *Product, d *Discount, now time.Time) int64 {
	if d == nil || !d.IsActive(now) {
		return p.PriceCents
	}
	return p.PriceCents * int64(100-d.Percentage) / 100
}
