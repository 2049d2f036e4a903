package domain

import (
	"errors"
	"time"
)

// Discount percentage and duration bounds.
const (
	MinDiscountPercentage = 1
	MaxDiscountPercentage = 100
	MinDiscountDuration   = time.Minute
)

var (
	// ErrInvalidDiscountPercentage is returned when the percentage falls
	// outside [1, 100].
	ErrInvalidDiscountPercentage = errors.New("discount percentage must be between 1 and 100")

	// ErrInvalidDiscountDuration is returned when the duration is shorter
	// than one minute.
	ErrInvalidDiscountDuration = errors.New("discount duration must be at least one minute")
)

// Discount is a time-boxed percentage price reduction on a single product.
// EndsAt is computed exactly once, at creation; it never shifts afterwards,
// no matter how often the row is reloaded or rewritten.
type Discount struct {
	ID              int64     `json:"id"`
	ProductID       int64     `json:"product_id"`
	Percentage      int       `json:"percentage"`
	DurationMinutes int       `json:"duration_in_minutes"`
	CreatedAt       time.Time `json:"created_at"`
	EndsAt          time.Time `json:"ends_at"`
}

// NewDiscount validates the inputs and builds a discount whose expiry is
// fixed at now + duration.
func NewDiscount(productID int64, percentage, durationMinutes int, now time.Time) (*Discount, error) {
	if percentage < MinDiscountPercentage || percentage > MaxDiscountPercentage {
		return nil, ErrInvalidDiscountPercentage
	}
	if time.Duration(durationMinutes)*time.Minute < MinDiscountDuration {
		return nil, ErrInvalidDiscountDuration
	}

	now = now.UTC()
	return &Discount{
		ProductID:       productID,
		Percentage:      percentage,
		DurationMinutes: durationMinutes,
		CreatedAt:       now,
		EndsAt:          now.Add(time.Duration(durationMinutes) * time.Minute),
	}, nil
}

// IsActive reports whether the discount is still in effect at the given
// instant. A discount expires exactly at EndsAt: at that instant it is
// already inactive.
func (d *Discount) IsActive(now time.Time) bool {
	return now.Before(d.EndsAt)
}

// Remaining returns how long the discount stays active from the given
// instant, or zero if it has expired.
func (d *Discount) Remaining(now time.Time) time.Duration {
	if !d.IsActive(now) {
		return 0
	}
	return d.EndsAt.Sub(now)
}
