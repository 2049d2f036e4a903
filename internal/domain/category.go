package domain

import (
	"time"
)

// Category represents a product genre or grouping, e.g. "Jazz" or "MPB".
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
