package domain

import (
	"errors"
	"math"
	"time"
)

// Star value bounds for a rating.
const (
	MinStars = 1
	MaxStars = 5
)

var (
	// ErrInvalidStarValue is returned when a star value falls outside [1, 5].
	ErrInvalidStarValue = errors.New("star value must be between 1 and 5")

	// ErrStatisticsUnderflow is returned when removing a rating from an empty
	// bucket. It indicates the denormalized counters have diverged from the
	// rating rows and must never happen under the transactional update path.
	ErrStatisticsUnderflow = errors.New("rating statistics bucket underflow")
)

// Rating is a single user's star rating of a product. A user may hold at
// most one rating per product; changing one's mind is an update, not a
// second rating.
type Rating struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	UserID    int64     `json:"user_id"`
	Stars     int       `json:"stars"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Rater name, populated only on list reads joined with the users table.
	// Empty when the account no longer exists.
	UserFirstName string `json:"user_first_name,omitempty"`
	UserLastName  string `json:"user_last_name,omitempty"`
}

// ValidStars reports whether stars lies within [MinStars, MaxStars].
func ValidStars(stars int) bool {
	return stars >= MinStars && stars <= MaxStars
}

// RatingStatistics is the denormalized per-product rating aggregate: one row
// per product holding the rating count, the star sum, and one counter per
// star bucket. All mutations go through AddRating, UpdateRating, and
// RemoveRating so the counters move in lockstep.
type RatingStatistics struct {
	ProductID    int64     `json:"product_id"`
	TotalRatings int64     `json:"total_ratings"`
	TotalStars   int64     `json:"total_stars"`
	FiveStars    int64     `json:"five_stars"`
	FourStars    int64     `json:"four_stars"`
	ThreeStars   int64     `json:"three_stars"`
	TwoStars     int64     `json:"two_stars"`
	OneStar      int64     `json:"one_star"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewRatingStatistics returns an empty aggregate for the given product.
func NewRatingStatistics(productID int64) *RatingStatistics {
	return &RatingStatistics{ProductID: productID}
}

func (s *RatingStatistics) bucket(stars int) *int64 {
	switch stars {
	case 5:
		return &s.FiveStars
	case 4:
		return &s.FourStars
	case 3:
		return &s.ThreeStars
	case 2:
		return &s.TwoStars
	case 1:
		return &s.OneStar
	default:
		return nil
	}
}

// Bucket returns the count of ratings with the given star value.
func (s *RatingStatistics) Bucket(stars int) (int64, error) {
	b := s.bucket(stars)
	if b == nil {
		return 0, ErrInvalidStarValue
	}
	return *b, nil
}

// AddRating folds a new rating into the aggregate.
func (s *RatingStatistics) AddRating(stars int) error {
	b := s.bucket(stars)
	if b == nil {
		return ErrInvalidStarValue
	}

	*b++
	s.TotalRatings++
	s.TotalStars += int64(stars)
	return nil
}

// UpdateRating moves a rating from one star bucket to another. Counters are
// validated before any field is touched, so a failed update leaves the
// aggregate unchanged. Updating to the same value is a no-op.
func (s *RatingStatistics) UpdateRating(oldStars, newStars int) error {
	oldBucket := s.bucket(oldStars)
	newBucket := s.bucket(newStars)
	if oldBucket == nil || newBucket == nil {
		return ErrInvalidStarValue
	}
	if oldStars == newStars {
		return nil
	}
	if *oldBucket == 0 {
		return ErrStatisticsUnderflow
	}

	*oldBucket--
	*newBucket++
	s.TotalStars += int64(newStars) - int64(oldStars)
	return nil
}

// RemoveRating folds a rating removal into the aggregate.
func (s *RatingStatistics) RemoveRating(stars int) error {
	b := s.bucket(stars)
	if b == nil {
		return ErrInvalidStarValue
	}
	if *b == 0 || s.TotalRatings == 0 {
		return ErrStatisticsUnderflow
	}

	*b--
	s.TotalRatings--
	s.TotalStars -= int64(stars)
	return nil
}

// Average returns the mean star value rounded half-up to one decimal place,
// or 0.0 when the product has no ratings.
func (s *RatingStatistics) Average() float64 {
	if s.TotalRatings == 0 {
		return 0.0
	}
	return math.Round(float64(s.TotalStars)/float64(s.TotalRatings)*10) / 10
}

// IsConsistent reports whether the bucket counters agree with the totals.
// Used as a sanity check when loading rows written by older code paths.
func (s *RatingStatistics) IsConsistent() bool {
	count := s.FiveStars + s.FourStars + s.ThreeStars + s.TwoStars + s.OneStar
	sum := 5*s.FiveStars + 4*s.FourStars + 3*s.ThreeStars + 2*s.TwoStars + s.OneStar
	return count == s.TotalRatings && sum == s.TotalStars && s.TotalRatings >= 0
}
