package repository

import (
	"context"
	"time"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
)

// ProductFilter defines filter criteria for listing products.
type ProductFilter struct {
	CategoryID *int64
	Search     *string
	MinPrice   *int64
	MaxPrice   *int64
	Page       int
	PerPage    int
}

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	// Create inserts a new product and assigns its generated ID.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID retrieves a product with its categories.
	GetByID(ctx context.Context, id int64) (*domain.Product, error)

	// GetBySlug retrieves a product by its URL-friendly slug.
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// List returns products matching the given filter along with the total count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update modifies an existing product, replacing its category links.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes a product together with its dependent rows (discount,
	// ratings, rating statistics, category links) in a single transaction.
	Delete(ctx context.Context, id int64) error
}

// CategoryRepository defines the interface for category persistence operations.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	List(ctx context.Context, page, perPage int) ([]domain.Category, int, error)
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id int64) error
}

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, page, perPage int) ([]domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}

// RatingRepository defines the interface for rating persistence. Every
// mutation updates the per-product statistics row inside the same
// transaction, keeping the denormalized counters exact under concurrency.
type RatingRepository interface {
	// Add inserts a rating and folds it into the product's statistics.
	// Returns a conflict error if the user has already rated the product.
	Add(ctx context.Context, rating *domain.Rating) (*domain.RatingStatistics, error)

	// Update changes an existing rating's star value and moves it between
	// statistics buckets. Returns a not-found error if the user has no
	// rating for the product.
	Update(ctx context.Context, rating *domain.Rating) (*domain.RatingStatistics, error)

	// Remove deletes a user's rating and subtracts it from the statistics.
	Remove(ctx context.Context, productID, userID int64) (*domain.RatingStatistics, error)

	// GetByProductAndUser retrieves a single user's rating of a product.
	GetByProductAndUser(ctx context.Context, productID, userID int64) (*domain.Rating, error)

	// ListByProduct returns paginated ratings for a product with the total count.
	ListByProduct(ctx context.Context, productID int64, page, perPage int) ([]domain.Rating, int, error)

	// GetStatistics returns the product's rating aggregate. Products that
	// were never rated get an empty aggregate, not an error.
	GetStatistics(ctx context.Context, productID int64) (*domain.RatingStatistics, error)
}

// DiscountRepository defines the interface for discount persistence. A
// product holds at most one discount row; creating a new discount replaces
// the previous one atomically.
type DiscountRepository interface {
	// Replace upserts the product's discount row, overwriting any previous
	// discount, and assigns the generated ID.
	Replace(ctx context.Context, discount *domain.Discount) error

	// GetByProduct retrieves the product's discount regardless of expiry.
	GetByProduct(ctx context.Context, productID int64) (*domain.Discount, error)

	// GetActiveByProduct retrieves the product's discount only if it is
	// still active at the given instant.
	GetActiveByProduct(ctx context.Context, productID int64, now time.Time) (*domain.Discount, error)

	// Delete removes the product's discount.
	Delete(ctx context.Context, productID int64) error
}
