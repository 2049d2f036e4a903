package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/pkg/database"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// DiscountRepository implements discount persistence using PostgreSQL.
type DiscountRepository struct {
	pool database.DBTX
}

// NewDiscountRepository creates a new PostgreSQL-backed discount repository.
func NewDiscountRepository(pool database.DBTX) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

const discountColumns = `id, product_id, percentage, duration_in_minutes, created_at, ends_at`

// Replace upserts the product's discount row. The unique constraint on
// product_id makes the replace atomic: two concurrent creates for the same
// product leave exactly one row, the later writer's.
func (r *DiscountRepository) Replace(ctx context.Context, d *domain.Discount) error {
	query := `
		INSERT INTO discounts (product_id, percentage, duration_in_minutes, created_at, ends_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (product_id) DO UPDATE
		SET percentage = EXCLUDED.percentage,
		    duration_in_minutes = EXCLUDED.duration_in_minutes,
		    created_at = EXCLUDED.created_at,
		    ends_at = EXCLUDED.ends_at
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		d.ProductID,
		d.Percentage,
		d.DurationMinutes,
		d.CreatedAt,
		d.EndsAt,
	).Scan(&d.ID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperrors.NotFound("product", d.ProductID)
		}
		return fmt.Errorf("replace discount: %w", err)
	}

	return nil
}

// GetByProduct retrieves the product's discount regardless of expiry.
func (r *DiscountRepository) GetByProduct(ctx context.Context, productID int64) (*domain.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE product_id = $1`

	return r.scanDiscount(ctx, query, productID)
}

// GetActiveByProduct retrieves the product's discount only if it is still
// active at the given instant. A discount whose ends_at equals now is
// already expired.
func (r *DiscountRepository) GetActiveByProduct(ctx context.Context, productID int64, now time.Time) (*domain.Discount, error) {
	query := `
		SELECT ` + discountColumns + `
		FROM discounts
		WHERE product_id = $1 AND ends_at > $2`

	return r.scanDiscount(ctx, query, productID, now)
}

// Delete removes the product's discount.
func (r *DiscountRepository) Delete(ctx context.Context, productID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discounts WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete discount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound("discount", productID)
	}

	return nil
}

func (r *DiscountRepository) scanDiscount(ctx context.Context, query string, args ...any) (*domain.Discount, error) {
	var d domain.Discount
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&d.ID,
		&d.ProductID,
		&d.Percentage,
		&d.DurationMinutes,
		&d.CreatedAt,
		&d.EndsAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("discount", args[0])
	}
	if err != nil {
		return nil, fmt.Errorf("get discount: %w", err)
	}

	return &d, nil
}
