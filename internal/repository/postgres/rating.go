package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/pkg/database"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// RatingRepository implements rating persistence using PostgreSQL. All
// mutations run inside a transaction that locks the product's statistics row
// first, so concurrent writers on the same product serialize and the
// denormalized counters never drift from the rating rows.
type RatingRepository struct {
	pool database.DBTX
}

// NewRatingRepository creates a new PostgreSQL-backed rating repository.
func NewRatingRepository(pool database.DBTX) *RatingRepository {
	return &RatingRepository{pool: pool}
}

const statsColumns = `product_id, total_ratings, total_stars, five_stars, four_stars, three_stars, two_stars, one_star, updated_at`

// lockStatistics ensures the product's statistics row exists and locks it for
// the duration of the transaction. The lock is always taken before touching
// rating rows, giving every mutation the same lock order.
func lockStatistics(ctx context.Context, tx pgx.Tx, productID int64) (*domain.RatingStatistics, error) {
	_, err := tx.Exec(ctx, `
		INSERT INTO rating_statistics (product_id)
		VALUES ($1)
		ON CONFLICT (product_id) DO NOTHING`, productID)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, fmt.Errorf("ensure statistics row: %w", err)
	}

	query := `
		SELECT ` + statsColumns + `
		FROM rating_statistics
		WHERE product_id = $1
		FOR UPDATE`

	var s domain.RatingStatistics
	err = tx.QueryRow(ctx, query, productID).Scan(
		&s.ProductID,
		&s.TotalRatings,
		&s.TotalStars,
		&s.FiveStars,
		&s.FourStars,
		&s.ThreeStars,
		&s.TwoStars,
		&s.OneStar,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("lock statistics row: %w", err)
	}

	return &s, nil
}

func saveStatistics(ctx context.Context, tx pgx.Tx, s *domain.RatingStatistics) error {
	query := `
		UPDATE rating_statistics
		SET total_ratings = $2,
		    total_stars = $3,
		    five_stars = $4,
		    four_stars = $5,
		    three_stars = $6,
		    two_stars = $7,
		    one_star = $8,
		    updated_at = now()
		WHERE product_id = $1`

	_, err := tx.Exec(ctx, query,
		s.ProductID,
		s.TotalRatings,
		s.TotalStars,
		s.FiveStars,
		s.FourStars,
		s.ThreeStars,
		s.TwoStars,
		s.OneStar,
	)
	if err != nil {
		return fmt.Errorf("save statistics: %w", err)
	}

	return nil
}

// Add inserts a rating and folds it into the product's statistics in one
// transaction. The unique constraint on (product_id, user_id) backstops the
// one-rating-per-user rule against concurrent inserts.
func (r *RatingRepository) Add(ctx context.Context, rating *domain.Rating) (*domain.RatingStatistics, error) {
	var stats *domain.RatingStatistics

	err := database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := lockStatistics(ctx, tx, rating.ProductID)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO ratings (product_id, user_id, stars, comment, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
			ON CONFLICT (product_id, user_id) DO NOTHING
			RETURNING id, created_at, updated_at`

		err = tx.QueryRow(ctx, query, rating.ProductID, rating.UserID, rating.Stars, rating.Comment).
			Scan(&rating.ID, &rating.CreatedAt, &rating.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.Conflict("user has already rated this product")
		}
		if err != nil {
			return fmt.Errorf("insert rating: %w", err)
		}

		if err := s.AddRating(rating.Stars); err != nil {
			return err
		}
		if err := saveStatistics(ctx, tx, s); err != nil {
			return err
		}

		stats = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Update changes an existing rating's star value and moves it between
// statistics buckets in one transaction.
func (r *RatingRepository) Update(ctx context.Context, rating *domain.Rating) (*domain.RatingStatistics, error) {
	var stats *domain.RatingStatistics

	err := database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := lockStatistics(ctx, tx, rating.ProductID)
		if err != nil {
			return err
		}

		var oldStars int
		err = tx.QueryRow(ctx, `
			SELECT id, stars, created_at
			FROM ratings
			WHERE product_id = $1 AND user_id = $2
			FOR UPDATE`, rating.ProductID, rating.UserID).
			Scan(&rating.ID, &oldStars, &rating.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("rating", fmt.Sprintf("product %d user %d", rating.ProductID, rating.UserID))
		}
		if err != nil {
			return fmt.Errorf("select rating for update: %w", err)
		}

		err = tx.QueryRow(ctx, `
			UPDATE ratings
			SET stars = $3, comment = $4, updated_at = now()
			WHERE product_id = $1 AND user_id = $2
			RETURNING updated_at`, rating.ProductID, rating.UserID, rating.Stars, rating.Comment).
			Scan(&rating.UpdatedAt)
		if err != nil {
			return fmt.Errorf("update rating: %w", err)
		}

		if err := s.UpdateRating(oldStars, rating.Stars); err != nil {
			return err
		}
		if err := saveStatistics(ctx, tx, s); err != nil {
			return err
		}

		stats = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// Remove deletes a user's rating and subtracts it from the statistics in one
// transaction.
func (r *RatingRepository) Remove(ctx context.Context, productID, userID int64) (*domain.RatingStatistics, error) {
	var stats *domain.RatingStatistics

	err := database.WithinTx(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := lockStatistics(ctx, tx, productID)
		if err != nil {
			return err
		}

		var stars int
		err = tx.QueryRow(ctx, `
			DELETE FROM ratings
			WHERE product_id = $1 AND user_id = $2
			RETURNING stars`, productID, userID).
			Scan(&stars)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound("rating", fmt.Sprintf("product %d user %d", productID, userID))
		}
		if err != nil {
			return fmt.Errorf("delete rating: %w", err)
		}

		if err := s.RemoveRating(stars); err != nil {
			return err
		}
		if err := saveStatistics(ctx, tx, s); err != nil {
			return err
		}

		stats = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// GetByProductAndUser retrieves a single user's rating of a product.
func (r *RatingRepository) GetByProductAndUser(ctx context.Context, productID, userID int64) (*domain.Rating, error) {
	query := `
		SELECT id, product_id, user_id, stars, comment, created_at, updated_at
		FROM ratings
		WHERE product_id = $1 AND user_id = $2`

	var rating domain.Rating
	err := r.pool.QueryRow(ctx, query, productID, userID).Scan(
		&rating.ID,
		&rating.ProductID,
		&rating.UserID,
		&rating.Stars,
		&rating.Comment,
		&rating.CreatedAt,
		&rating.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("rating", fmt.Sprintf("product %d user %d", productID, userID))
	}
	if err != nil {
		return nil, fmt.Errorf("get rating: %w", err)
	}

	return &rating, nil
}

// ListByProduct returns paginated ratings for a product along with the total count.
func (r *RatingRepository) ListByProduct(ctx context.Context, productID int64, page, perPage int) ([]domain.Rating, int, error) {
	limit := perPage
	if limit <= 0 {
		limit = 20
	}
	offset := 0
	if page > 1 {
		offset = (page - 1) * limit
	}

	// LEFT JOIN because ratings outlive the account that cast them.
	query := `
		SELECT r.id, r.product_id, r.user_id, r.stars, r.comment,
		       r.created_at, r.updated_at,
		       COALESCE(u.first_name, '') AS user_first_name,
		       COALESCE(u.last_name, '') AS user_last_name,
		       count(*) OVER() AS total_count
		FROM ratings r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, productID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	var (
		ratings    []domain.Rating
		totalCount int
	)

	for rows.Next() {
		var rt domain.Rating
		if err := rows.Scan(
			&rt.ID,
			&rt.ProductID,
			&rt.UserID,
			&rt.Stars,
			&rt.Comment,
			&rt.CreatedAt,
			&rt.UpdatedAt,
			&rt.UserFirstName,
			&rt.UserLastName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("scan rating row: %w", err)
		}
		ratings = append(ratings, rt)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate rating rows: %w", err)
	}

	if ratings == nil {
		ratings = []domain.Rating{}
	}

	return ratings, totalCount, nil
}

// GetStatistics returns the product's rating aggregate. Products without a
// statistics row get an empty aggregate.
func (r *RatingRepository) GetStatistics(ctx context.Context, productID int64) (*domain.RatingStatistics, error) {
	query := `
		SELECT ` + statsColumns + `
		FROM rating_statistics
		WHERE product_id = $1`

	var s domain.RatingStatistics
	err := r.pool.QueryRow(ctx, query, productID).Scan(
		&s.ProductID,
		&s.TotalRatings,
		&s.TotalStars,
		&s.FiveStars,
		&s.FourStars,
		&s.ThreeStars,
		&s.TwoStars,
		&s.OneStar,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NewRatingStatistics(productID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}

	return &s, nil
}
