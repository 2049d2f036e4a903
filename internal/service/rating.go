package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/event"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	"github.com/dougmab/open-vinyl-box-api/pkg/database"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// maxTxRetries bounds how often a rating mutation is re-run after a
// serialization failure or deadlock before the error surfaces to the caller.
const maxTxRetries = 3

// StatisticsCache is the read-through cache for rating aggregates. Satisfied
// by cache.RatingStatisticsCache; mocked in tests.
type StatisticsCache interface {
	Get(ctx context.Context, productID int64) (*domain.RatingStatistics, bool)
	Set(ctx context.Context, stats *domain.RatingStatistics)
	Invalidate(ctx context.Context, productID int64)
}

// RateProductInput holds the parameters for creating or changing a rating.
type RateProductInput struct {
	ProductID int64
	UserID    int64
	Stars     int
	Comment   string
}

// RatingService implements the business logic for rating operations.
type RatingService struct {
	ratings  repository.RatingRepository
	products repository.ProductRepository
	cache    StatisticsCache
	producer event.Publisher
	logger   *slog.Logger
}

// NewRatingService creates a new rating service.
func NewRatingService(
	ratings repository.RatingRepository,
	products repository.ProductRepository,
	statsCache StatisticsCache,
	producer event.Publisher,
	logger *slog.Logger,
) *RatingService {
	return &RatingService{
		ratings:  ratings,
		products: products,
		cache:    statsCache,
		producer: producer,
		logger:   logger,
	}
}

// withTxRetry re-runs fn on transient write conflicts. Each attempt is a
// fresh transaction; non-retryable errors surface immediately.
func (s *RatingService) withTxRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = fn()
		if err == nil || !database.IsSerializationFailure(err) {
			return err
		}

		s.logger.WarnContext(ctx, "retrying rating transaction after write conflict",
			slog.String("operation", op),
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxTxRetries),
		)
	}

	return fmt.Errorf("%s: retries exhausted: %w", op, err)
}

// RateProduct records a new rating for a product. A user may rate a product
// once; a second attempt is a conflict.
func (s *RatingService) RateProduct(ctx context.Context, input *RateProductInput) (*domain.Rating, *domain.RatingStatistics, error) {
	if !domain.ValidStars(input.Stars) {
		return nil, nil, apperrors.InvalidInput("stars must be between 1 and 5")
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, nil, err
	}

	rating := &domain.Rating{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Stars:     input.Stars,
		Comment:   input.Comment,
	}

	var stats *domain.RatingStatistics
	err := s.withTxRetry(ctx, "add rating", func() error {
		var err error
		stats, err = s.ratings.Add(ctx, rating)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterMutation(ctx, event.TopicRatingCreated, rating, stats)

	s.logger.InfoContext(ctx, "rating created",
		slog.Int64("product_id", rating.ProductID),
		slog.Int64("user_id", rating.UserID),
		slog.Int("stars", rating.Stars),
		slog.Int64("total_ratings", stats.TotalRatings),
	)

	return rating, stats, nil
}

// ChangeRating updates the star value of a user's existing rating.
func (s *RatingService) ChangeRating(ctx context.Context, input *RateProductInput) (*domain.Rating, *domain.RatingStatistics, error) {
	if !domain.ValidStars(input.Stars) {
		return nil, nil, apperrors.InvalidInput("stars must be between 1 and 5")
	}

	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, nil, err
	}

	rating := &domain.Rating{
		ProductID: input.ProductID,
		UserID:    input.UserID,
		Stars:     input.Stars,
		Comment:   input.Comment,
	}

	var stats *domain.RatingStatistics
	err := s.withTxRetry(ctx, "update rating", func() error {
		var err error
		stats, err = s.ratings.Update(ctx, rating)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.afterMutation(ctx, event.TopicRatingUpdated, rating, stats)

	s.logger.InfoContext(ctx, "rating updated",
		slog.Int64("product_id", rating.ProductID),
		slog.Int64("user_id", rating.UserID),
		slog.Int("stars", rating.Stars),
	)

	return rating, stats, nil
}

// RemoveRating deletes a user's rating of a product.
func (s *RatingService) RemoveRating(ctx context.Context, productID, userID int64) (*domain.RatingStatistics, error) {
	var stats *domain.RatingStatistics
	err := s.withTxRetry(ctx, "remove rating", func() error {
		var err error
		stats, err = s.ratings.Remove(ctx, productID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterMutation(ctx, event.TopicRatingDeleted, &domain.Rating{ProductID: productID, UserID: userID}, stats)

	s.logger.InfoContext(ctx, "rating removed",
		slog.Int64("product_id", productID),
		slog.Int64("user_id", userID),
		slog.Int64("total_ratings", stats.TotalRatings),
	)

	return stats, nil
}

// afterMutation refreshes the cache and emits the lifecycle event. Neither
// failure affects the already-committed mutation.
func (s *RatingService) afterMutation(ctx context.Context, topic string, rating *domain.Rating, stats *domain.RatingStatistics) {
	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}

	if s.producer != nil {
		if err := s.producer.PublishRatingChanged(ctx, topic, rating, stats); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish rating event",
				slog.String("topic", topic),
				slog.Int64("product_id", rating.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}
}

// GetStatistics returns the product's rating aggregate, served from cache
// when possible.
func (s *RatingService) GetStatistics(ctx context.Context, productID int64) (*domain.RatingStatistics, error) {
	if s.cache != nil {
		if stats, ok := s.cache.Get(ctx, productID); ok {
			return stats, nil
		}
	}

	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}

	stats, err := s.ratings.GetStatistics(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get rating statistics: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(ctx, stats)
	}

	return stats, nil
}

// GetUserRating returns a single user's rating of a product.
func (s *RatingService) GetUserRating(ctx context.Context, productID, userID int64) (*domain.Rating, error) {
	return s.ratings.GetByProductAndUser(ctx, productID, userID)
}

// ListRatings returns paginated ratings for a product.
func (s *RatingService) ListRatings(ctx context.Context, productID int64, page, perPage int) ([]domain.Rating, int, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, 0, err
	}

	return s.ratings.ListByProduct(ctx, productID, page, perPage)
}
