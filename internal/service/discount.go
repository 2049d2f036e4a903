package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/event"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
)

// CreateDiscountInput holds the parameters for creating a discount.
type CreateDiscountInput struct {
	ProductID       int64
	Percentage      int
	DurationMinutes int
}

// DiscountService implements the business logic for discount operations.
type DiscountService struct {
	discounts repository.DiscountRepository
	products  repository.ProductRepository
	producer  event.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewDiscountService creates a new discount service.
func NewDiscountService(
	discounts repository.DiscountRepository,
	products repository.ProductRepository,
	producer event.Publisher,
	logger *slog.Logger,
) *DiscountService {
	return &DiscountService{
		discounts: discounts,
		products:  products,
		producer:  producer,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateDiscount puts a discount on a product. The expiry instant is fixed
// here, at creation, and never recomputed. A product holds one discount at a
// time; creating a new one replaces the old one atomically.
func (s *DiscountService) CreateDiscount(ctx context.Context, input *CreateDiscountInput) (*domain.Discount, error) {
	if _, err := s.products.GetByID(ctx, input.ProductID); err != nil {
		return nil, err
	}

	discount, err := domain.NewDiscount(input.ProductID, input.Percentage, input.DurationMinutes, s.now())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidDiscountPercentage),
			errors.Is(err, domain.ErrInvalidDiscountDuration):
			return nil, apperrors.InvalidInput(err.Error())
		default:
			return nil, err
		}
	}

	if err := s.discounts.Replace(ctx, discount); err != nil {
		return nil, fmt.Errorf("create discount: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishDiscountCreated(ctx, discount); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish discount.created event",
				slog.Int64("product_id", discount.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "discount created",
		slog.Int64("product_id", discount.ProductID),
		slog.Int("percentage", discount.Percentage),
		slog.Time("ends_at", discount.EndsAt),
	)

	return discount, nil
}

// GetDiscount returns the product's discount if it is still active. An
// expired row behaves exactly like a missing one.
func (s *DiscountService) GetDiscount(ctx context.Context, productID int64) (*domain.Discount, error) {
	return s.discounts.GetActiveByProduct(ctx, productID, s.now())
}

// DeleteDiscount removes the product's discount row. The raw lookup ignores
// expiry, so an admin can clear an expired row that reads no longer see.
func (s *DiscountService) DeleteDiscount(ctx context.Context, productID int64) error {
	discount, err := s.discounts.GetByProduct(ctx, productID)
	if err != nil {
		return err
	}

	if err := s.discounts.Delete(ctx, productID); err != nil {
		return err
	}

	if s.producer != nil {
		if err := s.producer.PublishDiscountDeleted(ctx, productID); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish discount.deleted event",
				slog.Int64("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "discount deleted",
		slog.Int64("product_id", productID),
		slog.Int("percentage", discount.Percentage),
		slog.Time("ends_at", discount.EndsAt),
	)

	return nil
}
