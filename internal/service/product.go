package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	"github.com/dougmab/open-vinyl-box-api/internal/event"
	"github.com/dougmab/open-vinyl-box-api/internal/repository"
	apperrors "github.com/dougmab/open-vinyl-box-api/pkg/errors"
	"github.com/dougmab/open-vinyl-box-api/pkg/slug"
)

// ProductService implements the business logic for product operations.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	discounts  repository.DiscountRepository
	cache      StatisticsCache
	producer   event.Publisher
	logger     *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	discounts repository.DiscountRepository,
	statsCache StatisticsCache,
	producer event.Publisher,
	logger *slog.Logger,
) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		discounts:  discounts,
		cache:      statsCache,
		producer:   producer,
		logger:     logger,
	}
}

// CreateProductInput holds the parameters for creating a product.
type CreateProductInput struct {
	Name        string
	Description string
	ImageURL    string
	PriceCents  int64
	Currency    string
	CategoryIDs []int64
}

// UpdateProductInput holds the parameters for updating a product. Nil
// pointers leave the corresponding field unchanged.
type UpdateProductInput struct {
	Name        *string
	Description *string
	ImageURL    *string
	PriceCents  *int64
	Currency    *string
	CategoryIDs []int64
}

// CreateProduct creates a new product with the given input.
func (s *ProductService) CreateProduct(ctx context.Context, input *CreateProductInput) (*domain.Product, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("product name is required")
	}
	if input.PriceCents < 0 {
		return nil, apperrors.InvalidInput("price must not be negative")
	}
	if len(input.Currency) != 3 {
		return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
	}

	categories, err := s.resolveCategories(ctx, input.CategoryIDs)
	if err != nil {
		return nil, err
	}

	product := &domain.Product{
		Name:        input.Name,
		Slug:        slug.Generate(input.Name),
		Description: input.Description,
		ImageURL:    input.ImageURL,
		PriceCents:  input.PriceCents,
		Currency:    strings.ToUpper(input.Currency),
		Categories:  categories,
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishProductCreated(ctx, product); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.created event",
				slog.Int64("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves a product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return product, nil
}

// GetProductBySlug retrieves a product by its slug.
func (s *ProductService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	return product, nil
}

// GetProductWithDiscount retrieves a product together with its active
// discount and the effective price. A missing or expired discount is not an
// error; the product is returned at its base price.
func (s *ProductService) GetProductWithDiscount(ctx context.Context, id int64) (*domain.ProductWithDiscount, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	now := time.Now().UTC()
	result := &domain.ProductWithDiscount{
		Product:        *product,
		EffectiveCents: product.PriceCents,
	}

	discount, err := s.discounts.GetActiveByProduct(ctx, id, now)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return result, nil
		}
		return nil, fmt.Errorf("get active discount: %w", err)
	}

	result.Discount = discount
	result.DiscountApplied = true
	result.EffectiveCents = domain.EffectivePrice(product, discount, now)

	return result, nil
}

// ListProducts returns products matching the given filter.
func (s *ProductService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	return s.products.List(ctx, filter)
}

// UpdateProduct applies the given changes to an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input *UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product by id: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("product name must not be empty")
		}
		product.Name = *input.Name
		product.Slug = slug.Generate(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, apperrors.InvalidInput("price must not be negative")
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Currency != nil {
		if len(*input.Currency) != 3 {
			return nil, apperrors.InvalidInput("currency must be a 3-letter ISO code")
		}
		product.Currency = strings.ToUpper(*input.Currency)
	}
	if input.CategoryIDs != nil {
		categories, err := s.resolveCategories(ctx, input.CategoryIDs)
		if err != nil {
			return nil, err
		}
		product.Categories = categories
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if s.producer != nil {
		if err := s.producer.PublishProductUpdated(ctx, product); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.updated event",
				slog.Int64("product_id", product.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product updated",
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// DeleteProduct removes a product and all its dependent rows. The rating
// statistics cache entry is dropped so the deleted product cannot serve
// stale aggregates.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}

	if s.producer != nil {
		if err := s.producer.PublishProductDeleted(ctx, id); err != nil {
			s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
				slog.Int64("product_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "product deleted",
		slog.Int64("product_id", id),
	)

	return nil
}

func (s *ProductService) resolveCategories(ctx context.Context, ids []int64) ([]domain.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	categories := make([]domain.Category, 0, len(ids))
	for _, id := range ids {
		category, err := s.categories.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}

	return categories, nil
}
