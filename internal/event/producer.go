package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
	pkgkafka "github.com/dougmab/open-vinyl-box-api/pkg/kafka"
)

// Kafka topic constants for catalog domain events.
const (
	TopicProductCreated  = "vinylbox.product.created"
	TopicProductUpdated  = "vinylbox.product.updated"
	TopicProductDeleted  = "vinylbox.product.deleted"
	TopicRatingCreated   = "vinylbox.rating.created"
	TopicRatingUpdated   = "vinylbox.rating.updated"
	TopicRatingDeleted   = "vinylbox.rating.deleted"
	TopicDiscountCreated = "vinylbox.discount.created"
	TopicDiscountDeleted = "vinylbox.discount.deleted"
)

// Aggregate type constants.
const (
	AggregateTypeProduct  = "product"
	AggregateTypeRating   = "rating"
	AggregateTypeDiscount = "discount"
)

// Source identifier for events originating from this service.
const SourceCatalogAPI = "vinylbox-api"

// Publisher is the interface services use to emit domain events. Satisfied
// by Producer; mocked in service tests.
type Publisher interface {
	PublishProductCreated(ctx context.Context, product *domain.Product) error
	PublishProductUpdated(ctx context.Context, product *domain.Product) error
	PublishProductDeleted(ctx context.Context, id int64) error
	PublishRatingChanged(ctx context.Context, eventType string, rating *domain.Rating, stats *domain.RatingStatistics) error
	PublishDiscountCreated(ctx context.Context, discount *domain.Discount) error
	PublishDiscountDeleted(ctx context.Context, productID int64) error
}

// ProductData is the payload for product.created and product.updated events.
type ProductData struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ImageURL    string `json:"img_url"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

// ProductDeletedData is the payload for a product.deleted event.
type ProductDeletedData struct {
	ID int64 `json:"id"`
}

// RatingData is the payload for rating lifecycle events. It carries the
// resulting aggregate so consumers never need a read-back to stay current.
type RatingData struct {
	ProductID    int64   `json:"product_id"`
	UserID       int64   `json:"user_id"`
	Stars        int     `json:"stars,omitempty"`
	TotalRatings int64   `json:"total_ratings"`
	Average      float64 `json:"average"`
}

// DiscountData is the payload for discount lifecycle events.
type DiscountData struct {
	ProductID  int64     `json:"product_id"`
	Percentage int       `json:"percentage,omitempty"`
	EndsAt     time.Time `json:"ends_at,omitempty"`
}

// Producer publishes catalog domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the catalog service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, SourceCatalogAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	return nil
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductCreated, product)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, product *domain.Product) error {
	return p.publishProduct(ctx, TopicProductUpdated, product)
}

func (p *Producer) publishProduct(ctx context.Context, topic string, product *domain.Product) error {
	data := ProductData{
		ID:          product.ID,
		Name:        product.Name,
		Slug:        product.Slug,
		Description: product.Description,
		ImageURL:    product.ImageURL,
		PriceCents:  product.PriceCents,
		Currency:    product.Currency,
	}

	if err := p.publish(ctx, topic, strconv.FormatInt(product.ID, 10), AggregateTypeProduct, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published product event",
		slog.String("topic", topic),
		slog.Int64("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return nil
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, id int64) error {
	if err := p.publish(ctx, TopicProductDeleted, strconv.FormatInt(id, 10), AggregateTypeProduct, ProductDeletedData{ID: id}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published product.deleted event",
		slog.Int64("product_id", id),
	)

	return nil
}

// PublishRatingChanged publishes a rating lifecycle event. Events are keyed
// by product ID so all rating events for one product stay ordered on a
// single partition.
func (p *Producer) PublishRatingChanged(ctx context.Context, eventType string, rating *domain.Rating, stats *domain.RatingStatistics) error {
	data := RatingData{
		ProductID:    rating.ProductID,
		UserID:       rating.UserID,
		Stars:        rating.Stars,
		TotalRatings: stats.TotalRatings,
		Average:      stats.Average(),
	}

	if err := p.publish(ctx, eventType, strconv.FormatInt(rating.ProductID, 10), AggregateTypeRating, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published rating event",
		slog.String("topic", eventType),
		slog.Int64("product_id", rating.ProductID),
		slog.Int64("user_id", rating.UserID),
	)

	return nil
}

// PublishDiscountCreated publishes a discount.created event.
func (p *Producer) PublishDiscountCreated(ctx context.Context, discount *domain.Discount) error {
	data := DiscountData{
		ProductID:  discount.ProductID,
		Percentage: discount.Percentage,
		EndsAt:     discount.EndsAt,
	}

	if err := p.publish(ctx, TopicDiscountCreated, strconv.FormatInt(discount.ProductID, 10), AggregateTypeDiscount, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published discount.created event",
		slog.Int64("product_id", discount.ProductID),
		slog.Int("percentage", discount.Percentage),
	)

	return nil
}

// PublishDiscountDeleted publishes a discount.deleted event.
func (p *Producer) PublishDiscountDeleted(ctx context.Context, productID int64) error {
	if err := p.publish(ctx, TopicDiscountDeleted, strconv.FormatInt(productID, 10), AggregateTypeDiscount, DiscountData{ProductID: productID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published discount.deleted event",
		slog.Int64("product_id", productID),
	)

	return nil
}
