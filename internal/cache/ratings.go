package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dougmab/open-vinyl-box-api/internal/domain"
)

const statsKeyPrefix = "vinylbox:rating-stats:"

// RatingStatisticsCache is a Redis read-through cache for the per-product
// rating aggregate. Statistics reads vastly outnumber writes, so the hot
// rows live in Redis and every mutation invalidates the entry. Cache
// failures are soft: a miss or Redis outage falls back to PostgreSQL.
type RatingStatisticsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRatingStatisticsCache creates a rating statistics cache with the given TTL.
func NewRatingStatisticsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RatingStatisticsCache {
	return &RatingStatisticsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func statsKey(productID int64) string {
	return fmt.Sprintf("%s%d", statsKeyPrefix, productID)
}

// Get returns the cached aggregate for a product, or (nil, false) on a miss.
func (c *RatingStatisticsCache) Get(ctx context.Context, productID int64) (*domain.RatingStatistics, bool) {
	raw, err := c.client.Get(ctx, statsKey(productID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "rating stats cache read failed",
				slog.Int64("product_id", productID),
				slog.String("error", err.Error()),
			)
		}
		return nil, false
	}

	var stats domain.RatingStatistics
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.WarnContext(ctx, "rating stats cache entry corrupt, dropping",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
		c.Invalidate(ctx, productID)
		return nil, false
	}

	return &stats, true
}

// Set stores the aggregate for its TTL.
func (c *RatingStatisticsCache) Set(ctx context.Context, stats *domain.RatingStatistics) {
	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.WarnContext(ctx, "rating stats cache marshal failed",
			slog.Int64("product_id", stats.ProductID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := c.client.Set(ctx, statsKey(stats.ProductID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "rating stats cache write failed",
			slog.Int64("product_id", stats.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

// Invalidate drops the cached aggregate for a product. Called after every
// rating mutation and product delete.
func (c *RatingStatisticsCache) Invalidate(ctx context.Context, productID int64) {
	if err := c.client.Del(ctx, statsKey(productID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "rating stats cache invalidation failed",
			slog.Int64("product_id", productID),
			slog.String("error", err.Error()),
		)
	}
}
