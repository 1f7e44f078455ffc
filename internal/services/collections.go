package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"school_ledger_echo/internal/models"
)

// collectionsKeyTTL keeps day keys around long enough for late
// reconciliation without accumulating forever.
const collectionsKeyTTL = 48 * time.Hour

// CollectionsCache holds the live "collected today" counter in Redis.
// It is a convenience view over the ledger, not a source of truth: the
// payment service updates it after its transaction commits, failures
// are only logged, and Recompute re-derives the figure from the
// payment table whenever the counter drifts.
type CollectionsCache struct {
	cache *RedisCache
	db    *gorm.DB
}

// NewCollectionsCache creates a collections counter over the given
// redis cache and ledger database.
func NewCollectionsCache(cache *RedisCache, db *gorm.DB) *CollectionsCache {
	return &CollectionsCache{cache: cache, db: db}
}

func collectionsKey(t time.Time) string {
	return "collections:" + t.Format("2006-01-02")
}

// IncrementBy adds amount to today's counter.
func (c *CollectionsCache) IncrementBy(ctx context.Context, amount float64) error {
	key := collectionsKey(time.Now())
	pipe := c.cache.Client().TxPipeline()
	pipe.IncrByFloat(ctx, key, amount)
	pipe.Expire(ctx, key, collectionsKeyTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// DecrementBy subtracts amount from today's counter.
func (c *CollectionsCache) DecrementBy(ctx context.Context, amount float64) error {
	return c.IncrementBy(ctx, -amount)
}

// Read returns today's counter value. A missing key reads as zero.
func (c *CollectionsCache) Read(ctx context.Context) (float64, error) {
	val, err := c.cache.Client().Get(ctx, collectionsKey(time.Now())).Float64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

// Recompute re-derives today's total from the ledger and overwrites
// the counter, correcting any drift left by missed increments.
func (c *CollectionsCache) Recompute(ctx context.Context) (float64, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	var total float64
	err := c.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("created_at >= ? AND created_at < ?", start, end).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("summing today's payments: %w", err)
	}

	key := collectionsKey(now)
	if err := c.cache.Client().Set(ctx, key, total, collectionsKeyTTL).Err(); err != nil {
		return 0, err
	}
	return total, nil
}
