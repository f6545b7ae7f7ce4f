package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/rajasatyajit/EmergencyTriage/internal/logger"
	"github.com/rajasatyajit/EmergencyTriage/internal/metrics"
	"github.com/rajasatyajit/EmergencyTriage/internal/models"
)

const cacheKeyPrefix = "triage:facilities"

// Cached stores successful lookups of the wrapped directory in redis.
// Empty results are not cached because failures also surface as empty.
// Redis errors are logged and bypassed.
type Cached struct {
	next  Directory
	redis redis.Cmdable
	ttl   time.Duration
}

// NewCached wraps next with a redis cache
func NewCached(next Directory, client redis.Cmdable, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cached{next: next, redis: client, ttl: ttl}
}

func (c *Cached) Lookup(ctx context.Context, t models.FacilityType) []models.Facility {
	key := fmt.Sprintf("%s:%s", cacheKeyPrefix, t)
	return c.cached(ctx, key, func() []models.Facility { return c.next.Lookup(ctx, t) })
}

// LookupNear caches per origin rounded to two decimals (about 1 km)
func (c *Cached) LookupNear(ctx context.Context, t models.FacilityType, origin models.Coordinate) []models.Facility {
	nd, ok := c.next.(NearbyDirectory)
	if !ok {
		return c.Lookup(ctx, t)
	}
	key := fmt.Sprintf("%s:%s:%.2f,%.2f", cacheKeyPrefix, t, round2(origin.Latitude), round2(origin.Longitude))
	return c.cached(ctx, key, func() []models.Facility { return nd.LookupNear(ctx, t, origin) })
}

func (c *Cached) cached(ctx context.Context, key string, load func() []models.Facility) []models.Facility {
	log := logger.WithContext(ctx)

	raw, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var facilities []models.Facility
		jerr := json.Unmarshal(raw, &facilities)
		if jerr == nil {
			metrics.RecordDirectoryLookup("cache", "hit")
			return facilities
		}
		metrics.RecordDirectoryLookup("cache", "corrupt")
		log.Warn("Discarding corrupt facility cache entry", "key", key, "error", jerr)
		if err := c.redis.Del(ctx, key).Err(); err != nil {
			log.Warn("Facility cache delete failed", "key", key, "error", err)
		}
	case err == redis.Nil:
		metrics.RecordDirectoryLookup("cache", "miss")
	default:
		metrics.RecordDirectoryLookup("cache", "error")
		log.Warn("Facility cache read failed", "key", key, "error", err)
	}

	facilities := load()
	if len(facilities) == 0 {
		return facilities
	}

	data, err := json.Marshal(facilities)
	if err != nil {
		return facilities
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Warn("Facility cache write failed", "key", key, "error", err)
	}
	return facilities
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
