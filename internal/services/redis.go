package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gharbeti/gharbeti-backend/internal/config"
	"github.com/gharbeti/gharbeti-backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	listingCacheTTL     = 5 * time.Minute
	listingCachePrefix  = "listings:browse:"
	bookingEventChannel = "booking:events"
)

// Cache wraps the Redis client used for the listing browse cache and the
// booking event stream.
type Cache struct {
	client *redis.Client
}

func NewCache(cfg config.RedisConfig) (*Cache, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %v", err)
	}

	client := redis.NewClient(opt)

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	return &Cache{client: client}, nil
}

// CacheListings stores a browse result under its query signature.
func (c *Cache) CacheListings(ctx context.Context, querySig string, listings []models.Listing) error {
	data, err := json.Marshal(listings)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, listingCachePrefix+querySig, data, listingCacheTTL).Err()
}

// GetCachedListings returns a cached browse result, or nil on a miss.
func (c *Cache) GetCachedListings(ctx context.Context, querySig string) ([]models.Listing, error) {
	data, err := c.client.Get(ctx, listingCachePrefix+querySig).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var listings []models.Listing
	if err := json.Unmarshal([]byte(data), &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// InvalidateListings drops every cached browse result. Called on any
// listing write so stale status never reaches browsers.
func (c *Cache) InvalidateListings(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, listingCachePrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// BookingEvent is published on every booking state change for downstream
// consumers (dashboards, audit).
type BookingEvent struct {
	BookingID uint   `json:"bookingId"`
	ListingID uint   `json:"listingId"`
	UserID    uint   `json:"userId"`
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
}

// PublishBookingEvent publishes a booking state change to Redis pub/sub.
func (c *Cache) PublishBookingEvent(ctx context.Context, event BookingEvent) error {
	event.Timestamp = time.Now().Unix()
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, bookingEventChannel, data).Err()
}
