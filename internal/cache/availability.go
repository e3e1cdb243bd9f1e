// Package cache provides a Redis-backed snapshot cache for availability
// reads. Cached answers may be slightly stale; the write path always
// re-validates under its own transaction, so the cache only serves
// display traffic.
package cache

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"innkeep/internal/booking"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client from REDIS_ADDR / REDIS_PASSWORD /
// REDIS_DB / REDIS_TLS. It returns nil when the server cannot be reached;
// callers degrade gracefully by running without a cache.
func NewRedisClient() *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	dbNum := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			dbNum = n
		}
	}
	var tlsConf *tls.Config
	if v := os.Getenv("REDIS_TLS"); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        dbNum,
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil
	}
	return client
}

// Availability caches availability snapshots keyed by room type, range
// and guest count. A nil *Availability (no client) is usable: every Get
// misses and every Set is a no-op.
type Availability struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailability(client *redis.Client, ttl time.Duration) *Availability {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Availability{client: client, ttl: ttl}
}

func key(roomTypeID int64, r booking.DateRange, guests int) string {
	return fmt.Sprintf("availability:%d:%s:%s:%d",
		roomTypeID, r.Start.Format(booking.DateLayout), r.End.Format(booking.DateLayout), guests)
}

// Get returns the cached snapshot and whether it was present.
func (c *Availability) Get(ctx context.Context, roomTypeID int64, r booking.DateRange, guests int) (booking.Availability, bool) {
	if c == nil {
		return booking.Availability{}, false
	}
	raw, err := c.client.Get(ctx, key(roomTypeID, r, guests)).Bytes()
	if err != nil {
		return booking.Availability{}, false
	}
	var a booking.Availability
	if err := json.Unmarshal(raw, &a); err != nil {
		return booking.Availability{}, false
	}
	return a, true
}

// Set stores a snapshot with the configured TTL. Failures are ignored;
// the next read just misses.
func (c *Availability) Set(ctx context.Context, roomTypeID int64, r booking.DateRange, guests int, a booking.Availability) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, key(roomTypeID, r, guests), raw, c.ttl).Err()
}

// InvalidateRoomType drops every cached snapshot for a room type after a
// write changes its calendar.
func (c *Availability) InvalidateRoomType(ctx context.Context, roomTypeID int64) {
	if c == nil {
		return
	}
	pattern := fmt.Sprintf("availability:%d:*", roomTypeID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}
