// Package cache provides Redis-based caching for dashboard report snapshots.
// Reports are served stale-while-revalidate: a snapshot past its fresh TTL is
// still returned while the caller recomputes in the background.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"kaspi-seller-dashboard/config"
	"kaspi-seller-dashboard/internal/analytics"
)

// ErrCacheMiss is returned when no snapshot exists for the key.
var ErrCacheMiss = errors.New("cache miss")

// ErrCacheUnavailable is returned while the circuit breaker is open.
var ErrCacheUnavailable = errors.New("redis unavailable (circuit breaker open)")

const (
	// Snapshots younger than FreshTTL are served as-is; older ones are
	// served stale and refreshed in the background.
	FreshTTL = 5 * time.Minute

	// Snapshots are evicted entirely after this long.
	EvictTTL = 24 * time.Hour
)

const keyPattern = "merchant:%s:report:%s"

// Snapshot wraps a cached report with the time it was computed.
type Snapshot struct {
	Report   *analytics.AggregateReport `json:"report"`
	CachedAt time.Time                  `json:"cached_at"`
}

// Stale reports whether the snapshot is past its fresh TTL.
func (s Snapshot) Stale() bool {
	return time.Since(s.CachedAt) > FreshTTL
}

// ReportCache provides Redis-backed report snapshots with graceful
// degradation: when Redis is down, operations fail fast and callers fall back
// to recomputing from the database.
type ReportCache struct {
	client       *redis.Client
	mu           sync.RWMutex
	healthy      bool
	failureCount int
	lastCheck    time.Time

	maxFailures   int
	checkInterval time.Duration
}

// NewReportCache creates a ReportCache and verifies connectivity. A failed
// initial connection returns the cache in degraded mode, not an error.
func NewReportCache(cfg config.RedisConfig) (*ReportCache, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("redis is not enabled in configuration")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	rc := &ReportCache{
		client:        client,
		maxFailures:   3,
		checkInterval: 30 * time.Second,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("[CACHE] Initial Redis connection failed: %v", err)
		return rc, nil
	}

	rc.healthy = true
	rc.lastCheck = time.Now()
	log.Printf("[CACHE] Redis connected successfully at %s", cfg.Address)

	return rc, nil
}

// IsHealthy returns whether Redis is currently available.
func (rc *ReportCache) IsHealthy() bool {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.healthy
}

func (rc *ReportCache) recordFailure() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	rc.failureCount++
	if rc.failureCount >= rc.maxFailures {
		if rc.healthy {
			log.Printf("[CACHE] Circuit breaker OPEN: Redis marked unhealthy after %d failures", rc.failureCount)
		}
		rc.healthy = false
	}
}

func (rc *ReportCache) recordSuccess() {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	if !rc.healthy {
		log.Printf("[CACHE] Circuit breaker CLOSED: Redis recovered")
	}
	rc.healthy = true
	rc.failureCount = 0
	rc.lastCheck = time.Now()
}

// checkHealth pings Redis in the background once the check interval elapses.
func (rc *ReportCache) checkHealth() {
	rc.mu.RLock()
	shouldCheck := !rc.healthy && time.Since(rc.lastCheck) >= rc.checkInterval
	rc.mu.RUnlock()

	if !shouldCheck {
		return
	}

	go func() {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := rc.client.Ping(pingCtx).Err(); err == nil {
			rc.recordSuccess()
		}
	}()
}

// ReportKey builds the snapshot key for a merchant and period descriptor.
func ReportKey(merchantID, period string) string {
	return fmt.Sprintf(keyPattern, merchantID, period)
}

// GetSnapshot retrieves a cached report snapshot.
func (rc *ReportCache) GetSnapshot(ctx context.Context, key string) (*Snapshot, error) {
	rc.checkHealth()

	if !rc.IsHealthy() {
		return nil, ErrCacheUnavailable
	}

	data, err := rc.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		rc.recordFailure()
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	rc.recordSuccess()

	var snap Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached snapshot: %w", err)
	}
	return &snap, nil
}

// SetSnapshot stores a report snapshot stamped with the current time.
func (rc *ReportCache) SetSnapshot(ctx context.Context, key string, report *analytics.AggregateReport) error {
	rc.checkHealth()

	if !rc.IsHealthy() {
		return ErrCacheUnavailable
	}

	data, err := json.Marshal(Snapshot{Report: report, CachedAt: time.Now()})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := rc.client.Set(ctx, key, data, EvictTTL).Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("redis set failed: %w", err)
	}
	rc.recordSuccess()
	return nil
}

// InvalidateMerchant drops every cached snapshot for one merchant, e.g. after
// a resync or an expense change.
func (rc *ReportCache) InvalidateMerchant(ctx context.Context, merchantID string) error {
	rc.checkHealth()

	if !rc.IsHealthy() {
		return ErrCacheUnavailable
	}

	pattern := fmt.Sprintf(keyPattern, merchantID, "*")
	iter := rc.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			rc.recordFailure()
			return fmt.Errorf("redis delete failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		rc.recordFailure()
		return fmt.Errorf("redis scan failed: %w", err)
	}

	rc.recordSuccess()
	return nil
}

// Ping checks Redis connectivity.
func (rc *ReportCache) Ping(ctx context.Context) error {
	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.recordFailure()
		return err
	}
	rc.recordSuccess()
	return nil
}

// Close closes the Redis connection.
func (rc *ReportCache) Close() error {
	if rc.client != nil {
		return rc.client.Close()
	}
	return nil
}
