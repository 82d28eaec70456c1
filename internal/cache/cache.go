// Package cache stores query responses until the next daily publication of
// trading results. Values are JSON encoded in every backend.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Cache is a JSON value store with per-key expiration.
type Cache interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// ParseResetAt parses a daily "HH:MM" reset time.
func ParseResetAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid reset time %q, expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// UntilNext returns the time left from now until the next hour:minute in
// now's location. A reset time equal to now counts as the next day's.
func UntilNext(hour, minute int, now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next.Sub(now)
}

// Memory is an in-process Cache, used when no Redis address is configured.
// Expired entries are dropped by a background cleaner stopped by Close.
type Memory struct {
	items *ttlcache.Cache[string, []byte]
	stop  sync.Once
}

func NewMemory() *Memory {
	items := ttlcache.New[string, []byte](
		// a hit must not push the expiry past the next publication
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	)
	go items.Start()
	return &Memory{items: items}
}

func (m *Memory) Get(_ context.Context, key string, dest any) error {
	item := m.items.Get(key)
	if item == nil {
		return ErrMiss
	}
	return json.Unmarshal(item.Value(), dest)
}

// Set stores value for ttl. A non-positive ttl stores nothing.
func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return nil
	}
	m.items.Set(key, data, ttl)
	return nil
}

func (m *Memory) Close() error {
	m.stop.Do(m.items.Stop)
	return nil
}
