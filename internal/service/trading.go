package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/spimexpulse/internal/cache"
	"github.com/guttosm/spimexpulse/internal/domain/models"
	"github.com/guttosm/spimexpulse/internal/logger"
	"github.com/guttosm/spimexpulse/internal/metrics"
	"github.com/guttosm/spimexpulse/internal/storage"
)

// ErrInvalidRange is returned when a date range ends before it starts.
var ErrInvalidRange = errors.New("end_date is before start_date")

// TradingService defines the read side of the trading results.
type TradingService interface {
	LastTradingDates(ctx context.Context, limit int) ([]time.Time, error)
	Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error)
	TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error)
}

// ResetTime is the daily wall-clock time at which cached responses expire.
type ResetTime struct {
	Hour   int
	Minute int
}

type tradingService struct {
	repo  storage.TradingResultsRepository
	cache cache.Cache
	reset ResetTime
	now   func() time.Time
}

// NewTradingService builds the service. c may be nil, which disables caching.
func NewTradingService(repo storage.TradingResultsRepository, c cache.Cache, reset ResetTime) TradingService {
	return &tradingService{repo: repo, cache: c, reset: reset, now: time.Now}
}

func (s *tradingService) LastTradingDates(ctx context.Context, limit int) ([]time.Time, error) {
	key := fmt.Sprintf("last-trading-dates:%d", limit)
	return cached(ctx, s, key, func() ([]time.Time, error) {
		return s.repo.LastTradingDates(ctx, limit)
	})
}

func (s *tradingService) Dynamics(ctx context.Context, start, end time.Time, filter models.TradingFilter) ([]models.TradingResult, error) {
	if end.Before(start) {
		return nil, ErrInvalidRange
	}
	filter = NormalizeFilter(filter)
	key := fmt.Sprintf("dynamics:%s:%s:%s", start.Format(time.DateOnly), end.Format(time.DateOnly), filterKey(filter))
	return cached(ctx, s, key, func() ([]models.TradingResult, error) {
		return s.repo.Dynamics(ctx, start, end, filter)
	})
}

func (s *tradingService) TradingResults(ctx context.Context, filter models.TradingFilter, limit int) ([]models.TradingResult, error) {
	filter = NormalizeFilter(filter)
	key := fmt.Sprintf("trading-results:%s:%d", filterKey(filter), limit)
	return cached(ctx, s, key, func() ([]models.TradingResult, error) {
		return s.repo.TradingResults(ctx, filter, limit)
	})
}

// NormalizeFilter trims and upper-cases every filter field. Stored values are
// not normalized, so matching relies on the report already using upper case.
func NormalizeFilter(f models.TradingFilter) models.TradingFilter {
	return models.TradingFilter{
		OilID:           strings.ToUpper(strings.TrimSpace(f.OilID)),
		DeliveryTypeID:  strings.ToUpper(strings.TrimSpace(f.DeliveryTypeID)),
		DeliveryBasisID: strings.ToUpper(strings.TrimSpace(f.DeliveryBasisID)),
	}
}

func filterKey(f models.TradingFilter) string {
	return f.OilID + "|" + f.DeliveryTypeID + "|" + f.DeliveryBasisID
}

// cached serves key from the cache or loads and stores it until the next reset
// time. Cache failures are logged and bypassed.
func cached[T any](ctx context.Context, s *tradingService, key string, load func() (T, error)) (T, error) {
	if s.cache == nil {
		return load()
	}

	var out T
	err := s.cache.Get(ctx, key, &out)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("hit").Inc()
		return out, nil
	case errors.Is(err, cache.ErrMiss):
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.CacheLookups.WithLabelValues("error").Inc()
		logger.L().Warn().Str("key", key).Err(err).Msg("cache get failed")
	}

	out, err = load()
	if err != nil {
		return out, err
	}

	ttl := cache.UntilNext(s.reset.Hour, s.reset.Minute, s.now())
	if err := s.cache.Set(ctx, key, out, ttl); err != nil {
		logger.L().Warn().Str("key", key).Err(err).Msg("cache set failed")
	}
	return out, nil
}
