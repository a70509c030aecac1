package rates

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/backend-kasir/internal/obs"
)

const redisKey = "kasir:usd_rate"

// ErrUnavailable is returned when no rate could be fetched and no previous
// rate is known.
var ErrUnavailable = errors.New("rates: exchange rate unavailable")

// CachedProvider caches the USD rate for a short TTL. Terminals sharing a
// redis instance also share the cached value. When the settings service is
// down the last known rate is served; pricing with a slightly stale rate beats
// blocking the register.
type CachedProvider struct {
	Source Client
	Redis  *redis.Client
	TTL    time.Duration
	Log    zerolog.Logger
	Now    func() time.Time

	mu        sync.RWMutex
	last      float64
	fetchedAt time.Time
	group     singleflight.Group
}

func (p *CachedProvider) ttl() time.Duration {
	if p.TTL <= 0 {
		return time.Minute
	}
	return p.TTL
}

func (p *CachedProvider) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

// USDRate returns the cached rate, refreshing it when stale.
func (p *CachedProvider) USDRate(ctx context.Context) (float64, error) {
	p.mu.RLock()
	last, fetchedAt := p.last, p.fetchedAt
	p.mu.RUnlock()
	if last > 0 && p.now().Sub(fetchedAt) < p.ttl() {
		return last, nil
	}

	v, err, _ := p.group.Do("usd_rate", func() (any, error) {
		return p.refresh(ctx)
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

func (p *CachedProvider) refresh(ctx context.Context) (float64, error) {
	if rate, ok := p.fromRedis(ctx); ok {
		p.store(rate)
		return rate, nil
	}

	if p.Source == nil {
		return p.fallback(errors.New("rates: source not configured"))
	}
	rate, err := p.Source.USDRate(ctx)
	if err != nil {
		return p.fallback(err)
	}
	if rate <= 0 {
		return p.fallback(ErrInvalidRate)
	}
	if obs.RateRefreshTotal != nil {
		obs.RateRefreshTotal.WithLabelValues("ok").Inc()
	}
	p.store(rate)
	p.toRedis(ctx, rate)
	return rate, nil
}

// fallback serves the last known rate when a refresh fails.
func (p *CachedProvider) fallback(cause error) (float64, error) {
	p.mu.RLock()
	last := p.last
	p.mu.RUnlock()
	if last > 0 {
		if obs.RateRefreshTotal != nil {
			obs.RateRefreshTotal.WithLabelValues("stale_fallback").Inc()
		}
		p.Log.Warn().Err(cause).Float64("rate", last).Msg("usd rate refresh failed, serving last known rate")
		return last, nil
	}
	if obs.RateRefreshTotal != nil {
		obs.RateRefreshTotal.WithLabelValues("error").Inc()
	}
	return 0, errors.Join(ErrUnavailable, cause)
}

func (p *CachedProvider) store(rate float64) {
	p.mu.Lock()
	p.last = rate
	p.fetchedAt = p.now()
	p.mu.Unlock()
}

func (p *CachedProvider) fromRedis(ctx context.Context) (float64, bool) {
	if p.Redis == nil {
		return 0, false
	}
	raw, err := p.Redis.Get(ctx, redisKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			p.Log.Debug().Err(err).Msg("usd rate redis read failed")
		}
		return 0, false
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return 0, false
	}
	return rate, true
}

func (p *CachedProvider) toRedis(ctx context.Context, rate float64) {
	if p.Redis == nil {
		return
	}
	if err := p.Redis.Set(ctx, redisKey, strconv.FormatFloat(rate, 'f', -1, 64), p.ttl()).Err(); err != nil {
		p.Log.Debug().Err(err).Msg("usd rate redis write failed")
	}
}
