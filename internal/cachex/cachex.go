// Package cachex is a read-through response cache with request coalescing
// and refresh-ahead, shared by the HTTP and gRPC façades.
package cachex

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL = 10 * time.Minute

	defaultFetchTimeout  = 15 * time.Second
	defaultSetTimeout    = 5 * time.Second
	defaultRefreshJitter = time.Second
	maxTTLJitter         = 30 * time.Second

	// Entries older than this share of the TTL are refreshed on their next hit.
	refreshAheadRatio = 0.8
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// entry is the cached envelope. Entries without FetchedAt are ignored.
type entry[T any] struct {
	Value     T         `json:"value"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Key builds a cache key of the form "<scope>:<kind>:<SYMBOL>".
func Key(scope, kind, symbol string) string {
	return fmt.Sprintf("%s:%s:%s", scope, kind, strings.ToUpper(symbol))
}

// Loader coalesces concurrent fetches for the same key and keeps hot
// entries fresh in the background. A Loader without a Cacher fetches
// every time.
type Loader struct {
	cache         Cacher
	sf            singleflight.Group
	ttl           time.Duration
	logger        *zap.Logger
	refreshJitter time.Duration
	refreshAfter  time.Duration
	now           func() time.Time
	wg            sync.WaitGroup
}

type Option func(*Loader)

// WithRefreshJitter bounds the random delay before a background refresh.
func WithRefreshJitter(d time.Duration) Option {
	return func(l *Loader) { l.refreshJitter = d }
}

// WithRefreshAfter sets the entry age at which a hit triggers a background
// refresh. The default is 80% of the TTL.
func WithRefreshAfter(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.refreshAfter = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(l *Loader) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLoader(c Cacher, ttl time.Duration, logger *zap.Logger, opts ...Option) *Loader {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		cache:         c,
		ttl:           ttl,
		logger:        logger.Named("cache"),
		refreshJitter: defaultRefreshJitter,
		refreshAfter:  time.Duration(float64(ttl) * refreshAheadRatio),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) TTL() time.Duration { return l.ttl }

// Wait blocks until background refreshes and cache writes have finished.
func (l *Loader) Wait() { l.wg.Wait() }

// addTTLJitter spreads expirations by up to ±15s, never below half the TTL.
func addTTLJitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	jitter := time.Duration(rand.Int63n(int64(maxTTLJitter))) - maxTTLJitter/2
	if out := ttl + jitter; out > ttl/2 {
		return out
	}
	return ttl
}

func store[T any](l *Loader, key string, value T) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultSetTimeout)
	defer cancel()

	ttl := addTTLJitter(l.ttl)
	e := entry[T]{Value: value, FetchedAt: l.now().UTC()}
	if err := l.cache.Set(ctx, key, e, ttl); err != nil {
		l.logger.Warn("failed to set cache", zap.String("key", key), zap.Error(err))
		return
	}
	l.logger.Debug("cache populated", zap.String("key", key), zap.Duration("ttl", ttl))
}

func refresh[T any](l *Loader, key string, fn FetchFunc[T]) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if l.refreshJitter > 0 {
			time.Sleep(time.Duration(rand.Int63n(int64(l.refreshJitter))))
		}

		_, _, _ = l.sf.Do(key+":refresh", func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), defaultFetchTimeout)
			defer cancel()

			value, err := fn(ctx)
			if err != nil {
				l.logger.Warn("background refresh failed", zap.String("key", key), zap.Error(err))
				return nil, err
			}
			store(l, key, value)
			return value, nil
		})
	}()
}

// Load returns the cached value for key, or fetches it with fn. Concurrent
// misses for one key share a single fetch. Cache errors are treated as misses.
// A hit on an entry older than the refresh-ahead age also starts a background
// refresh; younger hits never reach fn.
func Load[T any](ctx context.Context, l *Loader, key string, fn FetchFunc[T]) (T, error) {
	var zero T
	if l.cache == nil {
		return fn(ctx)
	}

	var cached entry[T]
	err := l.cache.Get(ctx, key, &cached)
	switch {
	case err == nil && cached.FetchedAt.IsZero():
		l.logger.Debug("cache entry without fetch time (treating as miss)", zap.String("key", key))
	case err == nil:
		age := l.now().Sub(cached.FetchedAt)
		l.logger.Debug("cache hit", zap.String("key", key), zap.Duration("age", age))
		if age >= l.refreshAfter {
			refresh(l, key, fn)
		}
		return cached.Value, nil
	case errors.Is(err, redis.Nil):
		l.logger.Debug("cache miss", zap.String("key", key))
	default:
		l.logger.Warn("cache get error (treating as miss)", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := l.sf.Do(key, func() (any, error) {
		value, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			store(l, key, value)
		}()
		return value, nil
	})
	if err != nil {
		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		l.logger.Error("singleflight type mismatch", zap.String("key", key))
		return zero, fmt.Errorf("type mismatch for key %q", key)
	}
	if shared {
		l.logger.Debug("singleflight shared result", zap.String("key", key))
	}
	return value, nil
}
