package respcache

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MarkAPhillips/weather-ai-assistant/ttlcache"
)

// Kind labels the class of upstream response held under a key. Each
// kind has its own TTL reflecting how quickly the data goes stale.
type Kind string

const (
	KindCurrent    Kind = "current"
	KindForecast   Kind = "forecast"
	KindAirQuality Kind = "air_quality"
	KindHistorical Kind = "historical"
	KindGeocode    Kind = "geocode"
	KindExtended   Kind = "extended"
)

// TTLs holds the freshness window for each response kind.
type TTLs struct {
	Current    time.Duration
	Forecast   time.Duration
	AirQuality time.Duration
	Historical time.Duration
	Geocode    time.Duration
	Extended   time.Duration
}

// DefaultTTLs returns the standard freshness windows. Current
// conditions go stale within minutes; geocoding results barely change.
func DefaultTTLs() TTLs {
	return TTLs{
		Current:    5 * time.Minute,
		Forecast:   3 * time.Hour,
		AirQuality: 10 * time.Minute,
		Historical: 6 * time.Hour,
		Geocode:    24 * time.Hour,
		Extended:   3 * time.Hour,
	}
}

// For returns the TTL configured for kind. Unknown kinds fall back to
// the current-conditions window.
func (t TTLs) For(kind Kind) time.Duration {
	switch kind {
	case KindForecast:
		return t.Forecast
	case KindAirQuality:
		return t.AirQuality
	case KindHistorical:
		return t.Historical
	case KindGeocode:
		return t.Geocode
	case KindExtended:
		return t.Extended
	default:
		return t.Current
	}
}

// Key builds a cache key from the response kind, the city it concerns
// and any extra parameters that distinguish variants of the same
// lookup. Cities are folded to lower case so "London" and "london"
// share an entry.
func Key(kind Kind, city string, params ...string) string {
	parts := make([]string, 0, 2+len(params))
	parts = append(parts, string(kind), strings.ToLower(strings.TrimSpace(city)))
	parts = append(parts, params...)
	return strings.Join(parts, ":")
}

// Options configures a Cache.
type Options struct {
	// NowFunc supplies the current time. Defaults to time.Now.
	NowFunc func() time.Time
}

// Cache memoizes values of type V under string keys. Entries expire
// after their TTL; concurrent Fetch calls for the same key share one
// producer invocation.
type Cache[V any] struct {
	entries *ttlcache.Cache[string, V]
	group   singleflight.Group
}

// New returns an empty cache whose entries default to defaultTTL.
func New[V any](defaultTTL time.Duration, optFns ...func(o *Options)) *Cache[V] {
	o := Options{NowFunc: time.Now}
	for _, fn := range optFns {
		fn(&o)
	}
	return &Cache[V]{
		entries: ttlcache.New[string, V](defaultTTL, func(to *ttlcache.Options) {
			to.NowFunc = o.NowFunc
		}),
	}
}

// Get returns the value stored under key if it is still fresh.
func (c *Cache[V]) Get(key string) (V, bool) {
	return c.entries.Get(key)
}

// Put stores value under key at the cache's default TTL.
func (c *Cache[V]) Put(key string, value V) {
	c.entries.Put(key, value)
}

// PutTTL stores value under key with its own TTL.
func (c *Cache[V]) PutTTL(key string, value V, ttl time.Duration) {
	c.entries.PutTTL(key, value, ttl)
}

// Invalidate drops key and reports whether an entry was resident.
func (c *Cache[V]) Invalidate(key string) bool {
	return c.entries.Invalidate(key)
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache[V]) Sweep() int {
	return c.entries.Sweep()
}

// Len returns the number of resident entries, expired ones included.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

// Fetch returns the cached value for key, invoking produce to build it
// on a miss. Only successful results are stored: a producer error is
// returned to the caller and the next Fetch tries the upstream again.
// Concurrent calls for the same key are coalesced, so produce runs at
// most once per miss.
func (c *Cache[V]) Fetch(ctx context.Context, key string, ttl time.Duration, produce func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.entries.Get(key); ok {
		return v, nil
	}
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.entries.Get(key); ok {
			return v, nil
		}
		v, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		c.entries.PutTTL(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}
