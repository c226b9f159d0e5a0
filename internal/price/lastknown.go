package price

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

// Cache stores the most recent price seen per symbol.
type Cache interface {
	Load(ctx context.Context, symbols []string) (map[string]float64, error)
	Store(ctx context.Context, prices map[string]float64) error
}

// LastKnown wraps an Oracle so that missing or failed lookups fall back to the
// last price seen for each symbol.
type LastKnown struct {
	oracle Oracle
	cache  Cache
}

// NewLastKnown creates a LastKnown oracle.
func NewLastKnown(oracle Oracle, cache Cache) *LastKnown {
	return &LastKnown{oracle: oracle, cache: cache}
}

// GetPrices returns fresh prices merged over cached ones. When the underlying
// oracle fails, the cached prices are returned together with its error so the
// caller can report the failure and still value the portfolio.
func (l *LastKnown) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	symbols = normalize(symbols)

	fresh, fetchErr := l.oracle.GetPrices(ctx, symbols)
	if fetchErr == nil && len(fresh) > 0 {
		if err := l.cache.Store(ctx, fresh); err != nil {
			log.Warn().Err(err).Msg("failed to store last known prices")
		}
	}

	var missing []string
	for _, s := range symbols {
		if _, ok := fresh[s]; !ok {
			missing = append(missing, s)
		}
	}

	merged := make(map[string]float64, len(symbols))
	for s, p := range fresh {
		merged[s] = p
	}
	if len(missing) > 0 {
		cached, err := l.cache.Load(ctx, missing)
		if err != nil {
			log.Warn().Err(err).Msg("failed to load last known prices")
		}
		for s, p := range cached {
			merged[s] = p
		}
	}

	return merged, fetchErr
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu     sync.RWMutex
	prices map[string]float64
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{prices: make(map[string]float64)}
}

// Load returns the cached prices for symbols that have one.
func (c *MemoryCache) Load(_ context.Context, symbols []string) (map[string]float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		if p, ok := c.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

// Store records prices.
func (c *MemoryCache) Store(_ context.Context, prices map[string]float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for s, p := range prices {
		c.prices[s] = p
	}
	return nil
}

// RedisKey is the hash holding last known prices.
const RedisKey = "prices:last_known"

// RedisCache is a Cache shared across processes through a Redis hash.
type RedisCache struct {
	client *redis.Client
	key    string
}

// NewRedisCache creates a RedisCache on client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: RedisKey}
}

// Load reads the requested symbols from the hash. Absent fields are skipped.
func (c *RedisCache) Load(ctx context.Context, symbols []string) (map[string]float64, error) {
	out := make(map[string]float64, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}

	vals, err := c.client.HMGet(ctx, c.key, symbols...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis load prices: %w", err)
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		p, err := strconv.ParseFloat(s, 64)
		if err != nil {
			continue
		}
		out[symbols[i]] = p
	}
	return out, nil
}

// Store writes prices into the hash, fields in symbol order.
func (c *RedisCache) Store(ctx context.Context, prices map[string]float64) error {
	if len(prices) == 0 {
		return nil
	}
	symbols := make([]string, 0, len(prices))
	for s := range prices {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	args := make([]interface{}, 0, 2*len(symbols))
	for _, s := range symbols {
		args = append(args, s, strconv.FormatFloat(prices[s], 'f', -1, 64))
	}
	if err := c.client.HSet(ctx, c.key, args...).Err(); err != nil {
		return fmt.Errorf("redis store prices: %w", err)
	}
	return nil
}
