package redis

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/tasks/domain"
	"github.com/fastygo/tasks/repository"
)

type pageCache struct {
	client *redislib.Client
	prefix string
	ttl    time.Duration
}

// NewPageCache creates a Redis-backed cache of query result pages.
//
// Keys embed a generation number; Invalidate bumps it so every page cached
// before a write becomes unreachable and expires on its own.
func NewPageCache(client *redislib.Client, prefix string, ttl time.Duration) repository.PageCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if prefix == "" {
		prefix = "tasks:"
	}
	return &pageCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *pageCache) Get(ctx context.Context, params domain.QueryParams) (*domain.Page, int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return nil, 0, false, err
	}

	result, err := c.client.Get(ctx, c.pageKey(gen, params)).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, gen, false, nil
		}
		return nil, gen, false, err
	}

	var page domain.Page
	if err := json.Unmarshal(result, &page); err != nil {
		return nil, gen, false, err
	}
	return &page, gen, true, nil
}

// Set writes under the generation the caller read at, so a page computed
// before an Invalidate lands under a key nobody reads any more.
func (c *pageCache) Set(ctx context.Context, params domain.QueryParams, gen int64, page domain.Page) error {
	payload, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.pageKey(gen, params), payload, c.ttl).Err()
}

func (c *pageCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *pageCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if err != nil && !errors.Is(err, redislib.Nil) {
		return 0, err
	}
	return gen, nil
}

func (c *pageCache) pageKey(gen int64, params domain.QueryParams) string {
	return c.prefix + "page:" + strconv.FormatInt(gen, 10) + ":" + Fingerprint(params)
}

func (c *pageCache) generationKey() string {
	return c.prefix + "generation"
}

// Fingerprint identifies a normalized parameter set.
func Fingerprint(params domain.QueryParams) string {
	raw, _ := json.Marshal(params.Normalize())
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:])
}
