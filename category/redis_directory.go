package category

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// prefix string for all the Redis keys this cache uses
var redisKeyPrefix string = "unrot/"

// Uses redis as a shared cache for the category list, with an in-process TinyLFU cache in front of it.
type RedisDirectory struct {
	Inner  Directory
	HitTTL time.Duration
	ErrTTL time.Duration

	cache       *cache.Cache
	lookupChans sync.Map
}

// errors are stored as their message; error values do not survive serialization
type redisEntry struct {
	Updated    time.Time
	Categories []unrot.Category
	Err        string
}

var _ Directory = (*RedisDirectory)(nil)

// `redisURL` contains all the redis connection config options.
func NewRedisDirectory(inner Directory, redisURL string, hitTTL, errTTL time.Duration, lruSize int) (*RedisDirectory, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("could not configure redis category cache: %w", err)
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis category cache: %w", err)
	}
	return &RedisDirectory{
		Inner:  inner,
		HitTTL: hitTTL,
		ErrTTL: errTTL,
		cache: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(lruSize, hitTTL),
		}),
	}, nil
}

func (e *redisEntry) result() ([]unrot.Category, error) {
	if e.Err != "" {
		return nil, errors.New(e.Err)
	}
	return e.Categories, nil
}

func (d *RedisDirectory) isStale(e *redisEntry) bool {
	return e.Err != "" && time.Since(e.Updated) > d.ErrTTL
}

// the returned error is the inner one, cached or not
func (d *RedisDirectory) update(ctx context.Context) (redisEntry, error) {
	cats, err := d.Inner.List(ctx)
	entry := redisEntry{
		Updated:    time.Now(),
		Categories: cats,
	}
	ttl := d.HitTTL
	if err != nil {
		if !cacheableErr(err) {
			return entry, err
		}
		entry.Err = err.Error()
		ttl = d.ErrTTL
	}
	werr := d.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   redisKeyPrefix + listKey,
		Value: entry,
		TTL:   ttl,
	})
	if werr != nil {
		slog.Error("category cache write failed", "err", werr)
	}
	return entry, err
}

func (d *RedisDirectory) List(ctx context.Context) ([]unrot.Category, error) {
	var entry redisEntry
	err := d.cache.Get(ctx, redisKeyPrefix+listKey, &entry)
	if err != nil && err != cache.ErrCacheMiss {
		return nil, fmt.Errorf("category cache read failed: %w", err)
	}
	if err == nil && !d.isStale(&entry) {
		cacheHits.WithLabelValues("redis").Inc()
		return entry.result()
	}
	cacheMisses.WithLabelValues("redis").Inc()

	res := make(chan struct{})
	val, loaded := d.lookupChans.LoadOrStore(listKey, res)
	if loaded {
		requestsCoalesced.WithLabelValues("redis").Inc()
		select {
		case <-val.(chan struct{}):
			err := d.cache.Get(ctx, redisKeyPrefix+listKey, &entry)
			if err != nil && err != cache.ErrCacheMiss {
				return nil, fmt.Errorf("category cache read failed: %w", err)
			}
			if err == nil && !d.isStale(&entry) {
				return entry.result()
			}
			return nil, errors.New("categories not found in cache after coalesce returned")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	newEntry, err := d.update(ctx)

	d.lookupChans.Delete(listKey)
	close(res)

	if err != nil {
		return nil, err
	}
	return newEntry.result()
}

func (d *RedisDirectory) Lookup(ctx context.Context, slug string) (*unrot.Category, error) {
	cats, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	return find(cats, slug)
}

// Purge drops the cached list, both locally and in redis.
func (d *RedisDirectory) Purge(ctx context.Context) error {
	return d.cache.Delete(ctx, redisKeyPrefix+listKey)
}
