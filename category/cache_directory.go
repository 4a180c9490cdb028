package category

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// the whole list is cached as a single entry
const listKey = "categories"

type CacheDirectory struct {
	Inner  Directory
	ErrTTL time.Duration
	cache  *expirable.LRU[string, Entry]
	// coalesces concurrent misses
	lookupChans sync.Map
}

type Entry struct {
	Updated    time.Time
	Categories []unrot.Category
	Err        error
}

var _ Directory = (*CacheDirectory)(nil)

// A hitTTL of zero means unlimited duration.
func NewCacheDirectory(inner Directory, hitTTL, errTTL time.Duration) *CacheDirectory {
	return &CacheDirectory{
		Inner:  inner,
		ErrTTL: errTTL,
		cache:  expirable.NewLRU[string, Entry](1, nil, hitTTL),
	}
}

func (d *CacheDirectory) isStale(e *Entry) bool {
	return e.Err != nil && time.Since(e.Updated) > d.ErrTTL
}

func (d *CacheDirectory) update(ctx context.Context) Entry {
	cats, err := d.Inner.List(ctx)
	entry := Entry{
		Updated:    time.Now(),
		Categories: cats,
		Err:        err,
	}
	if err == nil || cacheableErr(err) {
		d.cache.Add(listKey, entry)
	}
	return entry
}

func (d *CacheDirectory) List(ctx context.Context) ([]unrot.Category, error) {
	entry, ok := d.cache.Get(listKey)
	if ok && !d.isStale(&entry) {
		cacheHits.WithLabelValues("lru").Inc()
		return entry.Categories, entry.Err
	}
	cacheMisses.WithLabelValues("lru").Inc()

	res := make(chan struct{})
	val, loaded := d.lookupChans.LoadOrStore(listKey, res)
	if loaded {
		requestsCoalesced.WithLabelValues("lru").Inc()
		select {
		case <-val.(chan struct{}):
			entry, ok := d.cache.Get(listKey)
			if ok && !d.isStale(&entry) {
				return entry.Categories, entry.Err
			}
			return nil, fmt.Errorf("categories not found in cache after coalesce returned")
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	newEntry := d.update(ctx)

	d.lookupChans.Delete(listKey)
	close(res)

	return newEntry.Categories, newEntry.Err
}

func (d *CacheDirectory) Lookup(ctx context.Context, slug string) (*unrot.Category, error) {
	cats, err := d.List(ctx)
	if err != nil {
		return nil, err
	}
	return find(cats, slug)
}

// Purge drops the cached list; the next call fetches.
func (d *CacheDirectory) Purge(ctx context.Context) error {
	d.cache.Purge()
	return nil
}
