package feed

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Entry is any cached, refetchable dataset tracked by a [Registry].
type Entry interface {
	Key() string
	Invalidate()
	Stale() bool
	Loaded() bool
	Refresh(ctx context.Context) error
}

// Registry tracks cached datasets by key, so that a mutation can signal every dependent list.
//
// Keys are slash-separated. A prefix matches the key itself and every key below it: "posts" matches "posts" and "posts/music", but not "postscript".
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]Entry
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger.With("system", "registry"),
		entries: make(map[string]Entry),
	}
}

func matches(prefix, key string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+"/")
}

// Register adds an entry, unless one with the same key is already registered. Returns whichever entry ends up registered.
func (r *Registry) Register(e Entry) Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[e.Key()]; ok {
		return existing
	}
	r.entries[e.Key()] = e
	return e
}

func (r *Registry) Lookup(key string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	return e, ok
}

func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Clear drops every entry. Called on logout.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]Entry)
}

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) matching(prefixes []string) []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Entry
	for k, e := range r.entries {
		for _, p := range prefixes {
			if matches(p, k) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Invalidate marks every entry under any of the prefixes as stale, and returns the number of entries marked.
func (r *Registry) Invalidate(prefixes ...string) int {
	entries := r.matching(prefixes)
	for _, e := range entries {
		e.Invalidate()
	}
	if len(entries) > 0 {
		r.logger.Debug("invalidated cached lists", "prefixes", prefixes, "count", len(entries))
	}
	return len(entries)
}

// Revalidate refreshes every loaded, stale entry under any of the prefixes. Entries which were never loaded are skipped; they fetch on first use anyway.
func (r *Registry) Revalidate(ctx context.Context, prefixes ...string) error {
	var errs []error
	for _, e := range r.matching(prefixes) {
		if !e.Stale() || !e.Loaded() {
			continue
		}
		if err := e.Refresh(ctx); err != nil {
			r.logger.Warn("revalidation failed", "key", e.Key(), "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
