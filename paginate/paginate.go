// Package paginate accumulates pages fetched from the server into one ordered sequence.
//
// Two server conventions are supported: flat arrays, where a short page means there is nothing more ([FlatPage]), and envelopes carrying an explicit last-page flag ([EnvelopePage]). Both signals are honored for every page.
//
// A [Merger] allows at most one fetch in flight for the current generation. [Merger.Refresh] starts a new generation but keeps the previous items visible until page zero of the new generation lands; responses belonging to an older generation are dropped when they arrive.
package paginate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"
)

var (
	ErrFetchInFlight = errors.New("a fetch is already in flight for this list")

	// Returned for a response which arrived after a refresh or reset discarded the pages it belonged to. The response is not merged.
	ErrStaleGeneration = errors.New("page belongs to a discarded generation")
)

type Page[T any] struct {
	Items []T
	// the server explicitly marked this as the final page
	Last bool
	// Number of records the server returned, when some were dropped before merging (eg, malformed records). Zero means len(Items).
	Received int
	// Page number to request next, when the server reports one. Zero means the one after this page.
	Next int
}

func FlatPage[T any](items []T) Page[T] {
	return Page[T]{Items: items}
}

func EnvelopePage[T any](env *unrot.Page[T]) Page[T] {
	if env == nil {
		return Page[T]{Last: true}
	}
	p := Page[T]{Items: env.Content, Last: env.Last}
	if next := env.NextPage(); next > 0 {
		p.Next = next
	}
	return p
}

// Convert transforms the items of a page, keeping the exhaustion signals of the original.
func Convert[S, T any](p Page[S], f func([]S) []T) Page[T] {
	received := p.Received
	if received == 0 {
		received = len(p.Items)
	}
	return Page[T]{Items: f(p.Items), Last: p.Last, Received: received, Next: p.Next}
}

// Pages are 0-indexed.
type FetchFunc[T any] func(ctx context.Context, page, size int) (Page[T], error)

type Config[T any] struct {
	// Used in logs and metrics labels
	Name     string
	PageSize int

	// Optional. When set, an item whose key was already merged in this generation is dropped (first occurrence wins).
	Key func(T) string

	// Optional. Called after every change to the merged items, without any lock held.
	OnUpdate func()

	Logger *slog.Logger
}

type Merger[T any] struct {
	name     string
	size     int
	fetch    FetchFunc[T]
	key      func(T) string
	onUpdate func()
	logger   *slog.Logger

	mu         sync.Mutex
	items      []T
	seen       map[string]struct{}
	nextPage   int
	hasMore    bool
	generation uint64
	fetching   bool
	fetchGen   uint64
	refreshing bool
	loaded     bool
	stale      bool
	// bumped by every Invalidate
	invalidations uint64
	err           error
}

func NewMerger[T any](fetch FetchFunc[T], config Config[T]) *Merger[T] {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	size := config.PageSize
	if size <= 0 {
		size = 10
	}
	return &Merger[T]{
		name:     config.Name,
		size:     size,
		fetch:    fetch,
		key:      config.Key,
		onUpdate: config.OnUpdate,
		logger:   logger.With("system", "paginate", "list", config.Name),
		seen:     make(map[string]struct{}),
		hasMore:  true,
	}
}

// Items returns a copy of the merged sequence.
func (m *Merger[T]) Items() []T {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]T, len(m.items))
	copy(out, m.items)
	return out
}

func (m *Merger[T]) HasMore() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasMore
}

// Loaded reports whether at least one page has been merged in the current generation.
func (m *Merger[T]) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loaded
}

// Fetching reports whether a next-page fetch or refresh is in flight.
func (m *Merger[T]) Fetching() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshing || (m.fetching && m.fetchGen == m.generation)
}

// Err returns the error of the most recent failed fetch, cleared by the next successful one.
func (m *Merger[T]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

func (m *Merger[T]) PageSize() int {
	return m.size
}

func (m *Merger[T]) Name() string {
	return m.name
}

// Invalidate marks the merged data as stale (eg, counts changed server-side). Items stay visible; a [Merger.Refresh] clears the mark, unless another Invalidate arrived while it was fetching.
func (m *Merger[T]) Invalidate() {
	m.mu.Lock()
	m.stale = true
	m.invalidations++
	m.mu.Unlock()
}

func (m *Merger[T]) Stale() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stale
}

// FetchNext fetches and merges the next page. It is a no-op once the list is exhausted.
//
// Returns [ErrFetchInFlight] without fetching if another fetch for this list is running, and [ErrStaleGeneration] if a refresh or reset landed while this fetch was in flight.
func (m *Merger[T]) FetchNext(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing || (m.fetching && m.fetchGen == m.generation) {
		m.mu.Unlock()
		return ErrFetchInFlight
	}
	if !m.hasMore {
		m.mu.Unlock()
		return nil
	}
	gen := m.generation
	pageNum := m.nextPage
	m.fetching = true
	m.fetchGen = gen
	m.mu.Unlock()

	start := time.Now()
	page, err := m.fetch(ctx, pageNum, m.size)

	m.mu.Lock()
	if m.fetchGen == gen {
		m.fetching = false
	}
	if gen != m.generation {
		m.mu.Unlock()
		m.observe("discarded", start)
		m.logger.Debug("dropping late page from discarded generation", "page", pageNum)
		return ErrStaleGeneration
	}
	if err != nil {
		m.err = err
		m.mu.Unlock()
		m.observe("error", start)
		m.logger.Warn("page fetch failed", "page", pageNum, "err", err)
		return err
	}
	m.merge(page)
	m.nextPage = pageAfter(page, pageNum)
	m.mu.Unlock()

	m.observe("ok", start)
	m.updated()
	return nil
}

// Refresh re-fetches page zero and, on success, replaces every merged page with it. Until then (and on failure) the previous items stay visible.
//
// A concurrent refresh returns [ErrFetchInFlight]. An in-flight next-page fetch is not cancelled; its response is dropped when it lands.
func (m *Merger[T]) Refresh(ctx context.Context) error {
	m.mu.Lock()
	if m.refreshing {
		m.mu.Unlock()
		return ErrFetchInFlight
	}
	m.refreshing = true
	gen := m.generation
	inv := m.invalidations
	m.mu.Unlock()

	start := time.Now()
	page, err := m.fetch(ctx, 0, m.size)

	m.mu.Lock()
	m.refreshing = false
	if gen != m.generation {
		// reset while refreshing
		m.mu.Unlock()
		m.observe("discarded", start)
		return ErrStaleGeneration
	}
	if err != nil {
		m.err = err
		m.mu.Unlock()
		m.observe("error", start)
		m.logger.Warn("refresh failed, keeping previous pages", "err", err)
		return err
	}
	m.generation++
	m.items = nil
	m.seen = make(map[string]struct{})
	m.stale = m.invalidations != inv
	m.merge(page)
	m.nextPage = pageAfter(page, 0)
	m.mu.Unlock()

	m.observe("ok", start)
	m.updated()
	return nil
}

// Reset drops all pages and starts over from page zero. Responses in flight are discarded when they land.
func (m *Merger[T]) Reset() {
	m.mu.Lock()
	m.generation++
	m.items = nil
	m.seen = make(map[string]struct{})
	m.nextPage = 0
	m.hasMore = true
	m.loaded = false
	m.stale = false
	m.err = nil
	m.mu.Unlock()

	m.updated()
}

// the server's cursor is trusted only when it moves forward
func pageAfter[T any](page Page[T], num int) int {
	if page.Next > num {
		return page.Next
	}
	return num + 1
}

// caller holds the lock
func (m *Merger[T]) merge(page Page[T]) {
	for _, item := range page.Items {
		if m.key != nil {
			k := m.key(item)
			if _, dup := m.seen[k]; dup {
				duplicateItems.WithLabelValues(m.name).Inc()
				continue
			}
			m.seen[k] = struct{}{}
		}
		m.items = append(m.items, item)
	}
	received := page.Received
	if received == 0 {
		received = len(page.Items)
	}
	m.hasMore = !page.Last && received >= m.size
	m.loaded = true
	m.err = nil
}

func (m *Merger[T]) updated() {
	if m.onUpdate != nil {
		m.onUpdate()
	}
}

func (m *Merger[T]) observe(status string, start time.Time) {
	pageFetches.WithLabelValues(m.name, status).Inc()
	pageFetchDuration.WithLabelValues(m.name, status).Observe(time.Since(start).Seconds())
}
