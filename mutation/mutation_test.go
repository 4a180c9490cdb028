package mutation

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/leandroruel/unrot.app-front/client"
	"github.com/leandroruel/unrot.app-front/feed"
	"github.com/leandroruel/unrot.app-front/interaction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type interactionBackend struct {
	mu        sync.Mutex
	liked     map[string]bool
	bookmarks map[string]bool
	shares    map[string]int
	requests  int
	fail      bool
	// if set, each request signals entered and then waits for a value on proceed
	entered chan string
	proceed chan bool
}

func newInteractionBackend() *interactionBackend {
	return &interactionBackend{
		liked:     make(map[string]bool),
		bookmarks: make(map[string]bool),
		shares:    make(map[string]int),
	}
}

func (b *interactionBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/posts/"), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	id, what := parts[0], parts[1]

	fail := false
	if b.entered != nil {
		b.entered <- r.Method + " " + what
		fail = !<-b.proceed
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests++
	if b.fail || fail {
		http.Error(w, `{"error":"InternalError"}`, http.StatusInternalServerError)
		return
	}
	add := r.Method == http.MethodPost
	switch what {
	case "likes":
		b.liked[id] = add
	case "bookmarks":
		b.bookmarks[id] = add
	case "shares":
		b.shares[id]++
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *interactionBackend) isLiked(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.liked[id]
}

func (b *interactionBackend) isBookmarked(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bookmarks[id]
}

func (b *interactionBackend) shareCount(id string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shares[id]
}

func (b *interactionBackend) setFail(fail bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = fail
}

type entry struct {
	key   string
	stale bool
}

func (e *entry) Key() string { return e.key }
func (e *entry) Invalidate() { e.stale = true }
func (e *entry) Stale() bool { return e.stale }
func (e *entry) Loaded() bool { return true }
func (e *entry) Refresh(ctx context.Context) error { return nil }

func setup(t *testing.T, b *interactionBackend) (*Protocol, *interaction.Store, *feed.Registry) {
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	store := interaction.NewStore()
	reg := feed.NewRegistry(nil)
	return NewProtocol(client.NewAPIClient(srv.URL), store, Config{Registry: reg}), store, reg
}

func TestToggleLikeSuccess(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	p, store, _ := setup(t, b)

	require.NoError(p.ToggleLike(ctx, "p1"))
	assert.True(store.IsLiked("p1"))
	assert.True(b.isLiked("p1"))

	require.NoError(p.ToggleLike(ctx, "p1"))
	assert.False(store.IsLiked("p1"))
	assert.False(b.isLiked("p1"))
	assert.Equal(0, p.Pending())
}

func TestToggleLikeRollback(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	b.setFail(true)
	p, store, _ := setup(t, b)

	var seen []bool
	store.Subscribe(func(c interaction.Change) {
		seen = append(seen, c.Member)
	})

	var notices []*Error
	p.onError = func(e *Error) { notices = append(notices, e) }

	err := p.ToggleLike(ctx, "p1")
	var merr *Error
	if assert.True(errors.As(err, &merr)) {
		assert.True(merr.RolledBack)
		assert.Equal(KindLike, merr.Kind)
		assert.Equal("p1", merr.PostID)
	}
	var apierr *client.APIError
	assert.ErrorAs(err, &apierr)

	// optimistically true, then reverted
	assert.Equal([]bool{true, false}, seen)
	assert.False(store.IsLiked("p1"))
	assert.Len(notices, 1)

	// rollback of an unlike restores the like
	store.SetLiked("p2", true)
	assert.Error(p.ToggleLike(ctx, "p2"))
	assert.True(store.IsLiked("p2"))
}

func TestBookmarkIndependent(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	p, store, reg := setup(t, b)
	home := &entry{key: feed.KeyHome}
	reg.Register(home)

	require.NoError(p.ToggleBookmark(ctx, "p1"))
	assert.True(store.IsBookmarked("p1"))
	assert.False(store.IsLiked("p1"))
	assert.True(b.isBookmarked("p1"))
	// bookmarks do not affect counts shown elsewhere
	assert.False(home.stale)
}

func TestLikeInvalidatesLists(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	p, _, reg := setup(t, b)
	home := &entry{key: feed.KeyHome}
	music := &entry{key: feed.CategoryKey("music")}
	view := &entry{key: feed.PostKey("p1")}
	comments := &entry{key: "comments/p1"}
	for _, e := range []*entry{home, music, view, comments} {
		reg.Register(e)
	}

	assert.NoError(p.ToggleLike(ctx, "p1"))
	assert.True(home.stale)
	assert.True(music.stale)
	assert.True(view.stale)
	assert.False(comments.stale)

	// failure settles too
	home.stale = false
	b.setFail(true)
	assert.Error(p.ToggleLike(ctx, "p1"))
	assert.True(home.stale)
}

// like membership changes, in order
func likeChanges(t *testing.T, store *interaction.Store) <-chan bool {
	ch := make(chan bool, 16)
	cancel := store.Subscribe(func(c interaction.Change) {
		if c.Kind == interaction.KindLike {
			ch <- c.Member
		}
	})
	t.Cleanup(cancel)
	return ch
}

func TestRapidTogglesSerialized(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	b.entered = make(chan string)
	b.proceed = make(chan bool)
	p, store, _ := setup(t, b)
	changes := likeChanges(t, store)

	var wg sync.WaitGroup
	var firstErr, secondErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = p.ToggleLike(ctx, "p1")
	}()
	assert.True(<-changes)
	assert.Equal("POST likes", <-b.entered)

	// second tap while the like is in flight
	wg.Add(1)
	go func() {
		defer wg.Done()
		secondErr = p.ToggleLike(ctx, "p1")
	}()
	assert.False(<-changes)

	// the like succeeds; the pending unlike is then sent
	b.proceed <- true
	assert.Equal("DELETE likes", <-b.entered)
	b.proceed <- true
	wg.Wait()

	assert.NoError(firstErr)
	assert.NoError(secondErr)
	assert.False(store.IsLiked("p1"))
	assert.False(b.isLiked("p1"))
	assert.Equal(0, p.Pending())
}

// like, unlike, like, with the first request still in flight
func tripleToggle(t *testing.T, p *Protocol, changes <-chan bool, b *interactionBackend) (wait func() []error) {
	ctx := context.Background()
	errs := make([]error, 3)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = p.ToggleLike(ctx, "p1")
		}()
		assert.Equal(t, i%2 == 0, <-changes)
		if i == 0 {
			assert.Equal(t, "POST likes", <-b.entered)
		}
	}
	return func() []error {
		wg.Wait()
		return errs
	}
}

// a failing request superseded by later toggles must not undo them
func TestRapidTogglesSuperseded(t *testing.T) {
	assert := assert.New(t)

	b := newInteractionBackend()
	b.entered = make(chan string)
	b.proceed = make(chan bool)
	p, store, _ := setup(t, b)
	changes := likeChanges(t, store)

	wait := tripleToggle(t, p, changes, b)

	// the first like fails; the latest intent (liked) is sent again and succeeds
	b.proceed <- false
	assert.Equal("POST likes", <-b.entered)
	b.proceed <- true

	for _, err := range wait() {
		assert.NoError(err)
	}
	assert.True(store.IsLiked("p1"))
	assert.True(b.isLiked("p1"))
	assert.Empty(changes)
	assert.Equal(0, p.Pending())
}

func TestRapidTogglesDiscarded(t *testing.T) {
	assert := assert.New(t)

	b := newInteractionBackend()
	b.entered = make(chan string)
	b.proceed = make(chan bool)
	p, store, _ := setup(t, b)
	changes := likeChanges(t, store)

	wait := tripleToggle(t, p, changes, b)

	b.proceed <- false
	assert.Equal("POST likes", <-b.entered)
	b.proceed <- false

	// every toggle folded into the failed request is reported
	for _, err := range wait() {
		var merr *Error
		if assert.ErrorAs(err, &merr) {
			assert.True(merr.RolledBack)
		}
	}
	assert.False(<-changes)
	assert.False(store.IsLiked("p1"))
	assert.False(b.isLiked("p1"))
	assert.Equal(0, p.Pending())

	// later toggles are unaffected by the earlier rollback
	b.entered = nil
	assert.NoError(p.ToggleLike(context.Background(), "p1"))
	assert.True(b.isLiked("p1"))
}

func TestSubscriberMayToggle(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	p, store, _ := setup(t, b)

	// bookmarking from inside a like notification must not deadlock
	var inner error
	store.Subscribe(func(c interaction.Change) {
		if c.Kind == interaction.KindLike && c.Member {
			inner = p.ToggleBookmark(ctx, c.PostID)
		}
	})
	assert.NoError(p.ToggleLike(ctx, "p1"))
	assert.NoError(inner)
	assert.True(b.isLiked("p1"))
	assert.True(b.isBookmarked("p1"))
}

func TestReset(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	b.entered = make(chan string)
	b.proceed = make(chan bool)
	p, store, _ := setup(t, b)

	done := make(chan error)
	go func() {
		done <- p.ToggleLike(ctx, "p1")
	}()
	assert.Equal("POST likes", <-b.entered)

	p.Reset()
	store.Reset()
	assert.Equal(0, p.Pending())

	// a failure after the reset leaves the store alone
	b.proceed <- false
	assert.Error(<-done)
	assert.False(store.IsLiked("p1"))
	assert.Equal(0, p.Pending())
}

func TestShare(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	b := newInteractionBackend()
	p, _, reg := setup(t, b)
	home := &entry{key: feed.KeyHome}
	reg.Register(home)

	assert.NoError(p.Share(ctx, "p1"))
	assert.Equal(1, b.shareCount("p1"))
	assert.True(home.stale)

	b.setFail(true)
	err := p.Share(ctx, "p1")
	var merr *Error
	if assert.True(errors.As(err, &merr)) {
		assert.False(merr.RolledBack)
		assert.Equal(KindShare, merr.Kind)
	}
}
