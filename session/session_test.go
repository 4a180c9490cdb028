package session

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/client"
	"github.com/leandroruel/unrot.app-front/mutation"
	"github.com/leandroruel/unrot.app-front/testing/fakeapi"
	"github.com/leandroruel/unrot.app-front/tokenstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	demoEmail    = "demo@unrot.app"
	demoPassword = "password"
)

func testSession(t *testing.T, mod func(*Config)) (*Session, *fakeapi.Server) {
	api := fakeapi.New(fakeapi.Config{Secret: []byte("test-secret")})
	require.NoError(t, api.Seed(1234, 25, demoEmail, demoPassword))
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	config := DefaultConfig()
	config.APIHost = srv.URL
	config.HTTPRetries = 0
	if mod != nil {
		mod(&config)
	}
	s, err := New(context.Background(), config, tokenstore.NewMemoryStore())
	require.NoError(t, err)
	return s, api
}

func TestLoginAndFeed(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s, _ := testSession(t, nil)
	assert.False(s.Authenticated())

	_, err := unrot.FeedGet(ctx, s.Client, 0, 10)
	assert.ErrorIs(err, client.ErrUnauthorized)

	require.Error(s.Login(ctx, demoEmail, "wrong"))
	assert.False(s.Authenticated())

	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	assert.True(s.Authenticated())

	home := s.HomeFeed()
	assert.Same(home, s.HomeFeed())
	for home.HasMore() {
		require.NoError(home.FetchNext(ctx))
	}
	posts := home.Posts()
	assert.Len(posts, 25)
	for _, p := range posts {
		assert.NoError(p.Validate())
	}

	all := s.Posts("")
	require.NoError(all.FetchNext(ctx))
	assert.Len(all.Posts(), 10)
	assert.True(all.HasMore())
	assert.NotSame(all, s.Posts("music"))

	cats, err := s.Categories.List(ctx)
	require.NoError(err)
	assert.Len(cats, 4)
}

func TestLikeRoundTrip(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var notices atomic.Int64
	s, api := testSession(t, func(c *Config) {
		c.OnMutationError = func(error) { notices.Add(1) }
	})
	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	userID := api.UserID(demoEmail)

	home := s.HomeFeed()
	require.NoError(home.FetchNext(ctx))
	target := home.Posts()[0]
	assert.False(target.Interactions.IsLiked)

	require.NoError(s.Mutations.ToggleLike(ctx, target.ID))
	assert.True(api.IsLiked(userID, target.ID))
	assert.True(home.Posts()[0].Interactions.IsLiked)
	// likes mark dependent lists stale
	assert.True(home.Stale())

	api.FailInteractions(true)
	err := s.Mutations.ToggleBookmark(ctx, target.ID)
	var merr *mutation.Error
	require.ErrorAs(err, &merr)
	assert.True(merr.RolledBack)
	assert.False(s.Interactions.IsBookmarked(target.ID))
	assert.False(api.IsBookmarked(userID, target.ID))
	assert.Equal(int64(1), notices.Load())

	view := s.Post(target.ID)
	p, err := view.Load(ctx)
	require.NoError(err)
	assert.Equal(target.Kind(), p.Kind())
	assert.True(p.Interactions.IsLiked)
}

func TestUnauthorizedTeardown(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var expired atomic.Int64
	s, api := testSession(t, func(c *Config) {
		c.OnUnauthorized = func() { expired.Add(1) }
	})
	require.NoError(s.Login(ctx, demoEmail, demoPassword))

	home := s.HomeFeed()
	require.NoError(home.FetchNext(ctx))
	s.Interactions.ToggleLike(home.Posts()[0].ID)

	api.RevokeTokens()
	err := home.Refresh(ctx)
	assert.ErrorIs(err, client.ErrUnauthorized)

	assert.False(s.Authenticated())
	assert.Equal(int64(1), expired.Load())
	assert.Equal(0, s.Interactions.Snapshot().LikedCount())
	assert.Empty(s.Registry.Keys())
	assert.NotSame(home, s.HomeFeed())

	// a second 401 does not fire the handler again
	_, err = unrot.FeedGet(ctx, s.Client, 0, 10)
	assert.ErrorIs(err, client.ErrUnauthorized)
	assert.Equal(int64(1), expired.Load())

	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	assert.True(s.Authenticated())
}

func TestUnauthorizedMutation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s, api := testSession(t, nil)
	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	userID := api.UserID(demoEmail)

	home := s.HomeFeed()
	require.NoError(home.FetchNext(ctx))
	target := home.Posts()[0].ID
	require.NoError(s.Mutations.ToggleLike(ctx, target))
	require.NoError(s.Mutations.ToggleBookmark(ctx, target))

	api.RevokeTokens()
	err := s.Mutations.ToggleLike(ctx, target)
	assert.ErrorIs(err, client.ErrUnauthorized)
	var merr *mutation.Error
	require.ErrorAs(err, &merr)
	assert.False(merr.RolledBack)

	// the failed unlike must not restore the like dropped by the teardown
	assert.False(s.Authenticated())
	snap := s.Interactions.Snapshot()
	assert.Equal(0, snap.LikedCount())
	assert.Equal(0, snap.BookmarkedCount())
	assert.Equal(0, s.Mutations.Pending())

	// the next login starts from a clean slate
	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	require.NoError(s.Mutations.ToggleLike(ctx, target))
	assert.True(s.Interactions.IsLiked(target))
	assert.True(api.IsLiked(userID, target))
}

func TestCommentsAndInbox(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s, _ := testSession(t, func(c *Config) {
		c.DatabaseURL = "sqlite://" + filepath.Join(t.TempDir(), "unrot.sqlite")
	})
	require.NoError(s.Register(ctx, "new@example.com", "secret1", "New"))

	posts := s.Posts("")
	require.NoError(posts.FetchNext(ctx))
	target := posts.Posts()[0]

	thread := s.Comments(target.ID)
	assert.Same(thread, s.Comments(target.ID))
	require.NoError(thread.FetchNext(ctx))
	assert.Empty(thread.Comments())

	_, err := thread.Add(ctx, "  first!  ")
	require.NoError(err)
	assert.True(posts.Stale())
	require.NoError(thread.Refresh(ctx))
	require.Len(thread.Comments(), 1)
	assert.Equal("first!", thread.Comments()[0].Content)

	inbox := s.Inbox(ctx)
	require.NoError(inbox.Load(ctx))
	assert.Equal(0, inbox.UnreadCount())

	require.NoError(s.Logout(ctx))
	assert.False(s.Authenticated())
	assert.Empty(s.Registry.Keys())
}

func TestTeardownPurgesCategories(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	s, api := testSession(t, nil)
	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	cats, err := s.Categories.List(ctx)
	require.NoError(err)
	assert.Len(cats, 4)

	// cached for the lifetime of the session
	api.AddCategory("Science", "science")
	cats, err = s.Categories.List(ctx)
	require.NoError(err)
	assert.Len(cats, 4)

	require.NoError(s.Logout(ctx))
	require.NoError(s.Login(ctx, demoEmail, demoPassword))
	cats, err = s.Categories.List(ctx)
	require.NoError(err)
	assert.Len(cats, 5)
}
