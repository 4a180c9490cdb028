// Package session wires together the client-side services of one signed-in user: the API client, interaction state, cached lists, and the mutation protocol.
//
// There is one Session per process. A 401 response from any endpoint tears the session down: the stored token is cleared, interaction state and in-flight mutations are reset, and every cached list is dropped.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/category"
	"github.com/leandroruel/unrot.app-front/client"
	"github.com/leandroruel/unrot.app-front/comments"
	"github.com/leandroruel/unrot.app-front/feed"
	"github.com/leandroruel/unrot.app-front/interaction"
	"github.com/leandroruel/unrot.app-front/mapper"
	"github.com/leandroruel/unrot.app-front/mutation"
	"github.com/leandroruel/unrot.app-front/notifs"
	"github.com/leandroruel/unrot.app-front/tokenstore"
	"github.com/leandroruel/unrot.app-front/util"
	"github.com/leandroruel/unrot.app-front/util/cliutil"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// account key for read state when the token does not name its subject
const defaultAccount = "default"

type Session struct {
	Client       *client.APIClient
	Interactions *interaction.Store
	Registry     *feed.Registry
	Mapper       *mapper.Mapper
	Mutations    *mutation.Protocol
	Categories   category.Directory

	config        Config
	tokens        tokenstore.Store
	seen          notifs.SeenStore
	posts         singleflight.Group
	authenticated atomic.Bool
	baseLogger    *slog.Logger
	logger        *slog.Logger
}

func New(ctx context.Context, config Config, tokens tokenstore.Store) (*Session, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if tokens == nil {
		tokens = tokenstore.NewMemoryStore()
	}

	s := &Session{
		Interactions: interaction.NewStore(),
		Registry:     feed.NewRegistry(logger),
		Mapper:       mapper.NewMapper(logger),
		config:       config,
		tokens:       tokens,
		baseLogger:   logger,
		logger:       logger.With("system", "session"),
	}

	c := client.NewAPIClient(config.APIHost)
	c.Client = util.RobustHTTPClient(logger, config.HTTPTimeout, config.HTTPRetries)
	if config.UserAgent != "" {
		c.Headers.Set("User-Agent", config.UserAgent)
	}
	if config.RequestsPerSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1)
	}
	c.Auth = &client.BearerAuth{
		Tokens:         tokens,
		OnUnauthorized: s.unauthorized,
		Logger:         logger,
	}
	s.Client = c

	s.Mutations = mutation.NewProtocol(c, s.Interactions, mutation.Config{
		Registry: s.Registry,
		OnError: func(err *mutation.Error) {
			if config.OnMutationError != nil {
				config.OnMutationError(err)
			}
		},
		Logger: logger,
	})

	var dir category.Directory = &category.APIDirectory{Client: c}
	if config.RedisURL != "" {
		rdir, err := category.NewRedisDirectory(dir, config.RedisURL, config.CategoryTTL, config.CategoryErrTTL, config.CategoryCacheSize)
		if err != nil {
			return nil, err
		}
		s.Categories = rdir
	} else {
		s.Categories = category.NewCacheDirectory(dir, config.CategoryTTL, config.CategoryErrTTL)
	}

	if config.DatabaseURL != "" {
		db, err := cliutil.SetupDatabase(config.DatabaseURL, cliutil.DatabaseOptions{Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("opening read-state database: %w", err)
		}
		seen, err := notifs.NewDBSeen(db)
		if err != nil {
			return nil, err
		}
		s.seen = seen
	} else {
		s.seen = notifs.NewMemorySeen()
	}

	_, err := tokens.Load(ctx)
	switch {
	case err == nil:
		s.authenticated.Store(true)
	case !errors.Is(err, tokenstore.ErrNoToken):
		return nil, err
	}
	return s, nil
}

func (s *Session) Authenticated() bool {
	return s.authenticated.Load()
}

// Login exchanges credentials for a bearer token, and starts a fresh session for that account.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := unrot.AuthLogin(ctx, s.Client, &unrot.AuthLogin_Input{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return s.start(ctx, resp)
}

func (s *Session) Register(ctx context.Context, email, password, displayName string) error {
	resp, err := unrot.AuthRegister(ctx, s.Client, &unrot.AuthRegister_Input{
		Email:       strings.TrimSpace(email),
		Password:    password,
		DisplayName: strings.TrimSpace(displayName),
	})
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	return s.start(ctx, resp)
}

func (s *Session) start(ctx context.Context, resp *unrot.AuthResponse) error {
	if resp.AccessToken == "" {
		return errors.New("server returned an empty access token")
	}
	s.teardown(ctx)
	if err := s.tokens.Save(ctx, resp.AccessToken); err != nil {
		return fmt.Errorf("storing access token: %w", err)
	}
	s.authenticated.Store(true)
	s.logger.Info("session started", "account", s.account(ctx))
	return nil
}

func (s *Session) Logout(ctx context.Context) error {
	s.teardown(ctx)
	s.authenticated.Store(false)
	return s.tokens.Clear(ctx)
}

func (s *Session) teardown(ctx context.Context) {
	s.Mutations.Reset()
	s.Interactions.Reset()
	s.Registry.Clear()
	if err := s.Categories.Purge(ctx); err != nil {
		s.logger.Warn("purging category cache", "err", err)
	}
}

// called by the bearer auth middleware, after it cleared the token
func (s *Session) unauthorized(ctx context.Context) {
	wasAuthenticated := s.authenticated.Swap(false)
	s.teardown(ctx)
	if !wasAuthenticated {
		return
	}
	s.logger.Info("session expired or revoked")
	if s.config.OnUnauthorized != nil {
		s.config.OnUnauthorized()
	}
}

func (s *Session) account(ctx context.Context) string {
	token, err := s.tokens.Load(ctx)
	if err != nil {
		return defaultAccount
	}
	if sub, ok := tokenstore.Subject(token); ok {
		return sub
	}
	return defaultAccount
}

func (s *Session) listConfig() feed.ListConfig {
	return feed.ListConfig{
		PageSize: s.config.FeedPageSize,
		Mapper:   s.Mapper,
		Store:    s.Interactions,
		Logger:   s.baseLogger,
	}
}

// returns the registered entry for key, registering a new one if needed
func cached[T feed.Entry](r *feed.Registry, key string, create func() T) T {
	if e, ok := r.Lookup(key); ok {
		if t, ok := e.(T); ok {
			return t
		}
	}
	created := create()
	if t, ok := r.Register(created).(T); ok {
		return t
	}
	return created
}

// HomeFeed returns the personalized feed. Repeated calls return the same list until the session is torn down.
func (s *Session) HomeFeed() *feed.List {
	return cached(s.Registry, feed.KeyHome, func() *feed.List {
		return feed.NewHomeFeed(s.Client, s.listConfig())
	})
}

// Posts returns the list of all posts, or of one category if slug is not empty.
func (s *Session) Posts(slug string) *feed.List {
	key := feed.KeyPosts
	if slug != "" {
		key = feed.CategoryKey(slug)
	}
	return cached(s.Registry, key, func() *feed.List {
		return feed.NewPostList(s.Client, slug, s.listConfig())
	})
}

func (s *Session) Post(id string) *feed.PostView {
	return cached(s.Registry, feed.PostKey(id), func() *feed.PostView {
		return feed.NewPostView(s.Client, id, s.Mapper, s.Interactions, &s.posts)
	})
}

func (s *Session) Comments(postID string) *comments.Thread {
	return cached(s.Registry, comments.Key(postID), func() *comments.Thread {
		return comments.NewThread(s.Client, postID, comments.Config{
			PageSize: s.config.CommentsPageSize,
			Registry: s.Registry,
			Logger:   s.baseLogger,
		})
	})
}

// Inbox returns the notification inbox of the signed-in account.
func (s *Session) Inbox(ctx context.Context) *notifs.Inbox {
	return notifs.NewInbox(s.Client, s.seen, notifs.Config{
		Account: s.account(ctx),
		Logger:  s.baseLogger,
	})
}
