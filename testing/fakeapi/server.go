// Package fakeapi is an in-memory implementation of the unrot HTTP API, for tests and local development.
//
// It serves both pagination conventions (flat arrays on the home feed, page envelopes everywhere else), issues short-lived JWT bearer tokens, and has hooks for injecting failures.
package fakeapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandroruel/unrot.app-front/api/unrot"
	"github.com/leandroruel/unrot.app-front/client"

	"github.com/RussellLuo/slidingwindow"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type user struct {
	ID          string
	Email       string
	Password    string
	DisplayName string
}

type Server struct {
	echo   *echo.Echo
	logger *slog.Logger
	secret []byte

	// fault injection
	failInteractions atomic.Bool
	tokenGeneration  atomic.Int64

	// TokenTTL is the lifetime of issued tokens.
	TokenTTL time.Duration

	mu            sync.Mutex
	users         map[string]*user // by email
	usersByID     map[string]*user
	categories    []unrot.Category
	posts         []*unrot.Post // newest first
	postsByID     map[string]*unrot.Post
	likes         map[string]map[string]bool // user -> post
	bookmarks     map[string]map[string]bool
	comments      map[string][]*unrot.Comment // post -> comments, oldest first
	notifications map[string][]*unrot.Notification
	loginLimits   map[string]*slidingwindow.Limiter // by email
	loginsPerMin  int64
}

type Config struct {
	// HMAC secret for issued tokens. Random if empty.
	Secret []byte
	Logger *slog.Logger
	// Login attempts allowed per email per minute. Defaults to 10.
	LoginsPerMinute int
	// Enable request logging.
	LogRequests bool
}

func New(config Config) *Server {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	secret := config.Secret
	if len(secret) == 0 {
		secret = []byte(strconv.FormatInt(time.Now().UnixNano(), 36))
	}
	loginsPerMin := int64(config.LoginsPerMinute)
	if loginsPerMin <= 0 {
		loginsPerMin = 10
	}
	s := &Server{
		logger:        logger.With("system", "fakeapi"),
		secret:        secret,
		TokenTTL:      time.Hour,
		users:         make(map[string]*user),
		usersByID:     make(map[string]*user),
		postsByID:     make(map[string]*unrot.Post),
		likes:         make(map[string]map[string]bool),
		bookmarks:     make(map[string]map[string]bool),
		comments:      make(map[string][]*unrot.Comment),
		notifications: make(map[string][]*unrot.Notification),
		loginLimits:   make(map[string]*slidingwindow.Limiter),
		loginsPerMin:  loginsPerMin,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if config.LogRequests {
		e.Use(slogecho.New(s.logger))
	}
	e.Use(middleware.Recover())
	e.Use(otelecho.Middleware("fakeapi"))
	e.Use(MetricsMiddleware)
	e.HTTPErrorHandler = s.errorHandler

	e.GET("/_health", s.HandleHealthCheck)
	e.POST("/auth/login", s.HandleLogin)
	e.POST("/auth/register", s.HandleRegister)

	api := e.Group("/api", s.authMiddleware)
	api.GET("/feed", s.HandleFeed, requireUser)
	api.GET("/posts", s.HandlePosts)
	api.GET("/posts/category/:slug", s.HandlePostsByCategory)
	api.GET("/posts/:id", s.HandlePost)
	api.POST("/posts/:id/likes", s.HandleLikeCreate, requireUser)
	api.DELETE("/posts/:id/likes", s.HandleLikeDelete, requireUser)
	api.POST("/posts/:id/bookmarks", s.HandleBookmarkCreate, requireUser)
	api.DELETE("/posts/:id/bookmarks", s.HandleBookmarkDelete, requireUser)
	api.POST("/posts/:id/shares", s.HandleShareCreate, requireUser)
	api.GET("/posts/:id/comments", s.HandleCommentsList)
	api.POST("/posts/:id/comments", s.HandleCommentCreate, requireUser)
	api.DELETE("/posts/:id/comments/:commentId", s.HandleCommentDelete, requireUser)
	api.GET("/categories", s.HandleCategories)
	api.GET("/notifications", s.HandleNotifications, requireUser)

	s.echo = e
	return s
}

func (s *Server) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	s.echo.ServeHTTP(rw, req)
}

// FailInteractions makes like, bookmark and share requests fail with a 400 until turned off again.
func (s *Server) FailInteractions(fail bool) {
	s.failInteractions.Store(fail)
}

// RevokeTokens invalidates every token issued so far. Requests carrying one get a 401.
func (s *Server) RevokeTokens() {
	s.tokenGeneration.Add(1)
}

func (s *Server) errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	body := client.ErrorBody{Name: "InternalServerError"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		body.Name = strings.ReplaceAll(http.StatusText(code), " ", "")
		if msg, ok := he.Message.(string); ok {
			body.Message = msg
		}
		var named *namedError
		if errors.As(he.Internal, &named) {
			body.Name = named.name
		}
	}
	if code >= 500 {
		s.logger.Warn("fakeapi-http-internal-error", "err", err, "path", c.Path())
	}
	if !c.Response().Committed {
		if err := c.JSON(code, body); err != nil {
			s.logger.Error("failed to write http error", "err", err)
		}
	}
}

type namedError struct {
	name string
}

func (e *namedError) Error() string {
	return e.name
}

func apiError(code int, name, message string) *echo.HTTPError {
	return echo.NewHTTPError(code, message).SetInternal(&namedError{name: name})
}

type GenericStatus struct {
	Daemon  string `json:"daemon"`
	Status  string `json:"status"`
	Message string `json:"msg,omitempty"`
}

func (s *Server) HandleHealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, GenericStatus{Status: "ok", Daemon: "fakeapi"})
}

// pagination query params, with the server's defaults and bounds applied
func pageParams(c echo.Context) (int, int, error) {
	var params unrot.PageParams
	params.Size = defaultPageSize
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, 0, apiError(http.StatusBadRequest, "InvalidRequest", "invalid page")
		}
		params.Page = n
	}
	if v := c.QueryParam("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return 0, 0, apiError(http.StatusBadRequest, "InvalidRequest", "invalid size")
		}
		params.Size = min(n, maxPageSize)
	}
	return params.Page, params.Size, nil
}

// slice out one page, along with the envelope describing it
func paginate[T any](all []T, page, size int) unrot.Page[T] {
	total := len(all)
	start := min(page*size, total)
	end := min(start+size, total)
	content := make([]T, end-start)
	copy(content, all[start:end])
	totalPages := (total + size - 1) / size
	return unrot.Page[T]{
		Content:       content,
		TotalPages:    totalPages,
		TotalElements: total,
		Number:        page,
		Size:          size,
		First:         page == 0,
		Last:          page >= totalPages-1,
	}
}

func windowFunc() (slidingwindow.Window, slidingwindow.StopFunc) {
	return slidingwindow.NewLocalWindow()
}

// allowLogin applies the per-email login attempt limit
func (s *Server) allowLogin(email string) bool {
	s.mu.Lock()
	lim, ok := s.loginLimits[email]
	if !ok {
		lim, _ = slidingwindow.NewLimiter(time.Minute, s.loginsPerMin, windowFunc)
		s.loginLimits[email] = lim
	}
	s.mu.Unlock()
	return lim.Allow()
}

type claims struct {
	jwt.RegisteredClaims
	Generation int64 `json:"gen"`
}

func (s *Server) issueToken(u *user) (string, error) {
	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
		Generation: s.tokenGeneration.Load(),
	})
	return tok.SignedString(s.secret)
}

// resolves the bearer token, if any, to a user. An invalid token is always a 401, even on public endpoints.
func (s *Server) authMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		hdr := c.Request().Header.Get("Authorization")
		if hdr == "" {
			return next(c)
		}
		raw, ok := strings.CutPrefix(hdr, "Bearer ")
		if !ok {
			return apiError(http.StatusUnauthorized, "Unauthorized", "unsupported authorization scheme")
		}
		var cl claims
		_, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
			return s.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return apiError(http.StatusUnauthorized, "Unauthorized", "invalid or expired token")
		}
		if cl.Generation != s.tokenGeneration.Load() {
			return apiError(http.StatusUnauthorized, "Unauthorized", "token revoked")
		}
		s.mu.Lock()
		u, ok := s.usersByID[cl.Subject]
		s.mu.Unlock()
		if !ok {
			return apiError(http.StatusUnauthorized, "Unauthorized", "unknown account")
		}
		c.Set("user", u)
		return next(c)
	}
}

func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) == nil {
			return apiError(http.StatusUnauthorized, "Unauthorized", "authentication required")
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *user {
	u, _ := c.Get("user").(*user)
	return u
}
