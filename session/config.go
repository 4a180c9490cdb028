package session

import (
	"log/slog"
	"time"

	"github.com/carlmjohnson/versioninfo"
)

type Config struct {
	// Base URL of the API, eg "http://localhost:8080"
	APIHost string

	FeedPageSize     int
	CommentsPageSize int

	CategoryTTL       time.Duration
	CategoryErrTTL    time.Duration
	CategoryCacheSize int
	// Optional. If set, the category list is cached in redis as well as in process.
	RedisURL string

	// Client-side request limit; zero disables it.
	RequestsPerSecond float64
	HTTPTimeout       time.Duration
	HTTPRetries       int
	UserAgent         string

	// Database for notification read state. If empty, read state is only kept in memory.
	DatabaseURL string

	// Called after a 401 response tore the session down.
	OnUnauthorized func()
	// Called when an optimistic change was rejected by the server.
	OnMutationError func(error)

	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		APIHost:           "http://localhost:8080",
		FeedPageSize:      10,
		CommentsPageSize:  20,
		CategoryTTL:       30 * time.Minute,
		CategoryErrTTL:    30 * time.Second,
		CategoryCacheSize: 16,
		RequestsPerSecond: 0,
		HTTPTimeout:       15 * time.Second,
		HTTPRetries:       2,
		UserAgent:         "unrot/" + versioninfo.Short(),
	}
}
