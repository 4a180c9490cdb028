package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/leandroruel/unrot.app-front/session"
	"github.com/leandroruel/unrot.app-front/tokenstore"
	"github.com/leandroruel/unrot.app-front/util/cliutil"

	_ "github.com/joho/godotenv/autoload"

	"github.com/carlmjohnson/versioninfo"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "unrot",
		Usage:   "command-line client for the unrot social feed",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "method, hostname, and port of the unrot API",
				Value:   session.DefaultConfig().APIHost,
				EnvVars: []string{"UNROT_API_URL"},
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "optional redis instance for shared caching (eg, 'redis://localhost:6379/0')",
				EnvVars: []string{"UNROT_REDIS_URL"},
			},
			&cli.StringFlag{
				Name:    "db-url",
				Usage:   "database for local state (notification read markers)",
				Value:   cliutil.DefaultDatabaseURL(),
				EnvVars: []string{"UNROT_DATABASE_URL", "DATABASE_URL"},
			},
			&cli.Float64Flag{
				Name:    "rate-limit",
				Usage:   "max API requests per second (0 for unlimited)",
				EnvVars: []string{"UNROT_RATE_LIMIT"},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "timeout for each API request, including retries",
				Value:   session.DefaultConfig().HTTPTimeout,
				EnvVars: []string{"UNROT_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity level (eg: warn, info, debug)",
				Value:   "warn",
				EnvVars: []string{"UNROT_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (text or json)",
				Value:   "text",
				EnvVars: []string{"UNROT_LOG_FORMAT"},
			},
		},
	}
	app.Commands = []*cli.Command{
		cmdLogin,
		cmdRegister,
		cmdLogout,
		cmdFeed,
		cmdPosts,
		cmdPost,
		cmdCategories,
		cmdComments,
		cmdLike,
		cmdBookmark,
		cmdShare,
		cmdNotifs,
		cmdBrowse,
	}
	return app.Run(args)
}

// builds the process session from global flags, with the token persisted in the XDG state dir
func loadSession(cctx *cli.Context) (*session.Session, error) {
	logger := cliutil.ConfigLogger(cctx, os.Stderr)

	tokens, err := tokenstore.NewFileStore()
	if err != nil {
		return nil, err
	}

	config := session.DefaultConfig()
	config.APIHost = cctx.String("api-url")
	config.RedisURL = cctx.String("redis-url")
	config.DatabaseURL = cctx.String("db-url")
	config.RequestsPerSecond = cctx.Float64("rate-limit")
	config.HTTPTimeout = cctx.Duration("timeout")
	config.Logger = logger
	config.OnUnauthorized = func() {
		fmt.Fprintln(os.Stderr, "session expired: log in again with 'unrot login'")
	}

	ctx, cancel := context.WithTimeout(cctx.Context, 10*time.Second)
	defer cancel()
	return session.New(ctx, config, tokens)
}

// like loadSession, but fails early if not logged in
func loadAuthSession(cctx *cli.Context) (*session.Session, error) {
	sess, err := loadSession(cctx)
	if err != nil {
		return nil, err
	}
	if !sess.Authenticated() {
		return nil, fmt.Errorf("auth required, but not logged in")
	}
	return sess, nil
}
