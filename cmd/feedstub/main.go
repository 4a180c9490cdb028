package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leandroruel/unrot.app-front/testing/fakeapi"
	"github.com/leandroruel/unrot.app-front/util/cliutil"

	_ "github.com/joho/godotenv/autoload"
	_ "go.uber.org/automaxprocs"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {

	app := cli.App{
		Name:    "feedstub",
		Usage:   "in-memory unrot API backend, for local development",
		Version: versioninfo.Short(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "bind",
				Usage:   "IP or address, and port, to listen on for HTTP APIs",
				Value:   ":8080",
				EnvVars: []string{"FEEDSTUB_BIND"},
			},
			&cli.Int64Flag{
				Name:    "seed",
				Usage:   "random seed for generated content",
				Value:   1234,
				EnvVars: []string{"FEEDSTUB_SEED"},
			},
			&cli.IntFlag{
				Name:    "posts",
				Usage:   "number of posts to generate",
				Value:   200,
				EnvVars: []string{"FEEDSTUB_POSTS"},
			},
			&cli.StringFlag{
				Name:    "demo-email",
				Usage:   "email of the seeded demo account",
				Value:   "demo@unrot.app",
				EnvVars: []string{"FEEDSTUB_DEMO_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "demo-password",
				Usage:   "password of the seeded demo account",
				Value:   "password",
				EnvVars: []string{"FEEDSTUB_DEMO_PASSWORD"},
			},
			&cli.StringFlag{
				Name:    "token-secret",
				Usage:   "HMAC secret for issued tokens; random if unset, so tokens do not survive restarts",
				EnvVars: []string{"FEEDSTUB_TOKEN_SECRET"},
			},
			&cli.DurationFlag{
				Name:    "token-ttl",
				Usage:   "lifetime of issued access tokens",
				Value:   time.Hour,
				EnvVars: []string{"FEEDSTUB_TOKEN_TTL"},
			},
			&cli.IntFlag{
				Name:    "logins-per-minute",
				Usage:   "login attempts allowed per account per minute",
				Value:   10,
				EnvVars: []string{"FEEDSTUB_LOGINS_PER_MINUTE"},
			},
			&cli.StringFlag{
				Name:    "otel-exporter-otlp-endpoint",
				Usage:   "OTLP HTTP endpoint for traces (eg, 'http://localhost:4318'); tracing is off if unset",
				EnvVars: []string{"OTEL_EXPORTER_OTLP_ENDPOINT"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity level (eg: warn, info, debug)",
				Value:   "info",
				EnvVars: []string{"FEEDSTUB_LOG_LEVEL", "GO_LOG_LEVEL", "LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "log output format (text or json)",
				Value:   "json",
				EnvVars: []string{"FEEDSTUB_LOG_FORMAT"},
			},
		},
		Action: runServe,
	}
	return app.Run(args)
}

// The exporter reads the rest of its configuration from the standard OTEL_* environment variables.
func setupOTEL(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	slog.Info("setting up trace exporter", "endpoint", endpoint)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("feedstub"),
			attribute.String("environment", "dev"),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

func runServe(cctx *cli.Context) error {
	logger := cliutil.ConfigLogger(cctx, os.Stdout)

	shutdownTracing, err := setupOTEL(cctx.Context, cctx.String("otel-exporter-otlp-endpoint"))
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			logger.Error("failed to shutdown trace exporter", "err", err)
		}
	}()

	api := fakeapi.New(fakeapi.Config{
		Secret:          []byte(cctx.String("token-secret")),
		LoginsPerMinute: cctx.Int("logins-per-minute"),
		Logger:          logger,
		LogRequests:     true,
	})
	api.TokenTTL = cctx.Duration("token-ttl")
	if err := api.Seed(cctx.Int64("seed"), cctx.Int("posts"), cctx.String("demo-email"), cctx.String("demo-password")); err != nil {
		return fmt.Errorf("seeding backend: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", api)

	httpd := &http.Server{
		Handler:        mux,
		Addr:           cctx.String("bind"),
		WriteTimeout:   time.Minute,
		ReadTimeout:    time.Minute,
		MaxHeaderBytes: 1024 * 1024,
	}

	logger.Info("starting server", "bind", httpd.Addr, "demo", cctx.String("demo-email"))
	go func() {
		if err := httpd.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP server shutting down unexpectedly", "err", err)
			}
		}
	}()

	exitSignals := make(chan os.Signal, 1)
	signal.Notify(exitSignals, syscall.SIGINT, syscall.SIGTERM)
	sig := <-exitSignals
	logger.Info("received OS exit signal", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpd.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown error", "err", err)
	}
	logger.Info("graceful shutdown complete")
	return nil
}
