// Package bootstrap wires configuration into ready-to-use loggers, databases, servers and jobs.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lmittmann/tint"
	"github.com/prior-it/vatengine/config"
	"github.com/prior-it/vatengine/postgres"
	"github.com/prior-it/vatengine/reconcile"
	"github.com/prior-it/vatengine/server"
)

// Server creates a new API server and initializes all default systems: the logger, Sentry (if enabled in
// config) and the default middleware. The database is optional, without it the customer routes respond with 404.
//
// Note that this function will add routes before returning, which means it is not possible to add additional
// global middleware after calling this function.
func Server(cfg *config.Config, db *postgres.DB) *server.Server[*server.API] {
	if cfg == nil {
		panic("You need to supply a config.Config value to bootstrap a new server")
	}
	logger := CreateLogger(cfg, os.Stdout)

	if cfg.Sentry.Enabled {
		initSentry(logger, cfg)
	}

	var api *server.API
	if db != nil {
		api = server.NewAPI(postgres.NewCustomerService(db), func(context.Context) { db.Close() })
	} else {
		api = server.NewAPI(nil)
	}

	s := server.New(api, cfg).WithLogger(logger)
	s.AttachDefaultMiddleware()

	if cfg.Sentry.Enabled {
		sentryHandler := sentryhttp.New(sentryhttp.Options{
			Repanic:         true,
			WaitForDelivery: true,
			Timeout:         5 * time.Second, //nolint:mnd
		})
		s.UseStd(sentryHandler.Handle)
	}

	// Fully disable caching in debug mode
	if cfg.App.Debug {
		s.UseStd(middleware.NoCache)
		if cfg.Log.Verbose {
			s.UseStd(func(next http.Handler) http.Handler {
				return server.Debug(false, next)
			})
		}
	}

	server.Routes(s)
	return s
}

// Database connects to the configured database, switches to the configured schema and runs all migrations.
func Database(ctx context.Context, cfg *config.Config) (*postgres.DB, error) {
	var db *postgres.DB
	var err error
	if cfg.Database.Schema != "" && cfg.Database.Schema != "public" {
		db, err = postgres.NewDBInSchema(ctx, cfg.Database.URL, cfg.Database.Schema)
	} else {
		db, err = postgres.NewDB(ctx, cfg.Database.URL)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("cannot migrate database: %w", err)
	}
	return db, nil
}

// Reconciler creates a reconciliation job over all customers in the database.
func Reconciler(cfg *config.Config, db *postgres.DB) *reconcile.Reconciler {
	return reconcile.New(postgres.NewCustomerService(db), cfg.Reconcile).
		WithLogger(slog.Default().With("job", "reconcile"))
}

// CreateLogger builds the logger described by the configuration and makes it the default logger.
func CreateLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	var logger *slog.Logger
	loggerOptions := &slog.HandlerOptions{
		Level:     cfg.Log.Level.ToSlog(),
		AddSource: cfg.Log.Verbose && cfg.App.Debug,
	}
	switch cfg.Log.Format {
	case config.LogFormatPlaintext:
		logger = slog.New(tint.NewHandler(w, &tint.Options{
			Level:      loggerOptions.Level,
			AddSource:  loggerOptions.AddSource,
			TimeFormat: time.Kitchen,
		}))
	default:
		logger = slog.New(slog.NewJSONHandler(w, loggerOptions))
	}
	slog.SetDefault(logger)
	return logger
}

func initSentry(logger *slog.Logger, cfg *config.Config) {
	logger.Debug("Trying to initialise Sentry")
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Debug:            cfg.App.Debug,
		AttachStacktrace: true,
		SampleRate:       cfg.Sentry.SampleRate,
		EnableTracing:    true,
		TracesSampleRate: cfg.Sentry.TracesRate,
		TracesSampler: sentry.TracesSampler(func(ctx sentry.SamplingContext) float64 {
			if ctx.Span.Name == "GET /ping" || ctx.Span.Name == "GET /metrics" {
				return 0.0
			}
			return cfg.Sentry.TracesRate
		}),
		ServerName:  cfg.App.Name,
		Release:     cfg.App.Version,
		Environment: string(cfg.App.Env),
	}); err != nil {
		logger.Error("Sentry initialization failed", "error", err)
	} else {
		logger.Debug("Sentry initialised")
	}
}
