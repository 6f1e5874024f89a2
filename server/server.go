package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prior-it/vatengine/config"
	"github.com/prior-it/vatengine/core"
)

type (
	ErrorHandler    func(c *Ctx, err error)
	NotFoundHandler func(c *Ctx)
)

type State interface {
	Close(ctx context.Context)
}

type Server[state State] struct {
	mux          *chi.Mux
	state        state
	logger       *slog.Logger
	errorHandler ErrorHandler
	cfg          *config.Config
}

type Handler[state any] func(c *Ctx, state state) error

// New creates a new server with the specified state object and configuration.
func New[state State](s state, cfg *config.Config) *Server[state] {
	server := &Server[state]{
		mux:          chi.NewMux(),
		state:        s,
		logger:       slog.Default(),
		errorHandler: DefaultErrorHandler,
		cfg:          cfg,
	}

	server.WithNotFoundHandler(
		func(c *Ctx) {
			DefaultErrorHandler(c, fmt.Errorf("route %q: %w", c.Path(), core.ErrNotFound))
		},
	)

	return server
}

func (server *Server[state]) WithErrorHandler(errorHandler ErrorHandler) *Server[state] {
	server.errorHandler = errorHandler
	return server
}

func (server *Server[state]) WithNotFoundHandler(notFoundHandler NotFoundHandler) *Server[state] {
	server.mux.NotFound(server.handle(func(c *Ctx, _ state) error {
		notFoundHandler(c)
		return nil
	}))
	return server
}

func (server *Server[state]) WithLogger(logger *slog.Logger) *Server[state] {
	server.logger = logger
	return server
}

func (server *Server[state]) newCtx(w http.ResponseWriter, r *http.Request) *Ctx {
	return &Ctx{
		Writer:  w,
		Request: r,
		logger:  server.logger,
	}
}

func (server *Server[state]) handle(handler Handler[state]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := server.newCtx(w, r)
		err := handler(c, server.state)
		if err != nil {
			server.errorHandler(c, err)
		}
		_ = r.Body.Close()
	}
}

func (server *Server[state]) AttachDefaultMiddleware() {
	server.UseStd(
		middleware.CleanPath,
		middleware.StripSlashes,
		middleware.Recoverer,
		middleware.RealIP,
		middleware.RequestID,
		HTTPLogger(server.cfg),
	)
	if server.cfg.App.RequestTimeout > 0 {
		server.UseStd(middleware.Timeout(
			time.Duration(server.cfg.App.RequestTimeout) * time.Second,
		))
	}
}

// Start runs the server until the context is cancelled or an interrupt signal is received.
// If no listener is provided, a new TCP listener will be created on the configured host and port.
func (server *Server[state]) Start(ctx context.Context, listener net.Listener) error {
	// Handle OS signals to cancel the context
	ctxServer, stopSignal := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignal()

	httpServer := &http.Server{
		Addr:              server.cfg.Address(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd
	}

	errorCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			slog.Info("Starting server", "host", listener.Addr().String())
			err = httpServer.Serve(listener)
		} else {
			slog.Info("Starting server", "host", httpServer.Addr)
			err = httpServer.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errorCh <- err
		}
		close(errorCh)
	}()

	var errServer error
	select {
	case err := <-errorCh:
		errServer = err
	case <-ctxServer.Done():
		slog.Info("Server interrupt received")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(
		context.WithoutCancel(ctx),
		time.Duration(server.cfg.App.ShutdownTimeout)*time.Second,
	)
	defer cancelShutdown()

	if err := httpServer.Shutdown(ctxShutdown); err != nil {
		slog.Error("Could not gracefully shut down the server", "error", err)
	}
	server.Shutdown(ctxShutdown)

	return errServer
}

// Shutdown will release all server resources. You generally don't need to call this manually.
func (server *Server[state]) Shutdown(ctx context.Context) {
	sentryTimeout := max(0, time.Duration(server.cfg.App.ShutdownTimeout-1))
	sentry.Flush(sentryTimeout * time.Second)
	server.state.Close(ctx)
}

// ServeHTTP implements [net/http.Handler].
func (server *Server[state]) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	server.mux.ServeHTTP(writer, request)
}

// UseStd appends a stdlib middleware handler to the middleware stack.
//
// The middleware stack for any server will execute before searching for a matching
// route to a specific handler, which provides opportunity to respond early,
// change the course of the request execution, or set request-scoped values for
// the next Handler.
func (server *Server[state]) UseStd(middlewares ...func(http.Handler) http.Handler) *Server[state] {
	server.mux.Use(middlewares...)
	return server
}

// Handle adds the route `pattern` that matches any http method to
// execute the `handler` [net/http.Handler].
func (server *Server[state]) Handle(pattern string, handler http.Handler) *Server[state] {
	server.mux.Handle(pattern, handler)
	return server
}

// Get adds the route `pattern` that matches a GET http method to execute the `handlerFn` HandlerFunc.
func (server *Server[state]) Get(pattern string, handlerFn Handler[state]) *Server[state] {
	server.mux.Get(pattern, server.handle(handlerFn))
	return server
}

// Post adds the route `pattern` that matches a POST http method to execute the `handlerFn` HandlerFunc.
func (server *Server[state]) Post(pattern string, handlerFn Handler[state]) *Server[state] {
	server.mux.Post(pattern, server.handle(handlerFn))
	return server
}
