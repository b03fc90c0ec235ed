// Package server wires the MediMinder API server: Postgres storage, the
// account and record services, the push hub and the HTTP listener, with
// graceful shutdown on SIGINT, SIGTERM and SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/mediminder/internal/logging"
	"github.com/dmitrijs2005/mediminder/internal/pgstore"
	"github.com/dmitrijs2005/mediminder/internal/server/config"
	"github.com/dmitrijs2005/mediminder/internal/server/httpapi"
	"github.com/dmitrijs2005/mediminder/internal/server/hub"
	"github.com/dmitrijs2005/mediminder/internal/server/records"
	"github.com/dmitrijs2005/mediminder/internal/server/users"
	"go.uber.org/zap"
)

type App struct {
	config *config.Config
	logger *logging.ZapLogger
	db     *sql.DB
	hub    *hub.Hub
	router http.Handler
}

func newZap(c *config.Config) (*zap.Logger, error) {
	if c.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	zl, err := newZap(c)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}
	logger := logging.NewZapLogger(zl)

	db, err := pgstore.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := pgstore.RunMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store := pgstore.New(db)
	h := hub.New(logger)

	// With LISTEN/NOTIFY the database feeds the hub, so the record
	// service must not publish its own writes a second time.
	var publisher records.Publisher = h
	if c.ListenNotify {
		publisher = nil
	}

	var limits *httpapi.RateLimits
	if c.RateLimitEnabled {
		limits = &httpapi.RateLimits{
			Authenticated: c.RateLimitAuthenticated,
			Anonymous:     c.RateLimitAnonymous,
			Window:        c.RateLimitWindow,
		}
	}

	router := httpapi.NewRouter(httpapi.Options{
		Users:          users.NewService(store, c.SecretKey, c.TokenValidity, c.AdminEmails, logger),
		Records:        records.NewService(store, publisher, logger),
		Hub:            h,
		Logger:         logger,
		AllowedOrigins: c.AllowedOrigins,
		Production:     c.IsProduction(),
		RateLimits:     limits,
	})

	return &App{config: c, logger: logger, db: db, hub: h, router: router}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	srv := &http.Server{
		Addr:        app.config.Address,
		Handler:     app.router,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "server forced to shutdown", "error", err)
		}
	}()

	app.logger.Info(ctx, "starting HTTP server", "address", app.config.Address)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startChangeFeed(ctx context.Context, cancelFunc context.CancelFunc) {
	l, err := pgstore.Listen(ctx, app.config.DatabaseDSN)
	if err != nil {
		app.logger.Error(ctx, "change feed init failed", "error", err)
		cancelFunc()
		return
	}
	if err := app.hub.Feed(ctx, l); err != nil {
		app.logger.Error(ctx, "change feed stopped", "error", err)
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app", "environment", app.config.Environment, "listen_notify", app.config.ListenNotify)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.ListenNotify {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startChangeFeed(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "server exited")
	_ = app.logger.Sync()
}
