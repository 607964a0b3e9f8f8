// Package server initializes and runs the RampForge server: it opens the
// database, wires the domain services and the HTTP API, and handles graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rampforge/rampforge/internal/logging"
	"github.com/rampforge/rampforge/internal/server/api"
	"github.com/rampforge/rampforge/internal/server/config"
	"github.com/rampforge/rampforge/internal/server/connectors"
	"github.com/rampforge/rampforge/internal/server/db"
	"github.com/rampforge/rampforge/internal/server/mcp"
	"github.com/rampforge/rampforge/internal/server/metrics"
	"github.com/rampforge/rampforge/internal/server/projects"
	"github.com/rampforge/rampforge/internal/server/sessions"
	"github.com/rampforge/rampforge/internal/server/users"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	api      *api.Server
	sessions *sessions.Service
	cache    *sessions.Cache
	closeDB  func() error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	handle, style, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	cache, err := sessions.NewCache(c.RedisURL)
	if err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}

	userSvc := users.NewService(users.NewSQLRepository(handle, style))
	sessionSvc := sessions.NewService(sessions.NewSQLRepository(handle, style), cache,
		[]byte(c.SecretKey), c.SessionValidityDuration, logger)

	registry := connectors.NewRegistry(&http.Client{Timeout: c.ConnectorTimeout})
	mcpMgr := mcp.NewManager(mcp.NewSQLRepository(handle, style), registry, c.ConnectorTimeout, logger)
	projectSvc := projects.NewService(projects.NewSQLRepository(handle, style), mcpMgr, registry, logger)

	apiSrv := api.NewServer(userSvc, sessionSvc, mcpMgr, projectSvc, metrics.New(), logger)

	return &App{
		config:   c,
		logger:   logger,
		api:      apiSrv,
		sessions: sessionSvc,
		cache:    cache,
		closeDB:  handle.Close,
	}, nil
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
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "server shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "listening", "addr", app.config.EndpointAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessions.RunJanitor(ctx, app.config.JanitorInterval)
	}()

	wg.Wait()

	if app.cache != nil {
		_ = app.cache.Close()
	}
	if app.closeDB != nil {
		_ = app.closeDB()
	}
}
