// Package server wires the library server together: storage, the session
// and catalog services, the REST API and the gRPC health endpoint. It also
// handles graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophlibrary/internal/logging"
	"github.com/dmitrijs2005/gophlibrary/internal/server/auth"
	"github.com/dmitrijs2005/gophlibrary/internal/server/config"
	"github.com/dmitrijs2005/gophlibrary/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophlibrary/internal/server/rest"
	"github.com/dmitrijs2005/gophlibrary/internal/server/services"

	gs "github.com/dmitrijs2005/gophlibrary/internal/server/grpc"
)

const readHeaderTimeout = 5 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	sessions *services.SessionManager
	catalog  *services.CatalogService
}

// NewApp connects to the configured storage, applies migrations and builds
// the services.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := repomanager.Open(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	return newApp(c, logger, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, rm repomanager.RepositoryManager) *App {
	if c.UsesDefaultSecrets() {
		logger.Warn(context.Background(), "token secrets are the built-in development defaults; set JWT_SECRET and JWT_REFRESH_SECRET")
	}

	codec := auth.NewCodec(auth.Settings{
		AccessSecret:    c.AccessTokenSecret,
		RefreshSecret:   c.RefreshTokenSecret,
		AccessValidity:  c.AccessTokenValidityDuration,
		RefreshValidity: c.RefreshTokenValidityDuration,
	})

	creds := services.NewCredentialStore(rm.Users(), c.BcryptCost)

	return &App{
		config:   c,
		logger:   logger,
		repos:    rm,
		sessions: services.NewSessionManager(creds, codec, logger),
		catalog:  services.NewCatalogService(rm.Books(), logger),
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := rest.NewHandler(app.sessions, app.catalog, app.repos, app.logger)

	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           rest.NewRouter(h, app.config.CORSAllowedOrigins),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "HTTP shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.config.EndpointAddrHTTP)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewAdminServer(app.config.EndpointAddrGRPC, app.repos, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled, a termination signal arrives or one
// of the servers fails, then closes storage.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
	defer cancel()
	if err := app.repos.Close(closeCtx); err != nil {
		app.logger.Error(closeCtx, "storage close error", "error", err)
	}

	app.logger.Info(closeCtx, "App stopped")
}
