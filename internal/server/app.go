// Package server wires configuration, storage, services and transports
// into a runnable process and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/tuneshelf/internal/cryptox"
	"github.com/dmitrijs2005/tuneshelf/internal/logging"
	"github.com/dmitrijs2005/tuneshelf/internal/server/auth"
	"github.com/dmitrijs2005/tuneshelf/internal/server/cache"
	"github.com/dmitrijs2005/tuneshelf/internal/server/config"
	"github.com/dmitrijs2005/tuneshelf/internal/server/httpapi"
	"github.com/dmitrijs2005/tuneshelf/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tuneshelf/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/tuneshelf/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	rdb     *redis.Client
	handler http.Handler
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db}

	artistCache := app.initArtistCache(ctx)

	images, err := services.NewS3ImageResolver(ctx, c)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	hasher := &cryptox.Argon2{
		Memory:      c.Argon2Memory,
		Iterations:  c.Argon2Iterations,
		Parallelism: c.Argon2Parallelism,
		SaltLength:  cryptox.DefaultSaltLength,
		KeyLength:   cryptox.DefaultKeyLength,
	}
	tokens := auth.NewTokenIssuer(c.SecretKey, c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)

	as := services.NewAuthService(db, rm, hasher, tokens, logger)
	fs := services.NewFavoriteService(db, rm, logger)
	ars := services.NewArtistService(db, rm, artistCache, images, logger)

	app.handler = httpapi.NewHandler(as, fs, ars, db, logger).Routes(tokens)
	return app, nil
}

// initArtistCache connects to Redis when configured. An unreachable Redis
// is only logged; the cache's circuit breaker keeps requests on Postgres.
func (app *App) initArtistCache(ctx context.Context) cache.ArtistCache {
	if app.config.RedisAddr == "" {
		app.logger.Info(ctx, "artist cache disabled")
		return cache.Noop{}
	}

	app.rdb = redis.NewClient(&redis.Options{
		Addr:     app.config.RedisAddr,
		Password: app.config.RedisPassword,
		DB:       app.config.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := app.rdb.Ping(pingCtx).Err(); err != nil {
		app.logger.Warn(ctx, "redis unreachable at startup", "addr", app.config.RedisAddr, "error", err)
	} else {
		app.logger.Info(ctx, "connected to redis", "addr", app.config.RedisAddr)
	}

	return cache.NewRedisArtistCache(app.rdb, app.config.ArtistCacheTTL, app.logger)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// runServer runs one transport and cancels the whole app if it fails.
func (app *App) runServer(ctx context.Context, cancelFunc context.CancelFunc, name string, run func(context.Context) error) {
	if err := run(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until a termination signal arrives or a server fails, then
// stops both servers and releases storage.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	httpServer := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, app.handler, app.logger, app.config.ShutdownTimeout)
	grpcServer := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "http", httpServer.Run)
	}()
	go func() {
		defer wg.Done()
		app.runServer(ctx, cancelFunc, "grpc", grpcServer.Run)
	}()

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.Close()
}

func (app *App) Close() error {
	var errs []error
	if app.rdb != nil {
		errs = append(errs, app.rdb.Close())
	}
	errs = append(errs, app.db.Close())
	return errors.Join(errs...)
}
