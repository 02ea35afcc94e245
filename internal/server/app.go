// Package server wires the giftauth components together and runs them: the
// JSON API, the gRPC health endpoint and the periodic reset-token cleanup.
// It handles graceful shutdown on SIGINT/SIGTERM/SIGQUIT.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/giftauth/internal/logging"
	"github.com/dmitrijs2005/giftauth/internal/ratelimit"
	"github.com/dmitrijs2005/giftauth/internal/server/audit"
	"github.com/dmitrijs2005/giftauth/internal/server/auth"
	"github.com/dmitrijs2005/giftauth/internal/server/config"
	"github.com/dmitrijs2005/giftauth/internal/server/httpserver"
	"github.com/dmitrijs2005/giftauth/internal/server/notify"
	"github.com/dmitrijs2005/giftauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftauth/internal/server/services"
	"github.com/dmitrijs2005/giftauth/internal/server/storage"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/giftauth/internal/server/grpc"
)

const (
	dispatcherBuffer  = 256
	dispatcherTimeout = 30 * time.Second
	pruneInterval     = time.Minute
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	redis       *redis.Client
	memStore    *ratelimit.MemoryStore
	dispatcher  *notify.Dispatcher
	httpServer  *httpserver.Server
	maintenance *services.MaintenanceService
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, repomanager: rm}

	var store ratelimit.Store
	if c.RedisAddr != "" {
		app.redis = redis.NewClient(&redis.Options{Addr: c.RedisAddr, Password: c.RedisPassword})
		store = ratelimit.NewRedisStore(app.redis, "giftauth:ratelimit:")
	} else {
		app.memStore = ratelimit.NewMemoryStore()
		store = app.memStore
	}
	limiter := ratelimit.New(store, nil, logger.With("module", "ratelimit"))

	tokens := auth.NewTokenService([]byte(c.AccessTokenSecret), []byte(c.RefreshTokenSecret),
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)

	app.dispatcher = notify.NewDispatcher(logger.With("module", "dispatcher"), dispatcherBuffer, dispatcherTimeout)
	mailer := notify.NewLogMailer(logger)
	sink := audit.NewLogSink(logger)

	avatars := storage.NewAvatarResolver(storage.S3Options{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		Expires:      c.AvatarURLValidityDuration,
	})

	authService := services.NewAuthService(db, rm, tokens, mailer, app.dispatcher, sink, logger, c)
	giftService := services.NewGiftService(db, rm, logger)
	lookupService := services.NewLookupService(db, rm, avatars, logger)
	app.maintenance = services.NewMaintenanceService(db, rm, logger)

	app.httpServer = httpserver.NewServer(
		httpserver.Options{Address: c.EndpointAddrHTTP, CheckOrigin: c.CheckOrigin},
		authService, giftService, lookupService, tokens, limiter, logger,
	)

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.db, 10*time.Second)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// pruneRateLimits drops expired in-memory windows so the map does not grow
// with every client ever seen.
func (app *App) pruneRateLimits(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := app.memStore.Prune(now); n > 0 {
				app.logger.Debug(ctx, "pruned rate limit windows", "count", n)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err.Error())
		app.close(ctx)
		return
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.CleanupInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.maintenance.RunPeriodic(ctx, app.config.CleanupInterval)
		}()
	}

	if app.memStore != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.pruneRateLimits(ctx)
		}()
	}

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	app.dispatcher.Close()
	if dropped := app.dispatcher.Dropped(); dropped > 0 {
		app.logger.Warn(ctx, "background tasks dropped", "count", dropped)
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err.Error())
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}

	app.logger.Info(ctx, "App stopped")
}
