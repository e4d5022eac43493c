package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/godilite/stock-advisor/internal/cachex"
	"github.com/godilite/stock-advisor/internal/config"
	handler "github.com/godilite/stock-advisor/internal/grpc"
	api "github.com/godilite/stock-advisor/internal/http"
	"github.com/godilite/stock-advisor/internal/market"
	"github.com/godilite/stock-advisor/internal/repository"
	"github.com/godilite/stock-advisor/internal/service"
	"github.com/godilite/stock-advisor/pkg/cache"
	dbbuilder "github.com/godilite/stock-advisor/pkg/database"
	grpcsrv "github.com/godilite/stock-advisor/pkg/grpc/server"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	logger     *zap.Logger
	dbPool     *sql.DB
	cache      *cache.Cache
	loader     *cachex.Loader
	httpServer *api.Server
	grpcServer *grpcsrv.Server
}

// Stocks is a StockService with the resources it holds open.
type Stocks struct {
	*service.StockService
	db *sql.DB
}

func (s *Stocks) Close() error {
	return s.db.Close()
}

// NewStocks opens the score store and builds the service on top of the
// market data client.
func NewStocks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stocks, error) {
	dbPool, err := dbbuilder.New(ctx,
		dbbuilder.WithDriver(cfg.DBDriver),
		dbbuilder.WithDataSource(cfg.DBPath),
	)
	if err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}
	logger.Info("Database pool initialized", zap.String("path", cfg.DBPath))

	snapshots := repository.NewScoreSnapshotRepository(dbPool)
	if err := snapshots.Migrate(ctx); err != nil {
		dbPool.Close()
		return nil, err
	}

	client := market.NewClient(
		market.WithBaseURL(cfg.UpstreamBaseURL),
		market.WithCookieURL(cfg.UpstreamCookieURL),
		market.WithHTTPClient(&http.Client{Timeout: cfg.UpstreamTimeout}),
		market.WithRateLimit(cfg.UpstreamRPS),
		market.WithLogger(logger),
	)

	stocks := service.NewStockService(client, snapshots, logger.Named("stock-service"),
		service.WithHistoryStart(cfg.HistoryStart),
		service.WithNewsLimit(cfg.NewsLimit),
		service.WithUpstreamTimeout(cfg.UpstreamTimeout),
	)

	return &Stocks{StockService: stocks, db: dbPool}, nil
}

func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	stocks, err := NewStocks(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var cacheClient *cache.Cache
	var cacher cachex.Cacher
	if cfg.CacheEnabled() {
		cacheClient, err = cache.New(ctx,
			cache.WithAddress(cfg.RedisAddr),
			cache.WithPassword(cfg.RedisPassword),
			cache.WithDB(cfg.RedisDB),
		)
		if err != nil {
			stocks.Close()
			return nil, fmt.Errorf("cache init failed: %w", err)
		}
		cacher = cacheClient
		logger.Info("Cache client initialized", zap.String("addr", cfg.RedisAddr))
	} else {
		logger.Info("REDIS_ADDR not set, response caching disabled")
	}
	loader := cachex.NewLoader(cacher, cfg.CacheTTL, logger)

	// release undoes what has been opened so far when a later step fails.
	release := func() {
		if cacheClient != nil {
			_ = cacheClient.Close()
		}
		_ = stocks.Close()
	}

	router := api.NewRouter(
		api.NewHandlers(stocks, loader, logger),
		logger,
		api.WithAllowedOrigins(cfg.CORSAllowedOrigins...),
	)
	httpServer, err := api.NewServer(cfg.HTTPPort, router, logger)
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to create HTTP server: %w", err)
	}

	grpcHandlers := handler.NewGRPCHandlers(stocks, loader, logger)

	grpcServer, err := grpcsrv.New(
		grpcsrv.WithPort(cfg.GRPCPort),
		grpcsrv.WithLogger(logger),
		grpcsrv.WithReflection(cfg.GRPCReflectionEnabled),
		grpcsrv.WithLogging(true),
		grpcsrv.WithRecovery(true),
	)
	if err != nil {
		if cerr := httpServer.Close(); cerr != nil {
			logger.Warn("failed to close HTTP listener", zap.Error(cerr))
		}
		release()
		return nil, fmt.Errorf("failed to create gRPC server: %w", err)
	}

	handler.RegisterStockAdvisorServer(grpcServer, grpcHandlers)

	return &App{
		logger:     logger,
		dbPool:     stocks.db,
		cache:      cacheClient,
		loader:     loader,
		httpServer: httpServer,
		grpcServer: grpcServer,
	}, nil
}

// Run starts the application and blocks until a shutdown signal is received.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	a.logger.Info("application starting")

	a.httpServer.Start()
	a.grpcServer.Start()

	<-ctx.Done()

	a.logger.Info("application shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.grpcServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("grpc shutdown: %w", err))
	}

	a.loader.Wait()

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if err := a.dbPool.Close(); err != nil {
		a.logger.Error("database shutdown error", zap.Error(err))
	}

	if len(errs) == 0 {
		a.logger.Info("graceful shutdown completed successfully")
	}

	_ = a.logger.Sync()
	return errors.Join(errs...)
}
