package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SscSPs/fx_rates_proxy/internal/adapters/frankfurter"
	portsrepo "github.com/SscSPs/fx_rates_proxy/internal/core/ports/repositories"
	"github.com/SscSPs/fx_rates_proxy/internal/core/services"
	"github.com/SscSPs/fx_rates_proxy/internal/handlers"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
	"github.com/SscSPs/fx_rates_proxy/internal/middleware"
	"github.com/SscSPs/fx_rates_proxy/internal/platform/config"
	"github.com/SscSPs/fx_rates_proxy/internal/repositories/database/pgsql"
	"github.com/SscSPs/fx_rates_proxy/internal/repositories/database/sqlite"
	"github.com/SscSPs/fx_rates_proxy/pkg/database"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// @title FX Rates Proxy API
// @version 1.0
// @description Cache-through proxy for historical daily exchange rates.

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("Server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	provider := frankfurter.NewClient(
		cfg.RateProviderBaseURL,
		frankfurter.WithTimeout(cfg.RateProviderTimeout),
		frankfurter.WithLogger(logger),
	)
	recorder := metrics.NewRecorder()
	container := services.NewServiceContainer(cfg, repos, provider, recorder)

	rateLimiter, closeLimiter, err := middleware.NewLimiter(cfg.RateLimit, cfg.RateLimitRedisURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeLimiter(); err != nil {
			logger.Error("Error closing rate limiter store", slog.String("error", err.Error()))
		}
	}()

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery, cors)
	r.Use(
		middleware.StructuredLoggingMiddleware(logger),
		gin.Recovery(),
		middleware.CORS(cfg.CORSAllowedOrigins),
	)

	if err := r.SetTrustedProxies(nil); err != nil {
		return err
	}

	handlers.RegisterRoutes(r, cfg, container, recorder, rateLimiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects the configured rate store and returns its repositories.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (portsrepo.RepositoryProvider, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		// Initialize database connection pool (for application use)
		dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL, cfg.EnableDBCheck)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		logger.Info("Database connection pool established.")

		logger.Info("Running database migrations...")
		if err := database.RunPostgresMigrations(cfg.DatabaseURL, cfg.MigrationsPath, logger); err != nil {
			database.ClosePgxPool(dbPool)
			return portsrepo.RepositoryProvider{}, err
		}
		return pgsql.NewRepositoryProvider(dbPool), nil

	default:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return portsrepo.RepositoryProvider{}, err
		}
		logger.Info("SQLite rate store opened", slog.String("path", cfg.SQLitePath))
		return sqlite.NewRepositoryProvider(db), nil
	}
}
