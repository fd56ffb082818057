package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/fx_rates_proxy/cmd/docs"
	portssvc "github.com/SscSPs/fx_rates_proxy/internal/core/ports/services"
	"github.com/SscSPs/fx_rates_proxy/internal/metrics"
	"github.com/SscSPs/fx_rates_proxy/internal/middleware"
	"github.com/SscSPs/fx_rates_proxy/internal/platform/config"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/ulule/limiter/v3"
)

// RegisterRoutes sets up all application routes, injecting dependencies using interfaces.
// rateLimiter may be nil to leave /api/v1 unthrottled.
func RegisterRoutes(
	r *gin.Engine,
	cfg *config.Config,
	services *portssvc.ServiceContainer,
	recorder *metrics.Recorder,
	rateLimiter *limiter.Limiter,
) {
	registerValidators()

	r.GET("/health", healthCheck(cfg, services.Health))
	r.GET("/metrics", gin.WrapH(recorder.Handler()))

	setupAPIV1Routes(r, cfg, services, rateLimiter)

	// Swagger routes (typically public or conditionally available)
	setupSwaggerRoutes(r, cfg)
}

// setupAPIV1Routes configures the /api/v1 group and delegates to specific entity route registrations
func setupAPIV1Routes(
	r *gin.Engine,
	cfg *config.Config,
	service *portssvc.ServiceContainer,
	rateLimiter *limiter.Limiter,
) {
	v1 := r.Group("/api/v1")
	if rateLimiter != nil {
		v1.Use(middleware.RateLimit(rateLimiter))
	}

	registerCurrencyRoutes(v1, service.Currency)
	registerExchangeRateRoutes(v1, service.ExchangeRate, service.Currency, rateQueryDefaults{
		Base:         cfg.DefaultBase,
		Symbols:      cfg.DefaultSymbols,
		MaxRangeDays: cfg.MaxRangeDays,
	})
}

// healthCheck godoc
// @Summary Show the status of server.
// @Description Reports whether the server is up and, when enabled, whether the rate store answers.
// @Tags root
// @Produce plain
// @Success 200 {string} string "OK"
// @Failure 503 {object} map[string]string "Rate store unreachable"
// @Router /health [get]
func healthCheck(cfg *config.Config, health portssvc.HealthSvc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.EnableDBCheck && health != nil {
			if err := health.Check(c.Request.Context()); err != nil {
				middleware.GetLoggerFromCtx(c.Request.Context()).Error("Health check failed", slog.String("error", err.Error()))
				c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rate store unreachable"})
				return
			}
		}
		c.String(http.StatusOK, "OK")
	}
}

// setupSwaggerRoutes configures the swagger documentation routes
func setupSwaggerRoutes(r *gin.Engine, cfg *config.Config) {
	if cfg.IsProduction {
		//no swagger in prod
		return
	}
	docs.SwaggerInfo.BasePath = "/api/v1"
	swagger := r.Group("/swagger")
	swagger.GET("/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
