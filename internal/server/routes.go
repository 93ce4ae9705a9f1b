package server

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/amm-validator/internal/constants"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = JSONErrorHandler(h.Logger)

	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)

	quote := v1.Group("/quote")
	quote.GET("/swap", h.QuoteSwap)
	quote.GET("/deposit", h.QuoteDeposit)
	quote.GET("/withdraw", h.QuoteWithdraw)

	actions := v1.Group("/actions")
	actions.POST("/decode", h.DecodeAction)
	actions.POST("/encode", h.EncodeAction)

	// Validation is the expensive path, limited per client IP
	limit, burst := cfg.ValidateRate, cfg.ValidateBurst
	if limit <= 0 {
		limit = constants.ValidateRatePerSec
	}
	if burst <= 0 {
		burst = constants.ValidateRateBurst
	}
	v1.POST("/validate", h.Validate, middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(limit),
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	})))

	profileGroup := v1.Group("/profiles")
	profileGroup.GET("", h.ProfilesList)
	profileGroup.GET("/:key", h.ProfilesGet)
	profileGroup.PUT("/:key", h.ProfilesPut)
	profileGroup.DELETE("/:key", h.ProfilesDelete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.ErrNotFound
	})
}
