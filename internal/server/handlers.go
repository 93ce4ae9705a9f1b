package server

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/amm-validator/internal/audit"
	"github.com/aman-zulfiqar/amm-validator/internal/engine"
	"github.com/aman-zulfiqar/amm-validator/internal/profiles"
	"github.com/aman-zulfiqar/amm-validator/internal/security"
)

// ProfileStore is the subset of profiles.Store the handlers use.
type ProfileStore interface {
	Get(ctx context.Context, key string) (*profiles.Profile, error)
	Resolve(ctx context.Context, key string, fallback security.Config) (security.Config, error)
	List(ctx context.Context) ([]*profiles.Profile, error)
	Upsert(ctx context.Context, key string, cfg security.Config) (*profiles.Profile, error)
	Delete(ctx context.Context, key string) error
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Engine   *engine.Engine // Evaluates transitions under the default thresholds
	Profiles ProfileStore   // Per-pool thresholds (optional)
	Audit    audit.Sink     // Decision trail (optional)
	DevMode  bool           // Enable detailed error responses in development
	Logger   *logrus.Logger // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) warn(err error, msg string) {
	if h.Logger != nil {
		h.Logger.WithError(err).Warn(msg)
	}
}

// Health reports liveness and the state of the optional backends. A failing
// audit sink does not make the service unhealthy.
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true, Audit: "disabled", Profiles: "disabled"}
	if h.Profiles != nil {
		resp.Profiles = "enabled"
	}
	if h.Audit != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		resp.Audit = "ok"
		if err := h.Audit.Ping(ctx); err != nil {
			h.warn(err, "audit ping failed")
			resp.Audit = "unavailable"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// baseConfig copies the engine's thresholds so a request can overlay them.
func (h *Handlers) baseConfig() security.Config {
	cfg := h.Engine.Config()
	cfg.MinSwapAmounts = maps.Clone(cfg.MinSwapAmounts)
	return cfg
}

func (h *Handlers) profilesDisabled(c echo.Context) error {
	return h.err(c, http.StatusServiceUnavailable, "profiles are not configured", nil)
}

// ProfilesList returns every stored profile
func (h *Handlers) ProfilesList(c echo.Context) error {
	if h.Profiles == nil {
		return h.profilesDisabled(c)
	}
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Profiles.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list profiles", err.Error())
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// ProfilesGet retrieves a profile by key
// Returns 404 if it doesn't exist
func (h *Handlers) ProfilesGet(c echo.Context) error {
	if h.Profiles == nil {
		return h.profilesDisabled(c)
	}
	key := c.Param("key")
	if err := profiles.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Profiles.Get(ctx, key)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "profile not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to get profile", err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

// ProfilesPut stores the thresholds for key. Fields missing from the body
// keep the service defaults.
func (h *Handlers) ProfilesPut(c echo.Context) error {
	if h.Profiles == nil {
		return h.profilesDisabled(c)
	}
	key := c.Param("key")
	if err := profiles.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	cfg := h.baseConfig()
	if err := json.NewDecoder(c.Request().Body).Decode(&cfg); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid config", err.Error())
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	out, err := h.Profiles.Upsert(ctx, key, cfg)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to store profile", err.Error())
	}
	return c.JSON(http.StatusOK, out)
}

// ProfilesDelete removes a profile by key
// Returns 204 No Content on successful deletion
func (h *Handlers) ProfilesDelete(c echo.Context) error {
	if h.Profiles == nil {
		return h.profilesDisabled(c)
	}
	key := c.Param("key")
	if err := profiles.ValidateKey(key); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid key", map[string]any{"key": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Profiles.Delete(ctx, key); err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to delete profile", err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
