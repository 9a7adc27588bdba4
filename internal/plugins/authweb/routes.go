package authweb

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/jadihebat/platform/internal/middleware"
)

// RegisterRoutes sets up the authentication routes. Login is rate limited
// per IP to slow down credential stuffing; the register endpoint shares the
// limiter since both hit the identity provider with attacker-chosen input.
func RegisterRoutes(e *echo.Echo, h *Handler, rdb *redis.Client) {
	limiter := middleware.RateLimit(rdb, "auth", 5, 15*time.Minute)

	e.POST("/login", h.Login, limiter)
	e.POST("/register", h.Register, limiter)
	e.POST("/logout", h.Logout)

	e.GET("/api/session", h.SessionInfo)
}
