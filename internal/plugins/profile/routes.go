package profile

import (
	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// RegisterRoutes sets up profile routes. Everything is per-user.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	api := e.Group("/api", middleware.RequireLogin)

	api.GET("/profile", h.Me)
	api.POST("/upload-avatar", h.UploadAvatar)
}
