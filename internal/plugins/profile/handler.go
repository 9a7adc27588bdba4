package profile

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/middleware"
)

// allowedAvatarTypes is the accepted avatar content type set.
var allowedAvatarTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// AvatarUpdater persists the new avatar URL against the identity provider.
// *identity.AdminClient implements it.
type AvatarUpdater interface {
	SetUserAvatar(ctx context.Context, userID, avatarURL string) error
}

// Handler handles HTTP requests for the current user's profile. All routes
// require a session.
type Handler struct {
	store         AvatarStore
	identity      AvatarUpdater
	maxAvatarSize int64
	logger        *slog.Logger
}

// NewHandler creates a new profile handler. store may be nil when object
// storage is not configured; uploads then return an explicit error instead
// of failing inside the SDK.
func NewHandler(store AvatarStore, updater AvatarUpdater, maxAvatarSize int64, logger *slog.Logger) *Handler {
	return &Handler{
		store:         store,
		identity:      updater,
		maxAvatarSize: maxAvatarSize,
		logger:        logger,
	}
}

// Me returns the authenticated user's full profile (GET /api/profile).
// This is the only place the verified identity, email included, is served
// to the client; the display cookie stays name-and-avatar only.
func (h *Handler) Me(c echo.Context) error {
	user := middleware.CurrentUser(c)
	return c.JSON(http.StatusOK, map[string]any{
		"user": user,
	})
}

// UploadAvatar replaces the user's avatar (POST /api/upload-avatar).
// Multipart field name is "avatar". Size and type limits are enforced
// before anything touches object storage.
func (h *Handler) UploadAvatar(c echo.Context) error {
	if h.store == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"error": "Avatar uploads are not available",
		})
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "No file provided",
		})
	}
	if fileHeader.Size == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "No file provided",
		})
	}
	if fileHeader.Size > h.maxAvatarSize {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "File too large. Maximum size is 2MB.",
		})
	}

	contentType := strings.ToLower(fileHeader.Header.Get("Content-Type"))
	if !allowedAvatarTypes[contentType] {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "Invalid file type. Only PNG, JPG, and WebP are allowed.",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	avatarURL, err := h.store.Upload(ctx, file, contentType)
	if err != nil {
		h.logger.Error("avatar upload failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload avatar")
	}

	if err := h.identity.SetUserAvatar(ctx, user.ID, avatarURL); err != nil {
		h.logger.Error("avatar profile update failed",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update user profile")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Avatar uploaded successfully",
		"avatarUrl": avatarURL,
	})
}
