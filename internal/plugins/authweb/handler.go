package authweb

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/apperror"
	"github.com/jadihebat/platform/internal/identity"
	"github.com/jadihebat/platform/internal/middleware"
)

// landingAfterLogin is where a fresh login lands.
const landingAfterLogin = "/my-courses"

// Handler handles the authentication HTTP endpoints. Handlers are thin:
// bind request, call the provider, manage cookies, respond.
type Handler struct {
	provider identity.Provider
	admin    *identity.AdminClient
	secure   bool
}

// NewHandler creates the auth handler. secure controls the Secure flag on
// issued cookies; pass true in production.
func NewHandler(provider identity.Provider, admin *identity.AdminClient, secure bool) *Handler {
	return &Handler{provider: provider, admin: admin, secure: secure}
}

// Login exchanges credentials for tokens and establishes the cookie session
// (POST /login). On success the browser is redirected to the course list;
// failures return JSON the login form renders inline.
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid login request")
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)

	if email == "" || password == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "email and password are required",
		})
	}
	if !emailRe.MatchString(email) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid email format",
		})
	}

	ctx := c.Request().Context()

	pair, err := h.provider.Login(ctx, email, password)
	if err != nil {
		if apperror.SafeCode(err) == http.StatusUnauthorized {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "invalid email or password",
			})
		}
		return err
	}

	// Resolve the identity once so the display cookie is populated without
	// waiting for the next request. A failure here is not fatal: the session
	// middleware will issue the cookie on the next page load.
	display := identity.Display{}
	if result := h.provider.FetchUser(ctx, pair.AccessToken); result.User != nil {
		display = result.User.Display()
	}

	middleware.SetSessionCookies(c, *pair, display, h.secure)

	slog.Info("user logged in", slog.String("email", email))

	return c.Redirect(http.StatusSeeOther, landingAfterLogin)
}

// Register provisions a new account at the identity provider
// (POST /register). The account is created with the configured default
// role; the user logs in afterwards, no tokens are issued here.
func (h *Handler) Register(c echo.Context) error {
	// Already logged in? Nothing to register.
	if middleware.IsLoggedIn(c) {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid registration request")
	}

	email := strings.TrimSpace(req.Email)
	password := strings.TrimSpace(req.Password)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	if email == "" || password == "" || firstName == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "name, email and password are required",
		})
	}
	if len(password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "password must be at least 8 characters",
		})
	}
	if !emailRe.MatchString(email) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid email format",
		})
	}
	if lastName == "" {
		lastName = "---"
	}

	err := h.admin.CreateUser(c.Request().Context(), identity.CreateUserInput{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	})
	if err != nil {
		if apperror.SafeCode(err) == http.StatusConflict {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "an account with this email already exists",
			})
		}
		return err
	}

	slog.Info("user registered", slog.String("email", email))

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "registration successful, please log in",
	})
}

// Logout tears down the session (POST /logout): all three cookies are
// cleared, then the token is invalidated upstream on a best-effort basis.
func (h *Handler) Logout(c echo.Context) error {
	token := middleware.AuthToken(c)

	middleware.ClearSessionCookies(c, h.secure)

	if token != "" {
		if err := h.provider.Logout(c.Request().Context(), token); err != nil {
			// The cookies are gone either way; the provider token will
			// expire on its own.
			slog.Warn("provider logout failed", slog.Any("error", err))
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}

// SessionInfo returns the display identity for the current session
// (GET /api/session). The auth cookies are httpOnly, so browser scripts
// call this instead of reading cookies.
func (h *Handler) SessionInfo(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error": "Unauthorized",
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user": user.Display(),
	})
}
