package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/identity"
)

// Cookie names for the three session cookies. All three are set together on
// login/refresh and cleared together on logout or definitive auth failure.
const (
	// CookieAuth holds the short-lived access token.
	CookieAuth = "jadihebat_auth"

	// CookieRefresh holds the long-lived refresh token.
	CookieRefresh = "jadihebat_refresh"

	// CookieUser holds the JSON-encoded display identity (first name, last
	// name, avatar). Never contains id or email.
	CookieUser = "jadihebat_user"
)

// Cookie lifetimes. These must match the provider's token TTL configuration;
// a longer cookie would present expired tokens, a shorter one would discard
// valid ones.
const (
	// AccessTokenTTL matches the provider's access token TTL.
	AccessTokenTTL = 30 * time.Minute

	// RefreshTokenTTL matches the provider's refresh token TTL. The display
	// cookie shares this lifetime.
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Context keys for session data. Downstream handlers read these through the
// exported getters; they never reconstruct identity from cookies because the
// middleware's provider-revalidated data is authoritative.
const (
	contextKeyUser      = "session_user"
	contextKeyAuthToken = "session_auth_token"
)

// loginPath is where anonymous visitors to protected routes are sent.
const loginPath = "/login"

// landingPath is where logged-in visitors to login/register pages are sent.
const landingPath = "/admin/lessons"

// Session returns the middleware that resolves the visitor's identity on
// every request. It reads the auth cookies, validates the access token with
// the identity provider, transparently refreshes an expired token, keeps the
// cookies in sync, enforces route-access policy, and publishes the resolved
// identity into the request context.
//
// Failure handling is deliberately asymmetric. A 401 from the provider with
// no recoverable refresh path tears the whole session down (all three
// cookies cleared). Any other provider failure, including network errors and
// timeouts, is transient: the request is served anonymously but the cookies
// are left alone so the session recovers once the provider does.
//
// secure controls the Secure flag on all cookies; pass true in production.
func Session(provider identity.Provider, secure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			accessToken := readCookie(c, CookieAuth)
			refreshToken := readCookie(c, CookieRefresh)

			var user *identity.Verified
			currentToken := accessToken

			if accessToken == "" {
				// No credential at all. A leftover display cookie is stale;
				// clear it so the UI doesn't greet a logged-out visitor.
				clearCookie(c, CookieUser, secure)
			} else {
				result := provider.FetchUser(ctx, accessToken)

				switch {
				case result.User != nil:
					user = result.User

				case result.Status == http.StatusUnauthorized && refreshToken != "":
					user, currentToken = refreshSession(c, provider, refreshToken, secure)

				case result.Status == http.StatusUnauthorized:
					// Expired token and nothing to renew it with.
					clearSessionCookies(c, secure)
					currentToken = ""

				default:
					// Provider error (403, 5xx) or network failure (status 0).
					// The token may still be valid; keep the cookies and serve
					// this request anonymously.
					slog.Warn("identity check failed, preserving session",
						slog.Int("status", result.Status),
						slog.String("path", c.Request().URL.Path),
					)
				}
			}

			if user != nil {
				// Re-issue the display cookie from the freshly resolved
				// identity so avatar or name changes show up immediately.
				setUserCookie(c, user.Display(), secure)
			} else if currentToken == "" {
				clearCookie(c, CookieUser, secure)
			}

			c.Set(contextKeyUser, user)
			c.Set(contextKeyAuthToken, currentToken)

			loggedIn := user != nil && currentToken != ""

			// Route policy runs before the downstream handler and may
			// short-circuit the request entirely.
			if decision := routePolicy(c.Request().URL.Path, loggedIn); decision.Redirect {
				return c.Redirect(decision.Status, decision.Location)
			}

			return next(c)
		}
	}
}

// refreshSession runs the refresh flow: exchange the refresh token for a new
// pair, persist the new cookies, then revalidate the new access token. Any
// failure along the way, including a fetch failure after a nominally
// successful refresh, clears the whole session; a provider that just issued
// a token and won't honor it is not a state worth preserving.
func refreshSession(c echo.Context, provider identity.Provider, refreshToken string, secure bool) (*identity.Verified, string) {
	ctx := c.Request().Context()

	pair, err := provider.Refresh(ctx, refreshToken)
	if err != nil {
		slog.Info("token refresh failed, clearing session",
			slog.Any("error", err),
		)
		clearSessionCookies(c, secure)
		return nil, ""
	}

	setCookie(c, CookieAuth, pair.AccessToken, AccessTokenTTL, secure)
	if pair.RefreshToken != "" {
		setCookie(c, CookieRefresh, pair.RefreshToken, RefreshTokenTTL, secure)
	}

	result := provider.FetchUser(ctx, pair.AccessToken)
	if result.User == nil {
		clearSessionCookies(c, secure)
		return nil, ""
	}

	return result.User, pair.AccessToken
}

// --- Exported getters for handlers and other packages ---

// CurrentUser returns the provider-verified identity for this request, or
// nil when the visitor is anonymous. The returned value is server-only;
// expose Display() to clients, never the Verified struct.
func CurrentUser(c echo.Context) *identity.Verified {
	user, ok := c.Get(contextKeyUser).(*identity.Verified)
	if !ok {
		return nil
	}
	return user
}

// AuthToken returns the access token that survived this request's
// validation cycle, or empty when none did.
func AuthToken(c echo.Context) string {
	token, ok := c.Get(contextKeyAuthToken).(string)
	if !ok {
		return ""
	}
	return token
}

// IsLoggedIn reports whether the request carries a fully validated session.
// Both the identity and the token are required; either alone can be left
// over from a partially failed refresh.
func IsLoggedIn(c echo.Context) bool {
	return CurrentUser(c) != nil && AuthToken(c) != ""
}

// RequireLogin is a guard for API routes that are not covered by the
// protected-prefix table. Returns 401 instead of redirecting, since API
// consumers expect JSON.
func RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsLoggedIn(c) {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "Unauthorized",
			})
		}
		return next(c)
	}
}

// --- Cookie helpers ---

// readCookie returns the named cookie's value, or empty when absent.
func readCookie(c echo.Context, name string) string {
	cookie, err := c.Cookie(name)
	if err != nil || cookie == nil {
		return ""
	}
	return cookie.Value
}

// setCookie issues a session cookie with the shared policy: path /,
// httpOnly, SameSite=Lax, Secure in production.
func setCookie(c echo.Context, name, value string, ttl time.Duration, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setUserCookie serializes the display identity into the user cookie. The
// cookie is httpOnly: server-side loads read it, browser scripts use the
// /api/session endpoint instead.
func setUserCookie(c echo.Context, display identity.Display, secure bool) {
	payload, err := json.Marshal(display)
	if err != nil {
		// A three-string struct cannot fail to marshal; guard anyway so a
		// cookie problem never breaks the page.
		slog.Warn("failed to encode display cookie", slog.Any("error", err))
		return
	}
	setCookie(c, CookieUser, url.QueryEscape(string(payload)), RefreshTokenTTL, secure)
}

// clearCookie expires the named cookie immediately.
func clearCookie(c echo.Context, name string, secure bool) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies removes all three session cookies together. Partial
// clears leave the browser in a mixed state the middleware would then have
// to untangle on the next request.
func clearSessionCookies(c echo.Context, secure bool) {
	clearCookie(c, CookieAuth, secure)
	clearCookie(c, CookieRefresh, secure)
	clearCookie(c, CookieUser, secure)
}

// SetSessionCookies issues all three cookies after a successful login. Used
// by the login handler; the middleware path issues them itself during refresh.
func SetSessionCookies(c echo.Context, pair identity.TokenPair, display identity.Display, secure bool) {
	setCookie(c, CookieAuth, pair.AccessToken, AccessTokenTTL, secure)
	if pair.RefreshToken != "" {
		setCookie(c, CookieRefresh, pair.RefreshToken, RefreshTokenTTL, secure)
	}
	setUserCookie(c, display, secure)
}

// ClearSessionCookies removes all session cookies. Used by the logout handler.
func ClearSessionCookies(c echo.Context, secure bool) {
	clearSessionCookies(c, secure)
}
