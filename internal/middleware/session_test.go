package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/jadihebat/platform/internal/identity"
)

// --- Mock Provider ---

// mockProvider implements identity.Provider for testing.
type mockProvider struct {
	fetchUserFn func(ctx context.Context, accessToken string) identity.UserResult
	refreshFn   func(ctx context.Context, refreshToken string) (*identity.TokenPair, error)
	loginFn     func(ctx context.Context, email, password string) (*identity.TokenPair, error)
	logoutFn    func(ctx context.Context, accessToken string) error
}

func (m *mockProvider) FetchUser(ctx context.Context, accessToken string) identity.UserResult {
	if m.fetchUserFn != nil {
		return m.fetchUserFn(ctx, accessToken)
	}
	return identity.UserResult{Status: http.StatusUnauthorized}
}

func (m *mockProvider) Refresh(ctx context.Context, refreshToken string) (*identity.TokenPair, error) {
	if m.refreshFn != nil {
		return m.refreshFn(ctx, refreshToken)
	}
	return nil, errors.New("refresh not configured")
}

func (m *mockProvider) Login(ctx context.Context, email, password string) (*identity.TokenPair, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, errors.New("login not configured")
}

func (m *mockProvider) Logout(ctx context.Context, accessToken string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, accessToken)
	}
	return nil
}

// --- Helpers ---

var testUser = &identity.Verified{
	ID:        "u-1",
	Email:     "budi@example.com",
	FirstName: "Budi",
	LastName:  "Santoso",
	Avatar:    "https://cdn.example.com/avatars/budi.png",
}

// runSession sends one request through the Session middleware into a probe
// handler and reports what the handler observed plus the response.
func runSession(t *testing.T, provider identity.Provider, path string, cookies ...*http.Cookie) (*httptest.ResponseRecorder, *identity.Verified, string, bool) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seenUser *identity.Verified
	var seenToken string
	handlerRan := false

	handler := Session(provider, false)(func(c echo.Context) error {
		handlerRan = true
		seenUser = CurrentUser(c)
		seenToken = AuthToken(c)
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("session middleware returned error: %v", err)
	}
	return rec, seenUser, seenToken, handlerRan
}

// cookieByName finds a Set-Cookie entry in the response, nil when absent.
func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func authCookie(value string) *http.Cookie {
	return &http.Cookie{Name: CookieAuth, Value: value}
}

func refreshCookie(value string) *http.Cookie {
	return &http.Cookie{Name: CookieRefresh, Value: value}
}

// --- Tests ---

func TestSession_ValidToken(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			if token != "good-token" {
				t.Errorf("provider received token %q, want good-token", token)
			}
			return identity.UserResult{User: testUser, Status: http.StatusOK}
		},
	}

	rec, user, token, ran := runSession(t, provider, "/", authCookie("good-token"))

	if !ran {
		t.Fatal("downstream handler did not run")
	}
	if user == nil || user.ID != testUser.ID {
		t.Fatalf("context user = %+v, want %+v", user, testUser)
	}
	if token != "good-token" {
		t.Errorf("context token = %q, want good-token", token)
	}

	// Display cookie is re-issued from the fresh identity.
	userCk := cookieByName(rec, CookieUser)
	if userCk == nil {
		t.Fatal("user cookie not re-issued")
	}
	decoded, err := url.QueryUnescape(userCk.Value)
	if err != nil {
		t.Fatalf("user cookie is not URL-encoded: %v", err)
	}
	var display identity.Display
	if err := json.Unmarshal([]byte(decoded), &display); err != nil {
		t.Fatalf("user cookie is not JSON: %v", err)
	}
	if display.FirstName != "Budi" || display.LastName != "Santoso" {
		t.Errorf("display = %+v, want Budi Santoso", display)
	}

	// The display cookie must never leak the verified identity.
	for _, fragment := range []string{testUser.ID, testUser.Email} {
		if strings.Contains(decoded, fragment) {
			t.Errorf("display cookie contains %q", fragment)
		}
	}
}

func TestSession_NoCookies(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			t.Error("provider should not be called without an auth cookie")
			return identity.UserResult{}
		},
	}

	rec, user, token, ran := runSession(t, provider, "/")

	if !ran {
		t.Fatal("downstream handler did not run")
	}
	if user != nil || token != "" {
		t.Errorf("anonymous request resolved user=%v token=%q", user, token)
	}

	// A stale display cookie is cleared even with no credentials.
	userCk := cookieByName(rec, CookieUser)
	if userCk == nil || userCk.MaxAge != -1 {
		t.Errorf("user cookie not cleared: %+v", userCk)
	}
}

func TestSession_RefreshFlow(t *testing.T) {
	refreshCalled := false
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			switch token {
			case "expired":
				return identity.UserResult{Status: http.StatusUnauthorized}
			case "new":
				return identity.UserResult{User: testUser, Status: http.StatusOK}
			default:
				t.Errorf("unexpected token %q", token)
				return identity.UserResult{Status: http.StatusUnauthorized}
			}
		},
		refreshFn: func(ctx context.Context, rt string) (*identity.TokenPair, error) {
			refreshCalled = true
			if rt != "r-token" {
				t.Errorf("refresh received %q, want r-token", rt)
			}
			return &identity.TokenPair{AccessToken: "new", RefreshToken: "new-r"}, nil
		},
	}

	rec, user, token, ran := runSession(t, provider, "/",
		authCookie("expired"), refreshCookie("r-token"))

	if !refreshCalled {
		t.Fatal("refresh was not attempted")
	}
	if !ran {
		t.Fatal("downstream handler did not run")
	}
	if user == nil || user.ID != testUser.ID {
		t.Fatalf("refreshed session has no user: %+v", user)
	}
	if token != "new" {
		t.Errorf("context token = %q, want new", token)
	}

	authCk := cookieByName(rec, CookieAuth)
	if authCk == nil || authCk.Value != "new" {
		t.Fatalf("auth cookie = %+v, want value new", authCk)
	}
	if authCk.MaxAge != int(AccessTokenTTL.Seconds()) {
		t.Errorf("auth cookie MaxAge = %d, want %d", authCk.MaxAge, int(AccessTokenTTL.Seconds()))
	}

	refCk := cookieByName(rec, CookieRefresh)
	if refCk == nil || refCk.Value != "new-r" {
		t.Fatalf("refresh cookie = %+v, want value new-r", refCk)
	}
	if refCk.MaxAge != int(RefreshTokenTTL.Seconds()) {
		t.Errorf("refresh cookie MaxAge = %d, want %d", refCk.MaxAge, int(RefreshTokenTTL.Seconds()))
	}

	userCk := cookieByName(rec, CookieUser)
	if userCk == nil || userCk.MaxAge != int(RefreshTokenTTL.Seconds()) {
		t.Errorf("user cookie not re-issued with refresh TTL: %+v", userCk)
	}
}

func TestSession_RefreshPreservesOldRefreshToken(t *testing.T) {
	// Providers may rotate only the access token. The old refresh cookie
	// must then survive untouched.
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			if token == "new" {
				return identity.UserResult{User: testUser, Status: http.StatusOK}
			}
			return identity.UserResult{Status: http.StatusUnauthorized}
		},
		refreshFn: func(ctx context.Context, rt string) (*identity.TokenPair, error) {
			return &identity.TokenPair{AccessToken: "new"}, nil
		},
	}

	rec, _, _, _ := runSession(t, provider, "/",
		authCookie("expired"), refreshCookie("r-token"))

	if ck := cookieByName(rec, CookieRefresh); ck != nil {
		t.Errorf("refresh cookie was rewritten: %+v", ck)
	}
}

func TestSession_RefreshFailureClearsEverything(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			return identity.UserResult{Status: http.StatusUnauthorized}
		},
		refreshFn: func(ctx context.Context, rt string) (*identity.TokenPair, error) {
			return nil, errors.New("refresh token revoked")
		},
	}

	rec, user, token, ran := runSession(t, provider, "/",
		authCookie("expired"), refreshCookie("dead"))

	if !ran {
		t.Fatal("downstream handler did not run")
	}
	if user != nil || token != "" {
		t.Errorf("failed refresh left session data: user=%v token=%q", user, token)
	}

	for _, name := range []string{CookieAuth, CookieRefresh, CookieUser} {
		ck := cookieByName(rec, name)
		if ck == nil || ck.MaxAge != -1 || ck.Value != "" {
			t.Errorf("cookie %s not cleared: %+v", name, ck)
		}
	}
}

func TestSession_ExpiredWithoutRefreshClearsEverything(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			return identity.UserResult{Status: http.StatusUnauthorized}
		},
	}

	rec, user, _, ran := runSession(t, provider, "/", authCookie("expired"))

	if !ran {
		t.Fatal("downstream handler did not run")
	}
	if user != nil {
		t.Errorf("expired session resolved a user: %+v", user)
	}
	for _, name := range []string{CookieAuth, CookieRefresh, CookieUser} {
		ck := cookieByName(rec, name)
		if ck == nil || ck.MaxAge != -1 {
			t.Errorf("cookie %s not cleared: %+v", name, ck)
		}
	}
}

func TestSession_PostRefreshFetchFailureClearsEverything(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			// Even the freshly issued token is rejected.
			return identity.UserResult{Status: http.StatusUnauthorized}
		},
		refreshFn: func(ctx context.Context, rt string) (*identity.TokenPair, error) {
			return &identity.TokenPair{AccessToken: "new", RefreshToken: "new-r"}, nil
		},
	}

	rec, user, token, _ := runSession(t, provider, "/",
		authCookie("expired"), refreshCookie("r-token"))

	if user != nil || token != "" {
		t.Errorf("unusable refreshed session kept data: user=%v token=%q", user, token)
	}

	// The clears come after the refresh writes, so the last Set-Cookie for
	// each name must be the expiring one.
	for _, name := range []string{CookieAuth, CookieRefresh, CookieUser} {
		var last *http.Cookie
		for _, ck := range rec.Result().Cookies() {
			if ck.Name == name {
				last = ck
			}
		}
		if last == nil || last.MaxAge != -1 {
			t.Errorf("cookie %s not cleared after failed revalidation: %+v", name, last)
		}
	}
}

func TestSession_SoftFailurePreservesCookies(t *testing.T) {
	for _, status := range []int{0, http.StatusForbidden, http.StatusInternalServerError, http.StatusBadGateway} {
		provider := &mockProvider{
			fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
				return identity.UserResult{Status: status}
			},
			refreshFn: func(ctx context.Context, rt string) (*identity.TokenPair, error) {
				t.Errorf("status %d must not trigger a refresh", status)
				return nil, errors.New("unexpected")
			},
		}

		rec, user, token, ran := runSession(t, provider, "/",
			authCookie("maybe-good"), refreshCookie("r-token"))

		if !ran {
			t.Fatalf("status %d: downstream handler did not run", status)
		}
		if user != nil {
			t.Errorf("status %d: soft failure resolved a user", status)
		}
		// The surviving token stays visible to handlers even though the
		// request is served anonymously.
		if token != "maybe-good" {
			t.Errorf("status %d: context token = %q, want maybe-good", status, token)
		}

		for _, name := range []string{CookieAuth, CookieRefresh, CookieUser} {
			if ck := cookieByName(rec, name); ck != nil && ck.MaxAge < 0 {
				t.Errorf("status %d: cookie %s was cleared on a transient failure", status, name)
			}
		}
	}
}

func TestSession_ProtectedRouteRedirectsAnonymous(t *testing.T) {
	provider := &mockProvider{}

	rec, _, _, ran := runSession(t, provider, "/admin/lessons")

	if ran {
		t.Fatal("handler ran for anonymous request to protected route")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	want := "/login?redirect=%2Fadmin%2Flessons&reason=auth_required"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestSession_ProtectedRouteRedirectsOnSoftFailure(t *testing.T) {
	// Soft failure keeps the cookies but the request is anonymous, so a
	// protected page still bounces to login.
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			return identity.UserResult{Status: 0}
		},
	}

	rec, _, _, ran := runSession(t, provider, "/learning/go-basics", authCookie("tok"))

	if ran {
		t.Fatal("handler ran without a resolved identity")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	want := "/login?redirect=%2Flearning%2Fgo-basics&reason=auth_required"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location = %q, want %q", loc, want)
	}
}

func TestSession_PublicAuthRouteRedirectsLoggedIn(t *testing.T) {
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			return identity.UserResult{User: testUser, Status: http.StatusOK}
		},
	}

	rec, _, _, ran := runSession(t, provider, "/login", authCookie("good"))

	if ran {
		t.Fatal("handler ran for logged-in request to login page")
	}
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/admin/lessons" {
		t.Errorf("Location = %q, want /admin/lessons", loc)
	}
}

func TestSession_NeutralRouteServesAnonymous(t *testing.T) {
	provider := &mockProvider{}

	rec, _, _, ran := runSession(t, provider, "/courses/go-basics")

	if !ran {
		t.Fatal("neutral route did not reach the handler")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestSession_Idempotent(t *testing.T) {
	// Running the same valid session twice must produce the same outcome
	// both times; validation has no side effects on provider state.
	calls := 0
	provider := &mockProvider{
		fetchUserFn: func(ctx context.Context, token string) identity.UserResult {
			calls++
			return identity.UserResult{User: testUser, Status: http.StatusOK}
		},
	}

	for i := 0; i < 2; i++ {
		_, user, token, _ := runSession(t, provider, "/", authCookie("good"))
		if user == nil || token != "good" {
			t.Fatalf("run %d: user=%v token=%q", i, user, token)
		}
	}
	if calls != 2 {
		t.Errorf("provider called %d times, want 2", calls)
	}
}

func TestRequireLogin(t *testing.T) {
	e := echo.New()

	t.Run("anonymous gets 401", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/my-courses", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		handler := RequireLogin(func(c echo.Context) error {
			t.Error("handler ran without a session")
			return nil
		})
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("session passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/my-courses", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(contextKeyUser, testUser)
		c.Set(contextKeyAuthToken, "good")

		ran := false
		handler := RequireLogin(func(c echo.Context) error {
			ran = true
			return c.NoContent(http.StatusOK)
		})
		if err := handler(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ran {
			t.Error("handler did not run for a valid session")
		}
	})
}

