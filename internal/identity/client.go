package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jadihebat/platform/internal/apperror"
)

// userFields is the field selection requested from /users/me. Kept minimal
// so the provider never sends more PII than the application needs.
const userFields = "id,email,first_name,last_name,avatar"

// Provider is the contract the session middleware and auth handlers depend
// on. Client is the production implementation; tests substitute mocks.
type Provider interface {
	// FetchUser validates an access token and returns the identity it
	// belongs to. Failures are encoded in UserResult.Status, never as an
	// error, because every failure mode is a normal branch of the session
	// state machine.
	FetchUser(ctx context.Context, accessToken string) UserResult

	// Refresh exchanges a refresh token for a new token pair. Any failure
	// (rejection, provider error, network) returns an error; the caller
	// treats all of them as definitive.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Login exchanges credentials for a token pair.
	Login(ctx context.Context, email, password string) (*TokenPair, error)

	// Logout invalidates an access token upstream. Best effort: callers
	// log the error and move on.
	Logout(ctx context.Context, accessToken string) error
}

// Client talks to the identity provider's REST API. Construct once at
// startup with NewClient and inject wherever a Provider is needed.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a provider client. The timeout bounds every call;
// the session middleware treats a timeout as a transient network failure.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// dataEnvelope matches the provider's `{"data": ...}` response wrapper.
type dataEnvelope[T any] struct {
	Data T `json:"data"`
}

// tokenData is the token payload inside a login or refresh response.
type tokenData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// FetchUser implements Provider. Network errors and timeouts report
// Status 0 so the caller can distinguish them from provider rejections.
func (c *Client) FetchUser(ctx context.Context, accessToken string) UserResult {
	if accessToken == "" {
		return UserResult{Status: http.StatusUnauthorized}
	}

	url := fmt.Sprintf("%s/users/me?fields=%s", c.baseURL, userFields)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return UserResult{Status: 0}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return UserResult{Status: 0}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return UserResult{Status: resp.StatusCode}
	}

	var envelope dataEnvelope[Verified]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return UserResult{Status: http.StatusInternalServerError}
	}

	// A 200 without an ID means the provider returned something malformed.
	// Treat it as a provider error, not a valid identity.
	if envelope.Data.ID == "" {
		return UserResult{Status: http.StatusInternalServerError}
	}

	user := envelope.Data
	return UserResult{User: &user, Status: resp.StatusCode}
}

// Refresh implements Provider.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	body := map[string]string{
		"refresh_token": refreshToken,
		"mode":          "json",
	}

	resp, err := c.postJSON(ctx, c.baseURL+"/auth/refresh", body, "")
	if err != nil {
		return nil, fmt.Errorf("refresh request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return nil, fmt.Errorf("refresh rejected: status %d", resp.StatusCode)
	}

	var envelope dataEnvelope[tokenData]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decoding refresh response: %w", err)
	}
	if envelope.Data.AccessToken == "" {
		return nil, fmt.Errorf("refresh response missing access token")
	}

	return &TokenPair{
		AccessToken:  envelope.Data.AccessToken,
		RefreshToken: envelope.Data.RefreshToken,
	}, nil
}

// Login implements Provider. Invalid credentials map to an unauthorized
// AppError with a user-safe message; everything else is internal.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
		"mode":     "json",
	}

	resp, err := c.postJSON(ctx, c.baseURL+"/auth/login", body, "")
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("login request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		drain(resp.Body)
		return nil, apperror.NewUnauthorized("invalid email or password")
	}
	if resp.StatusCode != http.StatusOK {
		drain(resp.Body)
		return nil, apperror.NewInternal(fmt.Errorf("login failed: status %d", resp.StatusCode))
	}

	var envelope dataEnvelope[tokenData]
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("decoding login response: %w", err))
	}
	if envelope.Data.AccessToken == "" {
		return nil, apperror.NewInternal(fmt.Errorf("login response missing access token"))
	}

	return &TokenPair{
		AccessToken:  envelope.Data.AccessToken,
		RefreshToken: envelope.Data.RefreshToken,
	}, nil
}

// Logout implements Provider.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/logout", nil)
	if err != nil {
		return fmt.Errorf("building logout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("logout request: %w", err)
	}
	defer resp.Body.Close()
	drain(resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("logout rejected: status %d", resp.StatusCode)
	}
	return nil
}

// postJSON sends a JSON POST, optionally with a bearer token.
func (c *Client) postJSON(ctx context.Context, url string, body any, bearer string) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return c.http.Do(req)
}

// drain consumes a response body so the underlying connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r, 4096))
}

// --- Admin client ---

// AdminClient performs privileged provider operations using a static admin
// token. Only account creation for self-registration uses it. Keep the
// admin token out of every request path except this one.
type AdminClient struct {
	baseURL       string
	adminToken    string
	defaultRoleID string
	http          *http.Client
}

// NewAdminClient creates an admin client for user provisioning.
func NewAdminClient(baseURL, adminToken, defaultRoleID string, timeout time.Duration) *AdminClient {
	return &AdminClient{
		baseURL:       strings.TrimRight(baseURL, "/"),
		adminToken:    adminToken,
		defaultRoleID: defaultRoleID,
		http:          &http.Client{Timeout: timeout},
	}
}

// CreateUser provisions a new active account with the default role.
// Duplicate emails map to a conflict AppError so the registration handler
// can show a meaningful message.
func (a *AdminClient) CreateUser(ctx context.Context, input CreateUserInput) error {
	if a.adminToken == "" || a.defaultRoleID == "" {
		return apperror.NewInternal(fmt.Errorf("identity admin client not configured"))
	}

	body := map[string]string{
		"email":      strings.ToLower(strings.TrimSpace(input.Email)),
		"password":   input.Password,
		"first_name": strings.TrimSpace(input.FirstName),
		"last_name":  strings.TrimSpace(input.LastName),
		"role":       a.defaultRoleID,
		"status":     "active",
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("encoding create user body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/users", bytes.NewReader(payload))
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("building create user request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+a.adminToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("create user request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		drain(resp.Body)
		return nil
	}

	// The provider reports duplicate emails as a field uniqueness violation.
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := strings.ToLower(string(raw))
	if resp.StatusCode == http.StatusBadRequest &&
		(strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists")) {
		return apperror.NewConflict("an account with this email already exists")
	}

	slog.Warn("identity provider rejected user creation",
		slog.Int("status", resp.StatusCode),
	)
	return apperror.NewInternal(fmt.Errorf("create user failed: status %d", resp.StatusCode))
}

// SetUserAvatar updates a user's avatar URL. The users collection is not
// writable with end-user tokens, so the avatar uploader goes through the
// admin client after it has verified ownership itself.
func (a *AdminClient) SetUserAvatar(ctx context.Context, userID, avatarURL string) error {
	if a.adminToken == "" {
		return apperror.NewInternal(fmt.Errorf("identity admin client not configured"))
	}

	payload, err := json.Marshal(map[string]string{"avatar": avatarURL})
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("encoding avatar update body: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		a.baseURL+"/users/"+url.PathEscape(userID), bytes.NewReader(payload))
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("building avatar update request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+a.adminToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("avatar update request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return apperror.NewInternal(fmt.Errorf("avatar update failed: status %d", resp.StatusCode))
	}
	drain(resp.Body)
	return nil
}
