// Package identity is the HTTP client adapter for the upstream identity
// provider. The provider owns user accounts, passwords, and token issuance;
// this package only consumes its token contract: bearer-token validation
// via /users/me, silent renewal via /auth/refresh, and credential exchange
// via /auth/login. Session state derived from these calls lives in cookies
// managed by the session middleware.
package identity

// Verified is the authoritative identity resolved from the provider within
// the current request. It contains sensitive fields (ID, Email) and must
// never be serialized into anything a client can read. Browser-visible
// identity data goes through Display instead.
type Verified struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Display is the non-sensitive subset of an identity that is safe to store
// in the display cookie and return to browsers. It deliberately has no ID
// or Email field so the two can never leak by accident.
type Display struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// Display returns the cookie-safe projection of the identity.
func (v *Verified) Display() Display {
	return Display{
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Avatar:    v.Avatar,
	}
}

// TokenPair is the provider's response to a successful login or refresh.
// RefreshToken may be empty on refresh when the provider does not rotate it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// UserResult is the outcome of a FetchUser call. All failure modes are
// encoded in Status so the session middleware can branch on them:
//
//	User != nil            -- token valid, identity resolved (Status 200)
//	Status == 401          -- token rejected, refresh may recover it
//	Status 0               -- network failure or timeout (soft failure)
//	any other Status       -- provider error (soft failure)
type UserResult struct {
	User   *Verified
	Status int
}

// CreateUserInput is the payload for admin-side account creation during
// registration.
type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
