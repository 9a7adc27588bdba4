// Package authweb exposes the browser-facing authentication endpoints:
// login, registration, logout, and the session-info API. It owns no session
// state of its own; tokens come from the identity provider and live in the
// cookies managed by the session middleware.
package authweb

import "regexp"

// emailRe is a light-weight format check. The provider does the real
// validation; this only catches obvious typos before a network round trip.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginRequest holds the data submitted by the login form.
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RegisterRequest holds the data submitted by the registration form.
type RegisterRequest struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"full_name" form:"full_name"`
	LastName  string `json:"last_name" form:"last_name"`
}
