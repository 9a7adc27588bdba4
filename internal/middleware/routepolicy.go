package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// RouteClass is the access classification of a request path. Every path
// belongs to exactly one class, decided by longest-prefix match against the
// fixed tables below.
type RouteClass int

const (
	// RouteNeutral paths are reachable by anyone.
	RouteNeutral RouteClass = iota

	// RouteProtected paths require a validated session.
	RouteProtected

	// RoutePublicAuth paths (login, register) only make sense for
	// anonymous visitors; logged-in users are bounced to the landing page.
	RoutePublicAuth
)

// protectedPrefixes lists path prefixes that require authentication.
var protectedPrefixes = []string{
	"/learning",
	"/profile",
	"/admin",
	"/settings",
	"/dashboard",
}

// publicAuthPrefixes lists path prefixes meant for anonymous visitors only.
var publicAuthPrefixes = []string{
	"/login",
	"/register",
	"/forgot-password",
}

// ClassifyRoute returns the access class for a path. When prefixes from both
// tables match, the longer match wins.
func ClassifyRoute(path string) RouteClass {
	class := RouteNeutral
	longest := 0

	for _, prefix := range protectedPrefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > longest {
			class = RouteProtected
			longest = len(prefix)
		}
	}
	for _, prefix := range publicAuthPrefixes {
		if strings.HasPrefix(path, prefix) && len(prefix) > longest {
			class = RoutePublicAuth
			longest = len(prefix)
		}
	}

	return class
}

// PolicyDecision is the outcome of the route-access check. Redirect false
// means continue into the downstream handler. An explicit value keeps the
// control flow visible at the call site instead of hiding it in a panic or
// sentinel error.
type PolicyDecision struct {
	Redirect bool
	Status   int
	Location string
}

// routePolicy decides whether the request may proceed. Protected paths
// without a session redirect to login carrying the original path and a
// reason code the login UI can surface; auth-only pages visited while
// logged in redirect to the landing page.
func routePolicy(path string, loggedIn bool) PolicyDecision {
	switch ClassifyRoute(path) {
	case RouteProtected:
		if !loggedIn {
			return PolicyDecision{
				Redirect: true,
				Status:   http.StatusSeeOther,
				Location: loginPath + "?redirect=" + url.QueryEscape(path) + "&reason=auth_required",
			}
		}
	case RoutePublicAuth:
		if loggedIn {
			return PolicyDecision{
				Redirect: true,
				Status:   http.StatusSeeOther,
				Location: landingPath,
			}
		}
	}
	return PolicyDecision{}
}
