// Package guard decides route accessibility from the session state alone.
// It is a pure decision table; mapping decisions onto HTTP responses or
// redirects is the caller's job.
package guard

import (
	"net/url"
	"strings"

	"leiloes/models"
)

// State is the resolved session state for one request. By the time the guard
// runs the session has been loaded, so there is no in-flight state here: a
// request is either anonymous or authenticated with a role.
type State struct {
	Authenticated bool
	Role          models.UserType
}

// Anonymous is the zero state.
var Anonymous = State{}

// Authenticated builds a state for a signed-in user with the given role.
func Authenticated(role models.UserType) State {
	return State{Authenticated: true, Role: role}
}

type DecisionKind int

const (
	// Allow lets the request through.
	Allow DecisionKind = iota
	// RedirectToLogin sends an anonymous caller to sign-in, carrying the
	// path it tried to reach.
	RedirectToLogin
	// RedirectHome turns away an authenticated caller that lacks the role.
	RedirectHome
)

// Decision is the guard verdict. ReturnTo is set only for RedirectToLogin.
type Decision struct {
	Kind     DecisionKind
	ReturnTo string
}

// publicPrefixes are reachable regardless of session state. A prefix matches
// the exact path or any subpath.
var publicPrefixes = []string{
	"/lots",
	"/categories",
	"/about",
	"/contact",
	"/how-to",
	"/login",
	"/register",
	"/auth",
}

const adminPrefix = "/admin"

// Evaluate returns the verdict for path under state.
func Evaluate(path string, state State) Decision {
	if isPublic(path) {
		return Decision{Kind: Allow}
	}
	if !state.Authenticated {
		return Decision{
			Kind:     RedirectToLogin,
			ReturnTo: "/login?redirectTo=" + url.QueryEscape(path),
		}
	}
	if matchesPrefix(path, adminPrefix) && state.Role != models.UserTypeAdmin {
		return Decision{Kind: RedirectHome}
	}
	return Decision{Kind: Allow}
}

func isPublic(path string) bool {
	if path == "/" {
		return true
	}
	for _, prefix := range publicPrefixes {
		if matchesPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func matchesPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
