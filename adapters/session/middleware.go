package session

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	DefaultSessionKeyForContext = "leiloes-default-session-context"
)

var ErrSessionNotFound = fmt.Errorf("session not found")

// MiddlewareOptions collects the cookie and context settings of the session
// middleware.
type MiddlewareOptions struct {
	sessionKeyForCookie  string
	sessionKeyForContext string
	cookieMaxAge         time.Duration
	cookiePath           string
	cookieDomain         string
	cookieSecure         bool
	cookieHTTPOnly       bool
}

type MiddlewareOption func(*MiddlewareOptions)

// WithSessionKeyForCookie sets the cookie name carrying the session id.
func WithSessionKeyForCookie(key string) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.sessionKeyForCookie = key
	}
}

// WithSessionKeyForContext sets the gin context key the session is stored under.
func WithSessionKeyForContext(key string) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.sessionKeyForContext = key
	}
}

// WithCookieMaxAge sets the session cookie lifetime.
func WithCookieMaxAge(maxAge time.Duration) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.cookieMaxAge = maxAge
	}
}

// WithCookiePath sets the cookie path.
func WithCookiePath(path string) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.cookiePath = path
	}
}

// WithCookieDomain sets the cookie domain.
func WithCookieDomain(domain string) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.cookieDomain = domain
	}
}

// WithCookieSecure restricts the cookie to HTTPS.
func WithCookieSecure(secure bool) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.cookieSecure = secure
	}
}

// WithCookieHTTPOnly hides the cookie from client-side scripts.
func WithCookieHTTPOnly(httpOnly bool) MiddlewareOption {
	return func(options *MiddlewareOptions) {
		options.cookieHTTPOnly = httpOnly
	}
}

// GinMiddleware attaches a lazily loaded session to every request and writes
// the session-id cookie back on the way out.
func GinMiddleware(store IStore, opts ...MiddlewareOption) gin.HandlerFunc {
	options := MiddlewareOptions{
		sessionKeyForCookie:  "session",
		sessionKeyForContext: DefaultSessionKeyForContext,
		cookieMaxAge:         24 * time.Hour,
		cookiePath:           "/",
		cookieDomain:         "",
		cookieSecure:         true,
		cookieHTTPOnly:       true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	return func(c *gin.Context) {
		sessionID, err := c.Cookie(options.sessionKeyForCookie)
		if err != nil || sessionID == "" {
			sessionID = uuid.New().String()
		}

		session := NewSession(c.Request.Context(), sessionID, store)
		c.Set(options.sessionKeyForContext, session)

		c.Next()

		c.SetCookie(
			options.sessionKeyForCookie,
			sessionID,
			int(options.cookieMaxAge/time.Second),
			options.cookiePath,
			options.cookieDomain,
			options.cookieSecure,
			options.cookieHTTPOnly,
		)
	}
}

// GetSession pulls the request's session out of ctx and loads it.
func GetSession(ctx context.Context, opts ...MiddlewareOption) (ISession, error) {
	const op = "session.GetSession"
	options := MiddlewareOptions{
		sessionKeyForContext: DefaultSessionKeyForContext,
	}
	for _, opt := range opts {
		opt(&options)
	}
	v := ctx.Value(options.sessionKeyForContext)
	if v == nil {
		return nil, ErrSessionNotFound
	}
	session, ok := v.(ISession)
	if !ok {
		return nil, fmt.Errorf("%s: invalid session type in context", op)
	}
	if err := session.Load(); err != nil {
		return nil, fmt.Errorf("%s: failed to load session: %w", op, err)
	}

	return session, nil
}
