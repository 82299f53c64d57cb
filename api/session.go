package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"leiloes/adapters/session"
	"leiloes/guard"
	"leiloes/models"
)

const (
	SESSION_KEY_USER_ID   = "user_id"
	SESSION_KEY_USER_TYPE = "user_type"
)

func (impl *ServerImpl) SessionMiddleware() gin.HandlerFunc {
	return session.GinMiddleware(
		impl.sessionStore,
		session.WithSessionKeyForCookie(impl.config.Session.KeyForCookie),
		session.WithCookieMaxAge(impl.config.Session.CookieMaxAge),
	)
}

// sessionState collapses the session into the guard's view of the request.
// Any load failure reads as anonymous; an expired session simply has no
// user id left in it.
func (impl *ServerImpl) sessionState(c *gin.Context) guard.State {
	sess, err := session.GetSession(c)
	if err != nil {
		return guard.Anonymous
	}
	if sess.Get(SESSION_KEY_USER_ID) == "" {
		return guard.Anonymous
	}
	return guard.Authenticated(models.UserType(sess.Get(SESSION_KEY_USER_TYPE)))
}

// GuardMiddleware maps the guard's decisions onto HTTP: RedirectToLogin
// becomes 401 with the login target, RedirectHome becomes 403.
func (impl *ServerImpl) GuardMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := guard.Evaluate(c.Request.URL.Path, impl.sessionState(c))
		switch decision.Kind {
		case guard.RedirectToLogin:
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{
				Error:      ErrUnauthenticated.Error(),
				RedirectTo: decision.ReturnTo,
			})
		case guard.RedirectHome:
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{
				Error:      ErrForbidden.Error(),
				RedirectTo: "/",
			})
		default:
			c.Next()
		}
	}
}

// currentUser resolves the session to a live user row. A session naming a
// deleted user reads as unauthenticated; a deactivated user is forbidden.
func (impl *ServerImpl) currentUser(c *gin.Context) (*models.User, error) {
	const op = "currentUser"
	sess, err := session.GetSession(c)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	raw := sess.Get(SESSION_KEY_USER_ID)
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	user := models.User{ID: userID}
	if result := impl.db.First(&user); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("[%s] Fail to load session user, err=%w", op, result.Error)
	}
	if !user.IsActive {
		return nil, ErrForbidden
	}
	return &user, nil
}
