package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
)

// SessionKey is the echo context key holding the domain.Session snapshot.
const SessionKey = "session"

// SessionSource is the part of the Session Store the middleware reads.
type SessionSource interface {
	Snapshot() domain.Session
	TokenExpiry() (time.Time, bool)
}

// RequireSession rejects requests while no user is logged in and injects the
// current session snapshot into the context. Tokens whose exp claim already
// passed are rejected as well.
func RequireSession(src SessionSource, now func() time.Time) echo.MiddlewareFunc {
	if now == nil {
		now = time.Now
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := src.Snapshot()
			if !sess.Authenticated() || sess.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not logged in")
			}
			if exp, ok := src.TokenExpiry(); ok && !now().Before(exp) {
				return echo.NewHTTPError(http.StatusUnauthorized, "session expired")
			}

			c.Set(SessionKey, sess)
			return next(c)
		}
	}
}

// SessionFrom returns the snapshot injected by RequireSession.
func SessionFrom(c echo.Context) (domain.Session, bool) {
	sess, ok := c.Get(SessionKey).(domain.Session)
	return sess, ok
}
