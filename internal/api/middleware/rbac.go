package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/core/domain"
)

// RequireUserType only lets users of the given types through. It must run
// after RequireSession.
func RequireUserType(allowed ...domain.UserType) echo.MiddlewareFunc {
	set := make(map[domain.UserType]struct{}, len(allowed))
	for _, t := range allowed {
		set[t] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := SessionFrom(c)
			if !ok || sess.User == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "user not logged in")
			}
			if _, ok := set[sess.User.UserType]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
