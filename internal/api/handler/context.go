package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/coursehub/learner/internal/api/middleware"
	"github.com/coursehub/learner/internal/core/domain"
)

// ctxSession returns the session injected by RequireSession and fails fast
// when the route was mounted without it.
func ctxSession(c echo.Context) (domain.Session, error) {
	sess, ok := middleware.SessionFrom(c)
	if !ok || sess.User == nil {
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	return sess, nil
}
