package app

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdeckapp/taskdeck/internal/sec"
	"github.com/taskdeckapp/taskdeck/internal/storage"
)

// RequireRegistered rejects requests with no authenticated principal.
func RequireRegistered(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := sec.PrincipalFrom(c.Request().Context()); !ok {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		return next(c)
	}
}

// RequireAnonymous rejects requests that carry an authenticated principal.
func RequireAnonymous(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := sec.PrincipalFrom(c.Request().Context()); ok {
			return echo.NewHTTPError(http.StatusForbidden)
		}
		return next(c)
	}
}

// RequireAdmin rejects requests unless the principal is the bootstrap
// identity, the first-created user. A missing principal, a missing bootstrap
// user, and an identity mismatch all fail closed the same way.
func RequireAdmin(users storage.Users) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, ok := sec.PrincipalFrom(c.Request().Context())
			if !ok {
				return echo.NewHTTPError(http.StatusForbidden)
			}
			bootstrap, err := users.FirstUser(c.Request().Context())
			if err != nil || bootstrap.ID != principal.ID {
				return echo.NewHTTPError(http.StatusForbidden)
			}
			return next(c)
		}
	}
}
