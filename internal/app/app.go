// Package app contains the web front-end.
package app

import (
	"embed"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/sec"
	"github.com/taskdeckapp/taskdeck/internal/storage"
)

//go:embed static
var staticFiles embed.FS

// New creates the task list web server.
func New(cfg *config.Config, logger *slog.Logger, store storage.Store) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.Renderer = newRenderer()

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.Decompress(),
		middleware.Gzip(),
		middleware.Secure(),
		middleware.CSRFWithConfig(middleware.CSRFConfig{
			TokenLookup: "cookie:" + middleware.DefaultCSRFConfig.CookieName,
		}),
		middleware.RequestID(),
		resolvePrincipal(store, []byte(cfg.SessionSecret)),
	)

	handler{cfg: cfg, store: store}.register(srv)
	staticFS := echo.MustSubFS(staticFiles, "static")
	srv.StaticFS("/static/", staticFS)
	return srv
}

// resolvePrincipal turns a valid session cookie into the request's principal.
// Anything short of a valid token for an existing user degrades to an
// anonymous caller.
func resolvePrincipal(users storage.Users, secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sec.SessionCookieName)
			if err != nil || cookie.Value == "" {
				return next(c)
			}
			userID, err := sec.ParseSessionToken(cookie.Value, secret)
			if err != nil {
				return next(c)
			}
			user, err := users.GetUser(c.Request().Context(), userID)
			if err != nil {
				return next(c)
			}
			ctx := sec.WithPrincipal(c.Request().Context(), user)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func logRequests(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			attrs := []slog.Attr{
				slog.String("method", req.Method),
				slog.String("uri", req.RequestURI),
				slog.String("route", c.Path()),
				slog.Duration("latency", latency),
				slog.Int("status", res.Status),
			}
			if err != nil {
				attrs = append(attrs, slog.Any("error", err))
			}
			logger.LogAttrs(
				req.Context(),
				slog.LevelDebug,
				"request handled",
				attrs...,
			)
			return err
		}
	}
}
