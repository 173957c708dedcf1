// Package app contains the web front-end: route handlers and the session
// guards in front of them.
package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/session"
	"github.com/beregond/contactboard/internal/storage"
)

// New creates the web server. Requests flow through principal resolution,
// then any route guard, then the handler body.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	store storage.Store,
	sessions session.Store,
) *echo.Echo {
	srv := echo.New()

	srv.HideBanner = true
	srv.HidePort = true
	srv.Logger.SetLevel(log.OFF)
	srv.Validator = &formValidator{validate: validator.New()}

	if cfg.DevMode {
		srv.Debug = true
		srv.Use(logRequests(logger))
	}

	srv.Use(
		middleware.Recover(),
		middleware.Secure(),
		middleware.RequestID(),
	)

	h := handler{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		sessions: sessions,
	}
	srv.Use(h.resolvePrincipal)
	h.register(srv)
	return srv
}

type formValidator struct {
	validate *validator.Validate
}

func (v *formValidator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing or malformed form field")
	}
	return nil
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
