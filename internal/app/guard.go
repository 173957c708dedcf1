package app

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/beregond/contactboard/internal/storage"
	"github.com/beregond/contactboard/internal/storage/db"
)

const (
	// sessionCookieName is the single opaque session reference handed to
	// the client.
	sessionCookieName = "session"

	principalContextKey = "principal"
)

// resolvePrincipal maps the request's session cookie to a full user record
// and stashes it in the echo context before any guard or handler runs. A
// missing cookie, an unknown or expired session, and a session pointing at a
// deleted user all leave the principal absent; only store faults error.
func (h handler) resolvePrincipal(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		cookie, err := c.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			return next(c)
		}

		ctx := c.Request().Context()
		userID, ok, err := h.sessions.Resolve(ctx, cookie.Value)
		if err != nil {
			return h.storeFault(c, "failed to resolve session", err)
		}
		if !ok {
			return next(c)
		}

		user, err := h.store.GetUser(ctx, userID)
		if errors.Is(err, storage.ErrNotFound) {
			return next(c)
		} else if err != nil {
			return h.storeFault(c, "failed to load principal", err)
		}

		c.Set(principalContextKey, &user)
		return next(c)
	}
}

// principal returns the authenticated user attached to the request, or nil.
func principal(c echo.Context) *db.User {
	user, _ := c.Get(principalContextKey).(*db.User)
	return user
}

// requireAuthenticated admits requests with a resolved principal and routes
// everything else to the unauthorized page. It leaks no detail about why.
func requireAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if principal(c) == nil {
			return c.Redirect(http.StatusSeeOther, "/notAuthorized")
		}
		return next(c)
	}
}

// requireAdmin admits only principals with the admin flag set. Identity is
// confirmed first, so an absent principal goes to the plain unauthorized
// page rather than faulting here. Note that the flag is read off the
// principal resolved for this request: demoting an admin takes effect on
// their next session resolution, not mid-session.
func requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return requireAuthenticated(func(c echo.Context) error {
		if !principal(c).IsAdmin {
			return c.Redirect(http.StatusSeeOther, "/notAuthorizedAdmin")
		}
		return next(c)
	})
}

// storeFault logs the failure with full context and degrades it to a
// generic 500; internal error text never reaches the client.
func (h handler) storeFault(c echo.Context, msg string, err error) error {
	h.logger.LogAttrs(c.Request().Context(), slog.LevelError, msg,
		slog.String("route", c.Path()),
		slog.Any("error", err),
	)
	return echo.ErrInternalServerError
}
