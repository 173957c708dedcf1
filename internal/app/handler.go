package app

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/beregond/contactboard/internal/config"
	"github.com/beregond/contactboard/internal/sec"
	"github.com/beregond/contactboard/internal/session"
	"github.com/beregond/contactboard/internal/storage"
)

type handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	sessions session.Store
}

func (h handler) register(e *echo.Echo) {
	e.GET("/", h.home)

	e.GET("/register", h.registerForm)
	e.POST("/register", h.registerSubmit)
	e.GET("/login", h.loginForm)
	e.POST("/login", h.loginSubmit)
	e.GET("/logout", h.logout)

	e.GET("/messages", h.messages, requireAuthenticated)
	e.GET("/admin", h.admin, requireAdmin)

	e.POST("/submit-contact", h.submitContact)

	e.GET("/userAlreadyExists", landing("That username is already taken.", "/register"))
	e.GET("/login-failure", landing("Wrong username or password.", "/login"))
	e.GET("/notAuthorized", landing("You need to log in first.", "/login"))
	e.GET("/notAuthorizedAdmin", landing("Administrators only.", "/"))
}

func (h handler) home(c echo.Context) error {
	if user := principal(c); user != nil {
		return c.HTML(http.StatusOK, page(
			`Hello, `+user.Username+`. <a href="/messages">Messages</a> | <a href="/logout">Log out</a>`))
	}
	return c.HTML(http.StatusOK, page(
		`Welcome. <a href="/login">Log in</a> | <a href="/register">Register</a>`))
}

func (h handler) registerForm(c echo.Context) error {
	return c.HTML(http.StatusOK, page(credentialForm("/register", "Register")))
}

type credentialsForm struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

func (h handler) registerSubmit(c echo.Context) error {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	if err := c.Validate(&form); err != nil {
		return err
	}
	ctx := c.Request().Context()

	// Advisory fast path only; the store's uniqueness constraint is the
	// real guarantee under concurrent duplicate registrations.
	if _, err := h.store.GetUserByName(ctx, form.Username); err == nil {
		return c.Redirect(http.StatusSeeOther, "/userAlreadyExists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return h.storeFault(c, "failed to check username", err)
	}

	hash, err := sec.HashPassword(form.Password, h.cfg.BcryptCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unusable password")
	}

	switch _, err := h.store.CreateUser(ctx, form.Username, hash, false); {
	case errors.Is(err, storage.ErrAlreadyExists):
		return c.Redirect(http.StatusSeeOther, "/userAlreadyExists")
	case errors.Is(err, storage.ErrInvalidUsername):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case err != nil:
		return h.storeFault(c, "failed to create user", err)
	}
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (h handler) loginForm(c echo.Context) error {
	return c.HTML(http.StatusOK, page(credentialForm("/login", "Log in")))
}

func (h handler) loginSubmit(c echo.Context) error {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	if err := c.Validate(&form); err != nil {
		// An empty field can never authenticate; same response as any
		// other rejection.
		return c.Redirect(http.StatusSeeOther, "/login-failure")
	}
	ctx := c.Request().Context()

	user, err := sec.Authenticate(ctx, h.store, form.Username, form.Password)
	if errors.Is(err, sec.ErrBadCredentials) {
		return c.Redirect(http.StatusSeeOther, "/login-failure")
	} else if err != nil {
		return h.storeFault(c, "authentication fault", err)
	}

	token, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		return h.storeFault(c, "failed to create session", err)
	}
	c.SetCookie(h.sessionCookie(token, int(session.TTL/time.Second)))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h handler) logout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(c.Request().Context(), cookie.Value); err != nil {
			return h.storeFault(c, "failed to destroy session", err)
		}
	}
	c.SetCookie(h.sessionCookie("", -1))
	return c.Redirect(http.StatusSeeOther, "/")
}

// messageView is the JSON shape of a listed contact message.
type messageView struct {
	ID        uint64    `json:"id"`
	AuthorID  *uint64   `json:"authorId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h handler) messages(c echo.Context) error {
	msgs, err := h.store.ListRecentMessages(c.Request().Context(), storage.MaxMessageLimit)
	if err != nil {
		return h.storeFault(c, "failed to list messages", err)
	}
	views := make([]messageView, 0, len(msgs))
	for _, m := range msgs {
		view := messageView{
			ID:        m.ID,
			Name:      m.Name,
			Email:     m.Email,
			Subject:   m.Subject,
			Body:      m.Body,
			CreatedAt: m.CreatedAt,
		}
		if m.AuthorID.Valid {
			id := m.AuthorID.V
			view.AuthorID = &id
		}
		views = append(views, view)
	}
	return c.JSON(http.StatusOK, views)
}

// userView is the JSON shape of a listed user. Password hashes stay
// server-side.
type userView struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h handler) admin(c echo.Context) error {
	users, err := h.store.ListUsers(c.Request().Context())
	if err != nil {
		return h.storeFault(c, "failed to list users", err)
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, userView{
			ID:        u.ID,
			Username:  u.Username,
			IsAdmin:   u.IsAdmin,
			CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, views)
}

type contactForm struct {
	Name    string `form:"name" validate:"required"`
	Email   string `form:"email" validate:"required,email"`
	Subject string `form:"subject" validate:"required"`
	Body    string `form:"message" validate:"required"`
}

func (h handler) submitContact(c echo.Context) error {
	var form contactForm
	if err := c.Bind(&form); err != nil {
		return err
	}
	if err := c.Validate(&form); err != nil {
		return err
	}

	var authorID *uint64
	if user := principal(c); user != nil {
		authorID = &user.ID
	}

	_, err := h.store.AppendMessage(c.Request().Context(),
		authorID, form.Name, form.Email, form.Subject, form.Body)
	if errors.Is(err, storage.ErrInvalidMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	} else if err != nil {
		return h.storeFault(c, "failed to store message", err)
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h handler) sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}

// landing returns a handler for the static redirect targets. Rendering is a
// non-goal, so these are the smallest page that keeps browser flows usable.
func landing(text, backTo string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.HTML(http.StatusOK, page(text+` <a href="`+backTo+`">Back</a>`))
	}
}

func page(body string) string {
	return `<!doctype html><html><body><p>` + body + `</p></body></html>`
}

func credentialForm(action, label string) string {
	return `<form method="post" action="` + action + `">` +
		`<input name="username" placeholder="username">` +
		`<input name="password" type="password" placeholder="password">` +
		`<button type="submit">` + label + `</button></form>`
}
