package app

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/sec"
	"github.com/taskdeckapp/taskdeck/internal/storage"
	"github.com/taskdeckapp/taskdeck/internal/storage/db"
)

// User-visible notices for the retryable authentication failures. Duplicate
// email, unknown email, and bad password deliberately read differently.
const (
	noticeDuplicateEmail     = "You've already signed up with that email, log in instead."
	noticeUnknownEmail       = "That email does not exist, please try again."
	noticeInvalidCredentials = "Password incorrect, please try again."
)

const adminListLimit = 500

type handler struct {
	cfg   *config.Config
	store storage.Store
}

func (h handler) register(e *echo.Echo) {
	e.GET("/", h.home)
	e.POST("/", h.createTask)

	e.GET("/login", h.loginForm, RequireAnonymous)
	e.POST("/login", h.login, RequireAnonymous)
	e.GET("/register", h.registerForm, RequireAnonymous)
	e.POST("/register", h.registerUser, RequireAnonymous)
	e.GET("/logout", h.logout, RequireRegistered)

	e.GET("/admin", h.admin, RequireAdmin(h.store))
}

// pageData is the template input shared by every page.
type pageData struct {
	Principal *db.User
	Tasks     []db.Task
	Users     []db.User
	Notice    string
}

func newPageData(c echo.Context) pageData {
	data := pageData{Notice: takeNotice(c)}
	if principal, ok := sec.PrincipalFrom(c.Request().Context()); ok {
		data.Principal = &principal
	}
	return data
}

// home renders the tasks visible to the caller: their own for a registered
// principal, the orphan pool for everyone else.
func (h handler) home(c echo.Context) error {
	ctx := c.Request().Context()
	data := newPageData(c)

	var err error
	if data.Principal != nil {
		data.Tasks, err = h.store.ListTasks(ctx, data.Principal.ID)
	} else {
		data.Tasks, err = h.store.ListOrphanTasks(ctx)
	}
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "home", data)
}

// createTask inserts the submitted text, owned by the principal or by nobody.
// The text is stored as submitted; a redirect follows so a refresh does not
// resubmit.
func (h handler) createTask(c echo.Context) error {
	task := db.Task{Text: c.FormValue("text")}
	if principal, ok := sec.PrincipalFrom(c.Request().Context()); ok {
		task.OwnerID = sql.Null[uint64]{V: principal.ID, Valid: true}
	}
	if _, err := h.store.CreateTask(c.Request().Context(), task); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h handler) loginForm(c echo.Context) error {
	return c.Render(http.StatusOK, "login", newPageData(c))
}

func (h handler) login(c echo.Context) error {
	ctx := c.Request().Context()
	email := c.FormValue("email")

	user, err := h.store.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		setNotice(c, noticeUnknownEmail)
		return c.Redirect(http.StatusSeeOther, "/login")
	} else if err != nil {
		return err
	}

	if err = sec.ComparePassword(c.FormValue("password"), user.PasswordHash); err != nil {
		setNotice(c, noticeInvalidCredentials)
		return c.Redirect(http.StatusSeeOther, "/login")
	}

	if err = h.beginSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h handler) registerForm(c echo.Context) error {
	return c.Render(http.StatusOK, "register", newPageData(c))
}

func (h handler) registerUser(c echo.Context) error {
	ctx := c.Request().Context()
	email := c.FormValue("email")

	if _, err := h.store.GetUserByEmail(ctx, email); err == nil {
		setNotice(c, noticeDuplicateEmail)
		return c.Redirect(http.StatusSeeOther, "/login")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := sec.HashPassword(c.FormValue("password"))
	if err != nil {
		return err
	}

	user, err := h.store.CreateUser(ctx, db.User{
		Email:        email,
		PasswordHash: hash,
		Name:         c.FormValue("name"),
	})
	switch {
	case errors.Is(err, storage.ErrAlreadyExists):
		// lost a race with a concurrent registration for the same email
		setNotice(c, noticeDuplicateEmail)
		return c.Redirect(http.StatusSeeOther, "/login")
	case errors.Is(err, storage.ErrInvalidEmail):
		setNotice(c, "That doesn't look like an email address, please try again.")
		return c.Redirect(http.StatusSeeOther, "/register")
	case err != nil:
		return err
	}

	if err = h.beginSession(c, user); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// beginSession establishes the user as the caller's principal and claims the
// orphan pool. It runs before the caller is redirected so newly claimed tasks
// appear on the very next page load.
func (h handler) beginSession(c echo.Context, user db.User) error {
	token, err := sec.IssueSessionToken(user.ID, []byte(h.cfg.SessionSecret), h.cfg.SessionTTL.Std())
	if err != nil {
		return err
	}
	c.SetCookie(sessionCookie(token, int(h.cfg.SessionTTL.Std().Seconds())))

	ctx := c.Request().Context()
	claimed, err := h.store.ClaimOrphanTasks(ctx, user.ID)
	if err != nil {
		return err
	}
	if claimed > 0 {
		slog.InfoContext(ctx, "claimed orphan tasks",
			slog.Uint64("user_id", user.ID),
			slog.Int64("claimed", claimed),
		)
	}
	return nil
}

func (h handler) logout(c echo.Context) error {
	c.SetCookie(sessionCookie("", -1))
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h handler) admin(c echo.Context) error {
	data := newPageData(c)

	var err error
	data.Users, err = h.store.ListUsers(c.Request().Context(), "", adminListLimit)
	if err != nil {
		return err
	}
	return c.Render(http.StatusOK, "admin", data)
}

func sessionCookie(token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sec.SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
