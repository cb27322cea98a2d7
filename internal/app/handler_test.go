package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeckapp/taskdeck/internal/config"
	"github.com/taskdeckapp/taskdeck/internal/sec"
	"github.com/taskdeckapp/taskdeck/internal/storage"
)

// client drives the app through [echo.Echo.ServeHTTP] with a minimal cookie
// jar, so the CSRF double-submit cookie and session cookies flow like they
// would in a browser.
type client struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

type testApp struct {
	store *storage.DB
	cfg   *config.Config
	e     *echo.Echo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Default()
	cfg.DBFilepath = filepath.Join(t.TempDir(), "db.sqlite")
	cfg.SessionSecret = "handler-test-secret"

	store, err := storage.NewDB(t.Context(), cfg, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return &testApp{
		store: store,
		cfg:   cfg,
		e:     New(cfg, slog.New(slog.DiscardHandler), store),
	}
}

func (ta *testApp) client(t *testing.T) *client {
	c := &client{t: t, e: ta.e, cookies: map[string]*http.Cookie{}}
	// prime the CSRF cookie
	c.get("/")
	return c
}

func (c *client) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
			continue
		}
		c.cookies[cookie.Name] = cookie
	}
	return rec
}

func (c *client) get(target string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.do(http.MethodGet, target, nil)
}

func (c *client) post(target string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := c.do(http.MethodPost, target, form)
	require.Equal(c.t, http.StatusSeeOther, rec.Code, "body: %s", rec.Body.String())
	return rec
}

func (c *client) registerAccount(email, name, password string) {
	c.t.Helper()
	rec := c.post("/register", url.Values{
		"email":    {email},
		"name":     {name},
		"password": {password},
	})
	require.Equal(c.t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestHomeAnonymous(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	c := ta.client(t)

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Unclaimed tasks")
	assert.Contains(t, body, "Nothing here yet.")

	c.post("/", url.Values{"text": {"buy milk"}})

	rec = c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "buy milk")
}

func TestRegisterClaimsOrphans(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	c := ta.client(t)

	c.post("/", url.Values{"text": {"buy milk"}})
	c.registerAccount("a@x.com", "A", "pw123")

	require.Contains(t, c.cookies, sec.SessionCookieName)

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "A's tasks")
	assert.Contains(t, body, "buy milk")

	// the orphan pool is now empty for everyone else
	orphans, err := ta.store.ListOrphanTasks(t.Context())
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.client(t).registerAccount("a@x.com", "A", "pw123")

	before, err := ta.store.ListUsers(t.Context(), "", 100)
	require.NoError(t, err)

	// a second, anonymous caller tries the same email
	c := ta.client(t)
	rec := c.post("/register", url.Values{
		"email":    {"a@x.com"},
		"name":     {"Imposter"},
		"password": {"other"},
	})
	require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
	assert.NotContains(t, c.cookies, sec.SessionCookieName)

	rec = c.get("/login")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already signed up with that email")

	after, err := ta.store.ListUsers(t.Context(), "", 100)
	require.NoError(t, err)
	assert.Len(t, after, len(before))
}

func TestLoginFailures(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.client(t).registerAccount("a@x.com", "A", "pw123")

	t.Run("unknown email", func(t *testing.T) {
		c := ta.client(t)
		rec := c.post("/login", url.Values{
			"email":    {"nobody@x.com"},
			"password": {"pw123"},
		})
		require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
		assert.NotContains(t, c.cookies, sec.SessionCookieName)

		rec = c.get("/login")
		assert.Contains(t, rec.Body.String(), "That email does not exist")
	})

	t.Run("wrong password", func(t *testing.T) {
		c := ta.client(t)
		rec := c.post("/login", url.Values{
			"email":    {"a@x.com"},
			"password": {"wrong"},
		})
		require.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
		assert.NotContains(t, c.cookies, sec.SessionCookieName)

		rec = c.get("/login")
		assert.Contains(t, rec.Body.String(), "Password incorrect")
	})
}

func TestLoginLogout(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	ta.client(t).registerAccount("a@x.com", "A", "pw123")

	c := ta.client(t)
	rec := c.post("/login", url.Values{
		"email":    {"a@x.com"},
		"password": {"pw123"},
	})
	require.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	require.Contains(t, c.cookies, sec.SessionCookieName)

	rec = c.get("/")
	assert.Contains(t, rec.Body.String(), "A's tasks")

	// a logged in caller may not revisit the login form
	rec = c.get("/login")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.get("/logout")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, c.cookies, sec.SessionCookieName)

	rec = c.get("/")
	assert.Contains(t, rec.Body.String(), "Unclaimed tasks")
}

func TestLogoutRequiresPrincipal(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	c := ta.client(t)

	rec := c.get("/logout")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminPage(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)

	first := ta.client(t)
	first.registerAccount("root@x.com", "Root", "pw123")

	second := ta.client(t)
	second.registerAccount("b@x.com", "B", "pw123")

	t.Run("anonymous is rejected", func(t *testing.T) {
		rec := ta.client(t).get("/admin")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("non-bootstrap user is rejected", func(t *testing.T) {
		rec := second.get("/admin")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("bootstrap user sees the roster", func(t *testing.T) {
		rec := first.get("/admin")
		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		assert.Contains(t, body, "root@x.com")
		assert.Contains(t, body, "b@x.com")
	})
}

func TestStaleSessionDegradesToAnonymous(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t)
	c := ta.client(t)
	c.cookies[sec.SessionCookieName] = &http.Cookie{
		Name:  sec.SessionCookieName,
		Value: "not.a.valid.token",
	}

	rec := c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unclaimed tasks")
}
