package app

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed template/*.html
var templateFiles embed.FS

// renderer satisfies [echo.Renderer] over the embedded page templates.
type renderer struct {
	templates *template.Template
}

func newRenderer() *renderer {
	return &renderer{
		templates: template.Must(template.ParseFS(templateFiles, "template/*.html")),
	}
}

// Render satisfies [echo.Renderer].
func (r *renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

// noticeCookieName carries a one-shot notice across a redirect.
const noticeCookieName = "taskdeck_notice"

// setNotice stores a user-visible notice for the next page render.
func setNotice(c echo.Context, notice string) {
	c.SetCookie(&http.Cookie{
		Name:     noticeCookieName,
		Value:    url.QueryEscape(notice),
		Path:     "/",
		MaxAge:   int(time.Minute.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeNotice returns the pending notice, if any, and clears it.
func takeNotice(c echo.Context) string {
	cookie, err := c.Cookie(noticeCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	c.SetCookie(&http.Cookie{
		Name:   noticeCookieName,
		Path:   "/",
		MaxAge: -1,
	})
	notice, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return notice
}
