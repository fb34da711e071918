package socialmuse

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func (a *App) page(c echo.Context, ws *Workspace) (Page, error) {
	hasKey, err := ws.HasSelectedKey(c.Request().Context())
	if err != nil {
		return Page{}, err
	}
	return Page{
		SiteName:  a.Config.Name,
		State:     ws.Snapshot(),
		CSRFToken: CsrfToken(c),
		HasKey:    hasKey,
	}, nil
}

// html renders cmp into a buffer before writing, so a failed render leaves
// the response uncommitted for the error handler.
func (a *App) html(c echo.Context, code int, cmp templ.Component) error {
	var buf bytes.Buffer
	if err := cmp.Render(c.Request().Context(), &buf); err != nil {
		return err
	}
	return c.HTMLBlob(code, buf.Bytes())
}

// renderPage renders p with the key gate in front of every page.
func (a *App) renderPage(c echo.Context, p Page, view func(Page) templ.Component) error {
	if !p.HasKey {
		return a.html(c, http.StatusOK, a.Views.KeyRequired(p))
	}
	return a.html(c, http.StatusOK, view(p))
}

func (a *App) handleHome(c echo.Context) error {
	ws := CurrentWorkspace(c)
	ws.SetView(ViewHome)
	p, err := a.page(c, ws)
	if err != nil {
		return err
	}
	return a.renderPage(c, p, a.Views.Home)
}

func (a *App) handleHistory(c echo.Context) error {
	ws := CurrentWorkspace(c)
	ws.SetView(ViewHistory)
	p, err := a.page(c, ws)
	if err != nil {
		return err
	}
	return a.renderPage(c, p, a.Views.History)
}

// modelContext detaches a model call from the request: a browser that
// navigates away does not abort the call. The timeout still bounds it.
func (a *App) modelContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.Request().Context()), a.Config.GenerationTimeout)
}

func (a *App) handleGenerate(c echo.Context) error {
	ws := CurrentWorkspace(c)
	size, err := ParseImageSize(c.FormValue("size"))
	if err != nil {
		size = Size1K
	}
	data := CampaignData{
		Idea:      c.FormValue("idea"),
		Tone:      Tone(c.FormValue("tone")),
		ImageSize: size,
	}

	ctx, cancel := a.modelContext(c)
	defer cancel()
	if _, err := ws.Generate(ctx, data); err != nil && !IsSuperseded(err) {
		var genErr *GenerationError
		if !errors.As(err, &genErr) {
			return err
		}
		// The failure is recorded in the workspace state and shown on the page.
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleSelect(c echo.Context) error {
	ws := CurrentWorkspace(c)
	if err := ws.SelectCampaign(c.Param("id")); err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleDelete(c echo.Context) error {
	ws := CurrentWorkspace(c)
	if err := ws.DeleteCampaign(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/history/")
}

func (a *App) handleImage(c echo.Context) error {
	ws := CurrentWorkspace(c)
	id := c.Param("id")
	platform, err := ParsePlatform(c.Param("platform"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound)
	}

	ctx, cancel := a.modelContext(c)
	defer cancel()
	uri, err := ws.RenderImage(ctx, id, platform)
	if err != nil {
		if errors.Is(err, ErrCampaignNotFound) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		var imgErr *ImageError
		if !errors.As(err, &imgErr) {
			return err
		}
		return a.html(c, http.StatusOK, a.Views.PostImageError(id, platform, imgErr.UserMessage()))
	}
	return a.html(c, http.StatusOK, a.Views.PostImage(id, platform, uri))
}

func (a *App) handleExport(c echo.Context) error {
	ws := CurrentWorkspace(c)
	filename, body, err := ws.Export()
	if err != nil {
		if errors.Is(err, ErrNoActiveCampaign) {
			return echo.NewHTTPError(http.StatusNotFound)
		}
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, []byte(body))
}

func (a *App) handleSignUp(c echo.Context) error {
	return a.authenticate(c, "signup", func(ctx context.Context, ws *Workspace) error {
		_, err := ws.SignUp(ctx, c.FormValue("name"), c.FormValue("email"), c.FormValue("password"))
		return err
	})
}

func (a *App) handleSignIn(c echo.Context) error {
	return a.authenticate(c, "signin", func(ctx context.Context, ws *Workspace) error {
		_, err := ws.SignIn(ctx, c.FormValue("email"), c.FormValue("password"))
		return err
	})
}

// authenticate runs a sign-in or sign-up behind the per-IP limiter. Auth
// failures re-render the page with the form open and the message inline.
func (a *App) authenticate(c echo.Context, mode string, fn func(context.Context, *Workspace) error) error {
	ws := CurrentWorkspace(c)
	ip := c.RealIP()

	// Allow reserves the attempt before running it, so concurrent posts
	// from one address cannot all pass the check.
	var err error = ErrTooManyAttempts
	if a.limiter.Allow(ip) {
		err = fn(c.Request().Context(), ws)
	}
	if err == nil {
		a.limiter.Reset(ip)
		return c.Redirect(http.StatusSeeOther, "/")
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		return err
	}
	a.Logger.Info("authentication rejected",
		zap.String("mode", mode),
		zap.String("workspace", ws.ID),
		zap.String("reason", authErr.Message))

	p, perr := a.page(c, ws)
	if perr != nil {
		return perr
	}
	p.AuthMode = mode
	p.AuthError = authErr.Message
	return a.renderPage(c, p, a.Views.Home)
}

func (a *App) handleSignOut(c echo.Context) error {
	if err := CurrentWorkspace(c).SignOut(c.Request().Context()); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleSelectKey(c echo.Context) error {
	ws := CurrentWorkspace(c)
	key := strings.TrimSpace(c.FormValue("api_key"))
	if err := ws.SelectKey(c.Request().Context(), key); err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			return c.Redirect(http.StatusSeeOther, "/")
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = a.html(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.Logger.Error("server error", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		_ = a.html(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
