package dalleboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/dalleboard/imagegen"
	"github.com/eringen/dalleboard/store"
	"github.com/eringen/dalleboard/views"
)

// render writes cmp as an HTML page with the given status.
func render(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

const sharedMessage = "Your image has been shared with the community"

func (a *App) handleHome(c echo.Context) error {
	q := c.QueryParam("q")
	posts, err := a.Posts.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	posts = NewestFirst(FilterPosts(posts, q))
	return render(c, http.StatusOK, views.Home(a.siteConfig(), posts, strings.TrimSpace(q), popFlashes(c)))
}

func (a *App) handleCreate(c echo.Context) error {
	return a.renderCreate(c, http.StatusOK, Form{}, "")
}

// handleCreateAction runs one form action. The browser posts every field on
// each submit, so the form is rebuilt from the request each time.
func (a *App) handleCreateAction(c echo.Context) error {
	var form Form
	for _, field := range []string{FieldName, FieldPrompt, FieldPhoto} {
		if err := form.Set(field, c.FormValue(field)); err != nil {
			return err
		}
	}
	ctx := c.Request().Context()

	switch action := c.FormValue("action"); action {
	case "generate":
		if err := form.Generate(ctx, a.Images); err != nil {
			if errors.Is(err, ErrPromptRequired) {
				return a.renderCreate(c, http.StatusUnprocessableEntity, form, err.Error())
			}
			c.Logger().Warnf("generate image: %v", err)
			return a.renderCreate(c, http.StatusOK, form, imagegen.ErrorMessage(err))
		}
		return a.renderCreate(c, http.StatusOK, form, "")

	case "surprise":
		if err := form.SurpriseMe(a.Prompts); err != nil {
			return err
		}
		return a.renderCreate(c, http.StatusOK, form, "")

	case "share":
		msg, isErr := sharedMessage, false
		if _, err := form.Share(ctx, a.Posts); err != nil {
			c.Logger().Errorf("share post: %v", err)
			msg, isErr = shareErrorMessage(err), true
		}
		if err := addFlash(c, msg, isErr); err != nil {
			c.Logger().Warnf("save flash: %v", err)
		}
		return c.Redirect(http.StatusSeeOther, "/")

	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown action %q", action))
	}
}

func (a *App) renderCreate(c echo.Context, code int, form Form, alert string) error {
	return render(c, code, views.Create(a.siteConfig(), views.CreateForm{
		Name:        form.Name,
		Prompt:      form.Prompt,
		Photo:       form.Photo,
		CanGenerate: form.CanGenerate(),
		CanShare:    form.CanShare(),
	}, alert, CsrfToken(c)))
}

func shareErrorMessage(err error) string {
	if errors.Is(err, store.ErrInvalidPost) {
		return "please generate an image and fill in every field before sharing"
	}
	return "sharing failed: " + imagegen.ErrorMessage(err)
}

// handleDownload serves a post's image as an attachment. Locally hosted
// uploads come straight from the static dir; anything else is proxied.
func (a *App) handleDownload(c echo.Context) error {
	id := c.Param("id")
	post, err := a.Posts.GetPost(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}
	name := DownloadName(post.ID)

	localPrefix := strings.TrimSuffix(a.Config.URL, "/") + "/public/"
	if rel, ok := strings.CutPrefix(post.Photo, localPrefix); ok {
		if strings.Contains(rel, "..") {
			return echo.ErrNotFound
		}
		return c.Attachment(filepath.Join(a.Config.StaticDir, filepath.FromSlash(rel)), name)
	}

	req, err := http.NewRequestWithContext(c.Request().Context(), http.MethodGet, post.Photo, nil)
	if err != nil {
		return fmt.Errorf("download post %s: %w", post.ID, err)
	}
	resp, err := a.remote.Do(req)
	if err != nil {
		return fmt.Errorf("download post %s: %w", post.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download post %s: upstream status %d", post.ID, resp.StatusCode)
	}

	contentType := resp.Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "image/jpeg"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Stream(http.StatusOK, contentType, io.LimitReader(resp.Body, maxDownloadBytes))
}

const maxDownloadBytes = 20 << 20

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = render(c, http.StatusNotFound, views.NotFound(a.siteConfig()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = render(c, code, views.ServerError(a.siteConfig()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
