package dalleboard

import (
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/dalleboard/views"
)

const sessionName = "dalleboard_session"

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' https: data:; font-src 'self'; connect-src 'self'; form-action 'self'"

// hasPrefix reports whether the request path starts with any of prefixes.
func hasPrefix(c echo.Context, prefixes ...string) bool {
	path := c.Request().URL.Path
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)
	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.NonWWWRedirect())

	e.Use(requestLogger())
	e.Use(middleware.Recover())
	// Shared photos arrive as base64 data URIs, so bodies run large.
	e.Use(middleware.BodyLimit(a.Config.BodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Images are already compressed.
			return hasPrefix(c, "/public/", "/posts/")
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: contentSecurityPolicy,
		HSTSMaxAge:            31536000,
	}))
	e.Use(session.Middleware(a.newSessionStore()))
	e.Use(a.csrf())
	e.Use(middleware.AddTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return hasPrefix(c, "/public", "/api")
		},
	}))
	e.Use(cacheControlMiddleware)
}

// requestLogger logs one line per request, at warn or error level for
// failed ones.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			switch {
			case v.Status >= 500:
				c.Logger().Errorf("%s %s -> %d (%s) from %s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			case v.Status >= 400:
				c.Logger().Warnf("%s %s -> %d (%s) from %s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			default:
				c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			}
			return nil
		},
	})
}

// csrf protects the HTML form. The JSON API is called cross-origin and is
// left to CORS.
func (a *App) csrf() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		Skipper: func(c echo.Context) bool {
			return hasPrefix(c, "/api/")
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	})
}

// apiCORS lets any origin call the JSON API, like the standalone client does.
func apiCORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept},
	})
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		h := c.Response().Header()
		switch {
		case hasPrefix(c, "/public/uploads/"):
			// Upload names are random and never reused.
			h.Set("Cache-Control", "public, max-age=31536000, immutable")
		case hasPrefix(c, "/public/"):
			h.Set("Cache-Control", "public, max-age=86400")
		case hasPrefix(c, "/posts/"):
			h.Set("Cache-Control", "public, max-age=86400")
		default:
			h.Set("Cache-Control", "no-store")
		}
		return next(c)
	}
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// Flash keys in the session.
const (
	flashInfo  = "info"
	flashError = "error"
)

// addFlash queues a one-shot message shown on the next page render.
func addFlash(c echo.Context, msg string, isErr bool) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	key := flashInfo
	if isErr {
		key = flashError
	}
	sess.AddFlash(msg, key)
	return sess.Save(c.Request(), c.Response())
}

// popFlashes returns and clears queued messages, errors first.
func popFlashes(c echo.Context) []views.Flash {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	var out []views.Flash
	for _, key := range []string{flashError, flashInfo} {
		for _, f := range sess.Flashes(key) {
			if s, ok := f.(string); ok {
				out = append(out, views.Flash{Message: s, Error: key == flashError})
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("clear flashes: %v", err)
	}
	return out
}

// CsrfToken returns the token the CSRF middleware stored for this request.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
