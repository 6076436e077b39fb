package views

import (
	"bytes"
	"context"
	"io"

	"github.com/a-h/templ"
)

// page wraps body in the shared document shell and header.
func page(cfg SiteConfig, title string, body func(buf *bytes.Buffer)) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var buf bytes.Buffer
		buf.WriteString(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		buf.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		buf.WriteString(`<meta property="og:site_name" content="` + esc(cfg.Name) + `">`)
		if cfg.URL != "" {
			buf.WriteString(`<meta property="og:url" content="` + esc(cfg.URL) + `/">`)
		}
		buf.WriteString(`<title>`)
		if title != "" {
			buf.WriteString(esc(title) + " | ")
		}
		buf.WriteString(esc(cfg.Name))
		buf.WriteString(`</title><link rel="stylesheet" href="/public/app.css"></head><body>`)
		buf.WriteString(`<header><a class="brand" href="/">` + esc(cfg.Name) + `</a>`)
		buf.WriteString(`<a class="btn" href="/create/">Create</a></header><main>`)
		body(&buf)
		buf.WriteString(`</main><script src="/public/app.js" defer></script></body></html>`)
		_, err := w.Write(buf.Bytes())
		return err
	})
}

// alert renders a dismissable message box. Errors use the default style,
// notices the info style.
func alert(buf *bytes.Buffer, msg string, info bool) {
	class := "alert"
	if info {
		class += " info"
	}
	buf.WriteString(`<div class="` + class + `" role="alert"><span>` + esc(Capitalize(msg)) + `</span>`)
	buf.WriteString(`<button type="button" data-dismiss aria-label="Dismiss">&times;</button></div>`)
}
