package views

import (
	"bytes"

	"github.com/a-h/templ"
)

// NotFound renders the 404 page.
func NotFound(cfg SiteConfig) templ.Component {
	return page(cfg, "Not found", func(buf *bytes.Buffer) {
		buf.WriteString(`<h1>Not found</h1><p class="lead">That page does not exist. <a href="/">Back to the showcase</a>.</p>`)
	})
}

// ServerError renders the 500 page.
func ServerError(cfg SiteConfig) templ.Component {
	return page(cfg, "Error", func(buf *bytes.Buffer) {
		buf.WriteString(`<h1>Something went wrong</h1><p class="lead">Please try again in a moment. <a href="/">Back to the showcase</a>.</p>`)
	})
}
