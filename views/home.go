package views

import (
	"bytes"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/dalleboard/store"
)

// Flash is a one-shot message carried across the share redirect.
type Flash struct {
	Message string
	Error   bool
}

// Home renders the community showcase: newest posts first, filtered by query.
func Home(cfg SiteConfig, posts []store.Post, query string, flashes []Flash) templ.Component {
	return page(cfg, "", func(buf *bytes.Buffer) {
		for _, f := range flashes {
			alert(buf, f.Message, !f.Error)
		}
		buf.WriteString(`<h1>The Community Showcase</h1>`)
		buf.WriteString(`<p class="lead">Browse through a collection of imaginative and visually stunning images generated by DALL-E AI</p>`)
		buf.WriteString(`<form class="search" method="get" action="/">`)
		buf.WriteString(`<input type="search" name="q" placeholder="Search posts" value="` + esc(query) + `">`)
		buf.WriteString(`<button class="btn" type="submit">Search</button></form>`)

		if query != "" {
			buf.WriteString(`<p class="hint">Showing results for <strong>` + esc(query) + `</strong> (` + strconv.Itoa(len(posts)) + `)</p>`)
		}
		if len(posts) == 0 {
			if query != "" {
				buf.WriteString(`<p class="empty">No search results found</p>`)
			} else {
				buf.WriteString(`<p class="empty">No posts yet</p>`)
			}
			return
		}
		buf.WriteString(`<div class="gallery">`)
		for _, p := range posts {
			card(buf, p)
		}
		buf.WriteString(`</div>`)
	})
}

func card(buf *bytes.Buffer, p store.Post) {
	buf.WriteString(`<figure class="card">`)
	buf.WriteString(`<img src="` + esc(p.Photo) + `" alt="` + esc(p.Prompt) + `" loading="lazy">`)
	buf.WriteString(`<figcaption class="meta"><p class="prompt">` + esc(p.Prompt) + `</p>`)
	buf.WriteString(`<div class="byline"><span><span class="avatar">` + esc(Initial(p.Name)) + `</span>` + esc(p.Name) + `</span>`)
	buf.WriteString(`<a class="btn btn-light" href="` + esc(DownloadPath(p.ID)) + `">Download</a></div>`)
	buf.WriteString(`</figcaption></figure>`)
}
