package views

import (
	"bytes"

	"github.com/a-h/templ"
)

// Create renders the create-post form. alert, when set, is shown above the
// form. Buttons are disabled according to form.CanGenerate and form.CanShare.
func Create(cfg SiteConfig, form CreateForm, alertMsg string, csrfToken string) templ.Component {
	return page(cfg, "Create", func(buf *bytes.Buffer) {
		buf.WriteString(`<h1>Create</h1>`)
		buf.WriteString(`<p class="lead">Create imaginative and visually stunning images through DALL-E AI and share them with the community</p>`)
		if alertMsg != "" {
			alert(buf, alertMsg, false)
		}

		buf.WriteString(`<form id="create-form" class="create" method="post" action="/create/">`)
		buf.WriteString(`<input type="hidden" name="_csrf" value="` + esc(csrfToken) + `">`)
		buf.WriteString(`<input type="hidden" name="photo" value="` + esc(form.Photo) + `">`)

		buf.WriteString(`<div class="field"><label for="name">Your Name</label>`)
		buf.WriteString(`<input id="name" type="text" name="name" placeholder="John Doe" value="` + esc(form.Name) + `"></div>`)

		buf.WriteString(`<div class="field"><label for="prompt">Prompt`)
		buf.WriteString(`<button class="btn btn-light" type="submit" name="action" value="surprise" formnovalidate>Surprise me</button></label>`)
		buf.WriteString(`<input id="prompt" type="text" name="prompt" placeholder="A plush toy robot sitting against a yellow wall" value="` + esc(form.Prompt) + `"></div>`)

		buf.WriteString(`<div class="preview">`)
		if form.Photo != "" {
			buf.WriteString(`<img src="` + esc(form.Photo) + `" alt="` + esc(form.Prompt) + `">`)
		} else {
			buf.WriteString(`<img class="placeholder" src="/public/preview.svg" alt="preview">`)
		}
		buf.WriteString(`</div>`)

		buf.WriteString(`<div><button class="btn btn-generate" type="submit" name="action" value="generate"` + disabled(form.CanGenerate) + `>Generate</button></div>`)

		buf.WriteString(`<div><p class="hint">Once you have created the image you want, you can share it with others in the community.</p>`)
		buf.WriteString(`<button class="btn" type="submit" name="action" value="share"` + disabled(form.CanShare) + `>Share with the community</button></div>`)
		buf.WriteString(`</form>`)
	})
}
