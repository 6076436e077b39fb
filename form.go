package dalleboard

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/eringen/dalleboard/imagegen"
	"github.com/eringen/dalleboard/store"
)

// ErrPromptRequired is the alert raised when generating without a prompt.
var ErrPromptRequired = errors.New("enter a prompt to generate")

// photoDataURI turns a generator's bare base64 into something an <img> can
// show. The MIME type is sniffed from the leading bytes; anything that does
// not look like an image is labelled JPEG.
func photoDataURI(b64 string) string {
	head := b64
	if len(head) > sniffChars {
		head = head[:sniffChars]
	}
	head = head[:len(head)/4*4]
	mime := "image/jpeg"
	if data, err := base64.StdEncoding.DecodeString(head); err == nil {
		if t := http.DetectContentType(data); strings.HasPrefix(t, "image/") {
			mime = t
		}
	}
	return "data:" + mime + ";base64," + b64
}

// sniffChars is enough base64 to cover the 512 bytes DetectContentType reads.
const sniffChars = 684

// Form field names accepted by Form.Set.
const (
	FieldName   = "name"
	FieldPrompt = "prompt"
	FieldPhoto  = "photo"
)

// Sharer persists a finished form as a post.
type Sharer interface {
	CreatePost(ctx context.Context, p store.Post) (store.Post, error)
}

// Form is the create-post form: the user's name, the prompt, and the
// generated photo as a data URI. Generating is true only while a Generate
// call is in flight.
type Form struct {
	Name       string
	Prompt     string
	Photo      string
	Generating bool
}

// CanGenerate reports whether the generate action is enabled.
func (f Form) CanGenerate() bool {
	return f.Prompt != ""
}

// CanShare reports whether the share action is enabled.
func (f Form) CanShare() bool {
	return f.Prompt != "" && f.Photo != ""
}

// Set replaces one field and leaves the others untouched.
func (f *Form) Set(field, value string) error {
	switch field {
	case FieldName:
		f.Name = value
	case FieldPrompt:
		f.Prompt = value
	case FieldPhoto:
		f.Photo = value
	default:
		return fmt.Errorf("unknown form field %q", field)
	}
	return nil
}

// Generate asks gen for an image of the prompt and stores it as the photo.
// Without a prompt it returns ErrPromptRequired and makes no call. Errors
// from gen are returned unchanged for the caller to show; the photo is kept.
func (f *Form) Generate(ctx context.Context, gen imagegen.Generator) error {
	if !f.CanGenerate() {
		return ErrPromptRequired
	}
	f.Generating = true
	defer func() { f.Generating = false }()

	photo, err := gen.Generate(ctx, f.Prompt)
	if err != nil {
		return err
	}
	f.Photo = photoDataURI(photo)
	return nil
}

// Share sends the whole form to s. Callers navigate away whatever the outcome.
func (f *Form) Share(ctx context.Context, s Sharer) (store.Post, error) {
	return s.CreatePost(ctx, store.Post{
		Name:   f.Name,
		Prompt: f.Prompt,
		Photo:  f.Photo,
	})
}

// SurpriseMe replaces the prompt with a different random one.
func (f *Form) SurpriseMe(p *PromptPicker) error {
	prompt, err := p.Pick(f.Prompt)
	if err != nil {
		return err
	}
	f.Prompt = prompt
	return nil
}
