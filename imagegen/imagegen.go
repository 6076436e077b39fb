// Package imagegen turns a text prompt into one square image through an
// external image-generation API.
package imagegen

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrEmptyPrompt is returned when Generate is called without a prompt.
var ErrEmptyPrompt = errors.New("imagegen: prompt is required")

// Size is the edge length requested from every provider.
const Size = 1024

// Generator produces a single image for a prompt.
type Generator interface {
	// Generate returns the image as standard base64 without a data URI prefix.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ErrorMessage extracts the message an upstream API attached to err.
// Replies without a usable message are described by their HTTP status and
// body, and anything else falls back to err.Error(). The result is never
// empty for a non-nil err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var genErr *Error
	if errors.As(err, &genErr) && genErr.Message != "" {
		return genErr.Message
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return statusMessage(reqErr.HTTPStatus, reqErr.HTTPStatusCode, reqErr.Body)
	}
	if apiErr != nil && (apiErr.HTTPStatus != "" || apiErr.HTTPStatusCode != 0) {
		return statusMessage(apiErr.HTTPStatus, apiErr.HTTPStatusCode, nil)
	}
	if msg := strings.TrimSpace(strings.TrimPrefix(err.Error(), "imagegen: ")); msg != "" {
		return msg
	}
	return fallbackMessage
}

const (
	fallbackMessage  = "image generation failed"
	maxBodyInMessage = 200
)

// statusMessage describes an upstream reply that carried no error message.
func statusMessage(status string, code int, body []byte) string {
	if status == "" && code != 0 {
		status = strconv.Itoa(code)
	}
	if status == "" {
		return fallbackMessage
	}
	msg := "upstream returned " + status
	text := strings.Join(strings.Fields(string(body)), " ")
	if text == "" {
		return msg
	}
	if len(text) > maxBodyInMessage {
		text = text[:maxBodyInMessage] + "..."
	}
	return msg + ": " + text
}

// Error is a provider failure that carries a user-facing message.
type Error struct {
	Provider string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return "imagegen: " + e.Provider + ": " + e.Message + ": " + e.Err.Error()
	}
	return "imagegen: " + e.Provider + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }
