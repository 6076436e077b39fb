package views

import (
	"html"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"
)

func esc(s string) string {
	return html.EscapeString(s)
}

// Initial returns the upper-cased first letter of name for the avatar badge.
func Initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "?"
	}
	return string(unicode.ToUpper(r))
}

// Capitalize upper-cases the first letter of an alert message.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// DownloadPath is the route that serves a post's image as an attachment.
func DownloadPath(id string) string {
	return "/posts/" + url.PathEscape(id) + "/download/"
}

// disabled renders the disabled attribute when enabled is false.
func disabled(enabled bool) string {
	if enabled {
		return ""
	}
	return " disabled"
}
