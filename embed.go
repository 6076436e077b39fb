package dalleboard

import "embed"

// EmbeddedAssets contains static assets shipped with the binary:
// app.js, app.css, preview.svg
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

var embeddedFiles = []string{"app.js", "app.css", "preview.svg"}
