// Package web carries the page templates and browser assets compiled into
// the server binary.
package web

import "embed"

// TemplatesFS holds the layout, auth, quote and profile pages.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS is served under /static/.
//
//go:embed static/*
var StaticFS embed.FS
