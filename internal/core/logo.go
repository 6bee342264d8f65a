package core

import (
	"regexp"
	"strings"
)

// driveContentURL serves Drive files with CORS headers, which lets the
// exporter fetch the logo image.
const driveContentURL = "https://lh3.googleusercontent.com/d/"

var (
	driveFileRe  = regexp.MustCompile(`/file/d/([^/]+)/`)
	driveQueryRe = regexp.MustCompile(`id=([^&]+)`)
)

// NormalizeLogo turns a user-supplied logo reference into a renderable one.
//
// Inline data: payloads and plain image URLs are returned unchanged. Google
// Drive share links (".../file/d/<ID>/..." or "...?id=<ID>") are rewritten to
// the direct content endpoint. An empty reference stays empty.
func NormalizeLogo(ref string) string {
	if ref == "" {
		return ""
	}
	if strings.HasPrefix(ref, "data:") {
		return ref
	}

	var id string
	if m := driveFileRe.FindStringSubmatch(ref); m != nil {
		id = m[1]
	} else if m := driveQueryRe.FindStringSubmatch(ref); m != nil {
		id = m[1]
	}
	if id != "" {
		return driveContentURL + id
	}
	return ref
}

// IsInlineLogo reports whether ref carries the image bytes itself.
func IsInlineLogo(ref string) bool {
	return strings.HasPrefix(ref, "data:")
}
