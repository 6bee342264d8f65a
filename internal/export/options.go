package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Options are the capture settings of the quote document.
type Options struct {
	// Scale is the pixel density of embedded raster images relative to
	// the layout: a logo drawn in an 80px box is embedded at 80*Scale px.
	Scale float64
	// Background is the page color as #rrggbb.
	Background string
	// CrossOrigin allows fetching a logo hosted on another origin.
	CrossOrigin bool
	// WindowWidth is the layout width in CSS pixels.
	WindowWidth int
}

// DefaultOptions are the settings used for every download.
func DefaultOptions() Options {
	return Options{
		Scale:       3,
		Background:  "#ffffff",
		CrossOrigin: true,
		WindowWidth: 1200,
	}
}

// ErrEmptyQuote is returned when asked to render a quote without items.
var ErrEmptyQuote = errors.New("quote has no items")

// EmptyQuoteMessage is shown when a download is requested for an empty quote.
const EmptyQuoteMessage = "Adicione itens ao orçamento antes de baixar."

// Renderer turns a quote into a downloadable document.
type Renderer interface {
	Render(ctx context.Context, w io.Writer, q Quote, opts Options) error
	ContentType() string
	Extension() string
}

// Filename is the download name for a document produced at t.
func Filename(t time.Time, ext string) string {
	return "orcamento-" + strconv.FormatInt(t.UnixMilli(), 10) + "." + strings.TrimPrefix(ext, ".")
}

type rgb struct{ r, g, b int }

// parseHexColor accepts #rgb and #rrggbb.
func parseHexColor(s string) (rgb, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return rgb{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return rgb{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return rgb{int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)}, nil
}
