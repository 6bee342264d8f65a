package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"orcamento/internal/cache"
	"orcamento/internal/core"
)

var (
	ErrRemoteLogoBlocked = errors.New("remote logo not allowed")
	ErrUnsupportedLogo   = errors.New("unsupported logo image")
)

const maxRemoteLogoBytes = 2 << 20

// Logo is a decoded logo image.
type Logo struct {
	Data     []byte
	MIMEType string
}

// LogoSource resolves a logo reference into image bytes. Remote images are
// cached by URL.
type LogoSource struct {
	client *http.Client
	cache  *cache.LRUCache[Logo]
}

func NewLogoSource(client *http.Client, ttl time.Duration) *LogoSource {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &LogoSource{client: client, cache: cache.NewLRUCache[Logo](64, ttl)}
}

// Cache exposes the logo cache so it can be swept periodically.
func (s *LogoSource) Cache() cache.Cleaner { return s.cache }

// Load returns the image behind ref. ref is normalized first, so Drive share
// links work. Remote references are refused unless allowRemote is set.
func (s *LogoSource) Load(ctx context.Context, ref string, allowRemote bool) (Logo, error) {
	ref = core.NormalizeLogo(strings.TrimSpace(ref))
	if ref == "" {
		return Logo{}, nil
	}
	if core.IsInlineLogo(ref) {
		return decodeDataURI(ref)
	}
	if !allowRemote {
		return Logo{}, ErrRemoteLogoBlocked
	}
	if l, ok := s.cache.Get(ref); ok {
		return l, nil
	}
	l, err := s.fetch(ctx, ref)
	if err != nil {
		return Logo{}, err
	}
	s.cache.Set(ref, l)
	return l, nil
}

func (s *LogoSource) fetch(ctx context.Context, ref string) (Logo, error) {
	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Logo{}, fmt.Errorf("%w: %q is not an image URL", ErrUnsupportedLogo, ref)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return Logo{}, fmt.Errorf("build logo request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Logo{}, fmt.Errorf("fetch logo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Logo{}, fmt.Errorf("fetch logo: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteLogoBytes+1))
	if err != nil {
		return Logo{}, fmt.Errorf("read logo: %w", err)
	}
	if len(data) > maxRemoteLogoBytes {
		return Logo{}, fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedLogo, maxRemoteLogoBytes)
	}
	return sniff(data, resp.Header.Get("Content-Type"))
}

// decodeDataURI handles "data:<mime>;base64,<payload>".
func decodeDataURI(ref string) (Logo, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return Logo{}, fmt.Errorf("%w: malformed data URI", ErrUnsupportedLogo)
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return Logo{}, fmt.Errorf("%w: data URI is not base64", ErrUnsupportedLogo)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Logo{}, fmt.Errorf("%w: %v", ErrUnsupportedLogo, err)
	}
	return sniff(data, mime)
}

// sniff trusts the bytes over the declared type.
func sniff(data []byte, declared string) (Logo, error) {
	mime := http.DetectContentType(data)
	switch mime {
	case "image/png", "image/jpeg", "image/gif":
		return Logo{Data: data, MIMEType: mime}, nil
	}
	return Logo{}, fmt.Errorf("%w: %s (declared %q)", ErrUnsupportedLogo, mime, declared)
}
