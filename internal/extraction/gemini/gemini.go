// Package gemini implements extraction.Extractor on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"orcamento/internal/core"
	"orcamento/internal/extraction"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-3-flash-preview"

const prompt = "Analise esta imagem de uma lista de orçamento ou nota. Extraia cada item " +
	"contendo: quantidade (número), descrição (texto) e preço unitário (número). " +
	"Retorne APENAS um array JSON de objetos com as chaves: quantity, description, unitPrice. " +
	"Se o preço unitário não estiver visível, coloque 0. Se a quantidade não estiver clara, coloque 1."

// generator is the slice of the genai client used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client sends a photo to Gemini and reconciles the JSON it answers with.
type Client struct {
	gen        generator
	model      string
	reconciler extraction.Reconciler
}

// Option customises a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithReconciler replaces the reconciler, mostly to pin IDs in tests.
func WithReconciler(r extraction.Reconciler) Option {
	return func(c *Client) { c.reconciler = r }
}

// New builds a client for the Gemini Developer API. An empty apiKey is not an
// error here: the returned client fails every Extract with
// extraction.ErrMissingAPIKey, so the rest of the app keeps working.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	c := &Client{model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	if apiKey == "" {
		slog.Warn("Gemini API key not configured, extraction disabled")
		return c, nil
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.gen = gc.Models
	return c, nil
}

// newWithGenerator is used by tests to plug a fake model.
func newWithGenerator(gen generator, opts ...Option) *Client {
	c := &Client{gen: gen, model: DefaultModel}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Extract implements extraction.Extractor.
func (c *Client) Extract(ctx context.Context, img extraction.Image) ([]core.LineItem, error) {
	if c.gen == nil {
		return nil, extraction.ErrMissingAPIKey
	}
	if len(img.Data) == 0 {
		return nil, extraction.ErrEmptyImage
	}
	mime := img.MIMEType
	if mime == "" {
		mime = DetectMIMEType(img.Data)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   itemsSchema(),
	}

	slog.InfoContext(ctx, "Extracting items from image",
		"model", c.model,
		"size", len(img.Data),
		"mime_type", mime)

	resp, err := c.gen.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		mapped := classify(err)
		slog.ErrorContext(ctx, "Gemini request failed", "error", err, "model", c.model)
		return nil, mapped
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		slog.InfoContext(ctx, "Gemini returned no content")
		return []core.LineItem{}, nil
	}

	items, err := c.reconciler.Parse([]byte(text))
	if err != nil {
		slog.ErrorContext(ctx, "Gemini answered with unexpected JSON", "error", err)
		return nil, err
	}
	slog.InfoContext(ctx, "Items extracted", "count", len(items))
	return items, nil
}

func itemsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"quantity":    {Type: genai.TypeNumber},
				"description": {Type: genai.TypeString},
				"unitPrice":   {Type: genai.TypeNumber},
			},
			Required: []string{"quantity", "description", "unitPrice"},
		},
	}
}

// classify maps upstream failures to the user facing extraction errors.
func classify(err error) error {
	msg := err.Error()
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		msg = apiErr.Message
	}
	switch {
	case strings.Contains(msg, "API key not valid"):
		return extraction.ErrInvalidAPIKey
	case strings.Contains(msg, "User location is not supported"):
		return extraction.ErrRegionUnsupported
	}
	return fmt.Errorf("falha ao analisar imagem: %w", err)
}

// DetectMIMEType sniffs the image type, falling back to JPEG.
func DetectMIMEType(data []byte) string {
	switch ct := http.DetectContentType(data); ct {
	case "image/png", "image/jpeg", "image/webp", "image/gif":
		return ct
	}
	return "image/jpeg"
}
