// Package extraction turns photos of price lists into quote line items.
//
// The package holds the Extractor port implemented by the vision model
// adapters and the Reconciler, the pure transform that validates whatever
// the model returned.
package extraction

import (
	"context"
	"errors"

	"orcamento/internal/core"
)

// Image is the uploaded photo handed to the extraction model.
type Image struct {
	Data     []byte
	MIMEType string
}

// Extractor reads line items out of an image.
type Extractor interface {
	Extract(ctx context.Context, img Image) ([]core.LineItem, error)
}

// User facing failures of an extraction call.
var (
	ErrMissingAPIKey     = errors.New("chave de API (GEMINI_API_KEY) não encontrada; configure a variável de ambiente")
	ErrInvalidAPIKey     = errors.New("a chave de API do Gemini fornecida é inválida")
	ErrRegionUnsupported = errors.New("a API do Gemini não está disponível na sua região atual")
	ErrMalformedResponse = errors.New("resposta da extração em formato inesperado")
	ErrEmptyImage        = errors.New("imagem vazia")
)
