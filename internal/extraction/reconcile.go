package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
)

// NoDescription replaces a missing or empty description.
const NoDescription = "Produto sem descrição"

// Reconciler validates raw extraction candidates into line items.
// The zero value is ready to use and draws IDs from core.NewItemID.
type Reconciler struct {
	NewID func() string
}

var defaultReconciler Reconciler

// Reconcile is the lenient entry point: any payload that is empty or does not
// have the expected shape yields an empty slice.
func Reconcile(payload []byte) []core.LineItem {
	return defaultReconciler.Reconcile(payload)
}

// Parse is the strict entry point used by callers that surface parse failures.
func Parse(payload []byte) ([]core.LineItem, error) {
	return defaultReconciler.Parse(payload)
}

func (r Reconciler) Reconcile(payload []byte) []core.LineItem {
	items, err := r.Parse(payload)
	if err != nil {
		return []core.LineItem{}
	}
	return items
}

// Parse decodes payload as an array of candidate objects and reconciles each
// one in order. An empty payload is not an error and yields no items.
func (r Reconciler) Parse(payload []byte) ([]core.LineItem, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 {
		return []core.LineItem{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON value", ErrMalformedResponse)
	}
	if raw == nil {
		return []core.LineItem{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %T", ErrMalformedResponse, raw)
	}

	candidates := make([]map[string]any, 0, len(list))
	for i, el := range list {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T, not an object", ErrMalformedResponse, i, el)
		}
		candidates = append(candidates, obj)
	}
	return r.FromCandidates(candidates), nil
}

// FromCandidates applies the default substitution rules to each candidate:
// non-numeric quantity becomes 1, a missing or non-string description becomes
// NoDescription and a non-numeric unit price becomes 0. Numbers are kept
// verbatim, without rounding or sign checks.
func (r Reconciler) FromCandidates(candidates []map[string]any) []core.LineItem {
	newID := r.NewID
	if newID == nil {
		newID = core.NewItemID
	}

	items := make([]core.LineItem, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, core.LineItem{
			ID:          newID(),
			Quantity:    numberOr(c["quantity"], decimal.NewFromInt(1)),
			Description: descriptionOf(c["description"]),
			UnitPrice:   numberOr(c["unitPrice"], decimal.Zero),
		})
	}
	return items
}

func numberOr(v any, fallback decimal.Decimal) decimal.Decimal {
	switch n := v.(type) {
	case json.Number:
		// Exponents go through float64 so a value like 1e20000000 cannot
		// reach the formatter as a decimal with millions of digits.
		if strings.ContainsAny(n.String(), "eE") {
			if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
				return decimal.NewFromFloat(f)
			}
			return fallback
		}
		if d, err := decimal.NewFromString(n.String()); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(n)
	case int:
		return decimal.NewFromInt(int64(n))
	case int64:
		return decimal.NewFromInt(n)
	}
	return fallback
}

// descriptionOf keeps only non-empty strings.
func descriptionOf(v any) string {
	if d, ok := v.(string); ok && d != "" {
		return d
	}
	return NoDescription
}
