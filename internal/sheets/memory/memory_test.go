package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"orcamento/internal/core"
	"orcamento/internal/sheets"
)

func TestAppendQuote(t *testing.T) {
	s := New()
	items := []core.LineItem{{ID: "a", Quantity: decimal.NewFromInt(1), Description: "x", UnitPrice: decimal.NewFromInt(10)}}
	rec := sheets.QuoteRecord{QuoteID: "q", IssuedAt: time.Now(), Items: items, Summary: core.Summarize(items)}

	ref, err := s.AppendQuote(context.Background(), rec)
	if err != nil || ref != "mem:1-4" {
		t.Fatalf("first append: ref=%q err=%v", ref, err)
	}
	ref, err = s.AppendQuote(context.Background(), rec)
	if err != nil || ref != "mem:5-8" {
		t.Fatalf("second append: ref=%q err=%v", ref, err)
	}
	if len(s.Rows()) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(s.Rows()))
	}
}
