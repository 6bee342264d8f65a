package google

import (
	"context"
	"strings"
	"testing"

	"orcamento/internal/sheets"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "  "})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewMissingCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "id", CredentialsFile: "/does/not/exist.json"})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendQuoteWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "id", sheet: "Orcamentos"}
	if _, err := c.AppendQuote(context.Background(), sheets.QuoteRecord{}); err == nil {
		t.Fatal("expected error without service")
	}
}

func TestAppendRange(t *testing.T) {
	cases := map[string]string{
		"Orcamentos":      "Orcamentos!A:G",
		"2024 Orçamentos": "'2024 Orçamentos'!A:G",
		"Bob's":           "'Bob''s'!A:G",
	}
	for in, want := range cases {
		if got := appendRange(in); got != want {
			t.Errorf("appendRange(%q) = %q, want %q", in, got, want)
		}
	}
}
