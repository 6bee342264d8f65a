// Package sheets exports finished quotes to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"orcamento/internal/core"
)

// QuoteRecord is a quote as it is archived in the spreadsheet.
type QuoteRecord struct {
	QuoteID  string
	UID      string
	Company  string
	IssuedAt time.Time
	Items    []core.LineItem
	Summary  core.BudgetSummary
}

// Ports for outbound adapters.
type (
	// QuoteWriter appends a quote and returns a reference to the written rows.
	QuoteWriter interface {
		AppendQuote(ctx context.Context, rec QuoteRecord) (rowRef string, err error)
	}
)
