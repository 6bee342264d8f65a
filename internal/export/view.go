// Package export builds the printable quote and renders it to a document.
package export

import (
	"strings"
	"time"

	"orcamento/internal/core"
)

// Footer lines printed under every quote.
const (
	ValidityNote = "Este orçamento é válido por 30 dias corridos."
	GeneratedBy  = "Gerado por Sistema de Orçamentos Inteligente"
	EmptyQuote   = "Nenhum item adicionado."
)

// ItemRow is one formatted table row.
type ItemRow struct {
	ID          string
	Quantity    string
	Description string
	UnitPrice   string
	Total       string
	Item        core.LineItem
}

// Quote is everything a renderer needs, already formatted for pt-BR.
type Quote struct {
	Company core.CompanyProfile
	// LogoURL is the normalized logo reference; empty means draw Initial.
	LogoURL string
	Initial string

	Rows    []ItemRow
	Summary core.BudgetSummary

	Subtotal        string
	DiscountCash    string // already carries the leading minus
	DiscountPercent string
	Total           string
	NetCashTotal    string

	IssuedAt time.Time
	IssuedOn string
	ThankYou string
}

// IsEmpty reports whether the quote has no rows.
func (q Quote) IsEmpty() bool { return len(q.Rows) == 0 }

// BuildQuote derives the printable quote from the profile and the items in
// display order. Totals are recomputed from items on every call.
func BuildQuote(profile core.CompanyProfile, items []core.LineItem, now time.Time) Quote {
	summary := core.Summarize(items)

	rows := make([]ItemRow, 0, len(items))
	for _, it := range items {
		rows = append(rows, ItemRow{
			ID:          it.ID,
			Quantity:    core.FormatQuantity(it.Quantity),
			Description: it.Description,
			UnitPrice:   core.FormatBRL(it.UnitPrice),
			Total:       core.FormatBRL(it.Total()),
			Item:        it,
		})
	}

	name := strings.TrimSpace(profile.Name)
	return Quote{
		Company:         profile,
		LogoURL:         profile.LogoURL(),
		Initial:         profile.Initial(),
		Rows:            rows,
		Summary:         summary,
		Subtotal:        core.FormatBRL(summary.Subtotal),
		DiscountCash:    "-" + core.FormatBRL(summary.DiscountCash),
		DiscountPercent: summary.DiscountRate.Shift(2).String() + "%",
		Total:           core.FormatBRL(summary.Total),
		NetCashTotal:    core.FormatBRL(summary.NetCashTotal),
		IssuedAt:        now,
		IssuedOn:        now.Format("02/01/2006"),
		ThankYou:        name + " agradece a sua preferência!",
	}
}
