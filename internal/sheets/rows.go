package sheets

import (
	"github.com/shopspring/decimal"
)

// Header is the first row of the quotes sheet.
var Header = []any{"Orçamento", "Data", "Empresa", "Qtd", "Produto", "Valor Unit.", "Total"}

// Rows lays a quote out as sheet rows: one per item, then the subtotal,
// the cash discount and the net cash total. Numbers are written as plain
// decimals so the sheet's own locale formats them.
func Rows(rec QuoteRecord) [][]any {
	date := rec.IssuedAt.Format("2006-01-02 15:04")
	prefix := func() []any { return []any{rec.QuoteID, date, rec.Company} }

	out := make([][]any, 0, len(rec.Items)+3)
	for _, it := range rec.Items {
		out = append(out, append(prefix(),
			number(it.Quantity),
			it.Description,
			number(it.UnitPrice),
			number(it.Total()),
		))
	}
	out = append(out,
		append(prefix(), "", "Subtotal Bruto", "", number(rec.Summary.Subtotal)),
		append(prefix(), "", "Desconto À Vista", "", number(rec.Summary.DiscountCash.Neg())),
		append(prefix(), "", "Valor no Dinheiro, Pix, Cartão Venc.", "", number(rec.Summary.NetCashTotal)),
	)
	return out
}

func number(d decimal.Decimal) string {
	return d.Round(2).String()
}
