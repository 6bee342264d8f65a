package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Layout is expressed in CSS pixels and converted to points at 96 dpi.
const pxToPt = 0.75

var (
	colorText    = rgb{15, 23, 42}
	colorMuted   = rgb{100, 116, 139}
	colorFaint   = rgb{148, 163, 184}
	colorRule    = rgb{226, 232, 240}
	colorAccent  = rgb{5, 150, 105}
	colorAccentD = rgb{4, 120, 87}
	colorAccentL = rgb{236, 253, 245}
)

// LogoLoader resolves logo references for the renderer.
type LogoLoader interface {
	Load(ctx context.Context, ref string, allowRemote bool) (Logo, error)
}

// PDFRenderer draws the quote as a single column PDF.
type PDFRenderer struct {
	logos LogoLoader
}

func NewPDFRenderer(logos LogoLoader) *PDFRenderer {
	return &PDFRenderer{logos: logos}
}

func (r *PDFRenderer) ContentType() string { return "application/pdf" }

func (r *PDFRenderer) Extension() string { return "pdf" }

// Render writes q as PDF to w. A logo that cannot be loaded is replaced by
// the company initial; every other failure aborts the render.
func (r *PDFRenderer) Render(ctx context.Context, w io.Writer, q Quote, opts Options) error {
	if q.IsEmpty() {
		return ErrEmptyQuote
	}
	if opts.WindowWidth <= 0 || opts.Scale <= 0 {
		def := DefaultOptions()
		if opts.WindowWidth <= 0 {
			opts.WindowWidth = def.WindowWidth
		}
		if opts.Scale <= 0 {
			opts.Scale = def.Scale
		}
	}
	bg, err := parseHexColor(opts.Background)
	if err != nil {
		return fmt.Errorf("background: %w", err)
	}

	d := newDoc(opts, bg)
	d.header(ctx, q, r.logos, opts)
	d.table(q)
	d.summary(q)
	d.footer(q)

	if err := d.pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := d.pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type doc struct {
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	width  float64 // layout width in px
	margin float64
	bg     rgb
}

func newDoc(opts Options, bg rgb) *doc {
	width := float64(opts.WindowWidth)
	// A4 proportions at the configured width.
	height := width * 297 / 210

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width * pxToPt, Ht: height * pxToPt},
	})
	d := &doc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), width: width, margin: 40, bg: bg}

	pdf.SetMargins(d.pt(d.margin), d.pt(d.margin), d.pt(d.margin))
	pdf.SetAutoPageBreak(true, d.pt(d.margin))
	pdf.SetTitle("Orçamento", true)
	pdf.SetCreator(GeneratedBy, true)
	pdf.SetHeaderFunc(func() {
		w, h := pdf.GetPageSize()
		d.fill(d.bg)
		pdf.Rect(0, 0, w, h, "F")
	})
	pdf.AddPage()
	return d
}

func (d *doc) pt(px float64) float64 { return px * pxToPt }

func (d *doc) fill(c rgb) { d.pdf.SetFillColor(c.r, c.g, c.b) }

func (d *doc) text(c rgb) { d.pdf.SetTextColor(c.r, c.g, c.b) }

func (d *doc) draw(c rgb) { d.pdf.SetDrawColor(c.r, c.g, c.b) }

func (d *doc) font(style string, sizePx float64) {
	d.pdf.SetFont("Helvetica", style, d.pt(sizePx))
}

func (d *doc) contentWidth() float64 { return d.width - 2*d.margin }

func (d *doc) header(ctx context.Context, q Quote, logos LogoLoader, opts Options) {
	pdf := d.pdf
	const box = 80.0
	x, y := d.margin, d.margin

	d.fill(colorAccentL)
	d.draw(colorAccentL)
	pdf.RoundedRect(d.pt(x), d.pt(y), d.pt(box), d.pt(box), d.pt(16), "1234", "FD")
	if !d.logo(ctx, q, logos, opts, x, y, box) {
		d.font("B", 32)
		d.text(colorAccentD)
		pdf.SetXY(d.pt(x), d.pt(y))
		pdf.CellFormat(d.pt(box), d.pt(box), d.tr(q.Initial), "", 0, "CM", false, 0, "")
	}

	left := x + box + 24
	half := d.contentWidth()/2 - box
	d.font("B", 28)
	d.text(colorText)
	pdf.SetXY(d.pt(left), d.pt(y+8))
	pdf.CellFormat(d.pt(half), d.pt(34), d.tr(q.Company.Name), "", 2, "L", false, 0, "")
	d.font("", 14)
	d.text(colorMuted)
	pdf.SetX(d.pt(left))
	pdf.MultiCell(d.pt(half), d.pt(20), d.tr(q.Company.Address), "", "L", false)

	right := d.width - d.margin
	col := 320.0
	d.font("B", 18)
	d.text(colorAccent)
	pdf.SetXY(d.pt(right-col), d.pt(y+12))
	pdf.CellFormat(d.pt(col), d.pt(28), d.tr(q.Company.WhatsApp), "", 2, "R", false, 0, "")
	d.font("", 16)
	d.text(colorMuted)
	pdf.SetX(d.pt(right - col))
	pdf.CellFormat(d.pt(col), d.pt(28), d.tr(q.Company.Instagram), "", 2, "R", false, 0, "")
	d.font("", 12)
	d.text(colorFaint)
	pdf.SetX(d.pt(right - col))
	pdf.CellFormat(d.pt(col), d.pt(20), d.tr("Emitido em "+q.IssuedOn), "", 2, "R", false, 0, "")

	rule := y + box + 32
	d.draw(colorRule)
	pdf.SetLineWidth(d.pt(1))
	pdf.Line(d.pt(d.margin), d.pt(rule), d.pt(right), d.pt(rule))
	pdf.SetY(d.pt(rule + 24))
}

// logo draws the company logo inside the box and reports whether it did.
func (d *doc) logo(ctx context.Context, q Quote, logos LogoLoader, opts Options, x, y, box float64) bool {
	if q.LogoURL == "" || logos == nil {
		return false
	}
	l, err := logos.Load(ctx, q.LogoURL, opts.CrossOrigin)
	if err != nil {
		slog.WarnContext(ctx, "Logo unavailable, drawing initial instead", "error", err)
		return false
	}
	if len(l.Data) == 0 {
		return false
	}

	pdf := d.pdf
	name := fmt.Sprintf("logo-%d", len(l.Data))
	info := pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{
		ImageType: pdf.ImageTypeFromMime(l.MIMEType),
	}, bytes.NewReader(l.Data))
	if info == nil || !pdf.Ok() {
		slog.WarnContext(ctx, "Logo could not be embedded", "error", pdf.Error())
		pdf.ClearError()
		return false
	}
	// The image keeps its pixels; at Scale it covers 1/Scale of its pixel size.
	info.SetDpi(96 * opts.Scale)
	w, h := info.Extent()
	limit := d.pt(box)
	if k := min(limit/w, limit/h); k < 1 {
		w, h = w*k, h*k
	}
	ox := d.pt(x) + (limit-w)/2
	oy := d.pt(y) + (limit-h)/2
	pdf.ImageOptions(name, ox, oy, w, h, false, gofpdf.ImageOptions{}, 0, "")
	return true
}

func (d *doc) table(q Quote) {
	pdf := d.pdf
	cw := d.contentWidth()
	cols := []float64{96, cw - 96 - 160 - 160, 160, 160}
	heads := []string{"QTD", "PRODUTO", "VALOR UNIT.", "TOTAL"}
	aligns := []string{"C", "L", "L", "R"}

	d.fill(rgb{248, 250, 252})
	d.text(colorFaint)
	d.font("B", 12)
	pdf.SetX(d.pt(d.margin))
	for i, h := range heads {
		pdf.CellFormat(d.pt(cols[i]), d.pt(44), d.tr(h), "B", 0, aligns[i], true, 0, "")
	}
	pdf.Ln(-1)

	if q.IsEmpty() {
		d.font("", 14)
		pdf.SetX(d.pt(d.margin))
		pdf.CellFormat(d.pt(cw), d.pt(96), d.tr(EmptyQuote), "B", 1, "CM", false, 0, "")
		return
	}

	const line = 22.0
	for _, row := range q.Rows {
		d.font("", 15)
		lines := pdf.SplitLines([]byte(d.tr(row.Description)), d.pt(cols[1]-16))
		n := max(len(lines), 1)
		h := float64(n)*line + 20

		if pdf.GetY()+d.pt(h) > pageBottom(pdf) {
			pdf.AddPage()
		}
		top := pdf.GetY()
		pdf.SetX(d.pt(d.margin))
		d.text(colorText)
		pdf.CellFormat(d.pt(cols[0]), d.pt(h), d.tr(row.Quantity), "B", 0, "CM", false, 0, "")

		x := pdf.GetX()
		pdf.SetXY(x+d.pt(8), top+d.pt(10))
		pdf.MultiCell(d.pt(cols[1]-16), d.pt(line), d.tr(row.Description), "", "L", false)
		pdf.SetXY(x, top)
		pdf.CellFormat(d.pt(cols[1]), d.pt(h), "", "B", 0, "", false, 0, "")

		d.text(colorMuted)
		pdf.CellFormat(d.pt(cols[2]), d.pt(h), d.tr(row.UnitPrice), "B", 0, "LM", false, 0, "")
		d.font("B", 15)
		d.text(colorText)
		pdf.CellFormat(d.pt(cols[3]), d.pt(h), d.tr(row.Total), "B", 1, "RM", false, 0, "")
	}
}

func pageBottom(pdf *gofpdf.Fpdf) float64 {
	_, h := pdf.GetPageSize()
	_, _, _, b := pdf.GetMargins()
	return h - b
}

func (d *doc) summary(q Quote) {
	pdf := d.pdf
	const boxW = 384.0
	x := d.width - d.margin - boxW
	if pdf.GetY()+d.pt(300) > pageBottom(pdf) {
		pdf.AddPage()
	}
	pdf.SetY(pdf.GetY() + d.pt(40))

	row := func(label, value string, style string, size float64, c rgb) {
		d.font(style, size)
		d.text(c)
		pdf.SetX(d.pt(x))
		pdf.CellFormat(d.pt(boxW/2), d.pt(size*1.8), d.tr(label), "", 0, "L", false, 0, "")
		pdf.CellFormat(d.pt(boxW/2), d.pt(size*1.8), d.tr(value), "", 1, "R", false, 0, "")
	}

	row("Subtotal Bruto", q.Subtotal, "", 15, colorMuted)
	pdf.Ln(d.pt(8))

	top := pdf.GetY()
	d.fill(colorAccentL)
	d.draw(colorAccentL)
	pdf.RoundedRect(d.pt(x), top, d.pt(boxW), d.pt(64), d.pt(16), "1234", "FD")
	pdf.SetXY(d.pt(x+16), top+d.pt(12))
	d.font("B", 14)
	d.text(colorAccentD)
	pdf.CellFormat(d.pt(boxW/2), d.pt(20), d.tr("Desconto À Vista"), "", 2, "L", false, 0, "")
	d.font("B", 10)
	d.text(colorAccent)
	pdf.CellFormat(d.pt(boxW/2), d.pt(16), d.tr(strings.ToUpper("Economize "+q.DiscountPercent)), "", 0, "L", false, 0, "")
	pdf.SetXY(d.pt(x+boxW/2), top)
	d.font("B", 16)
	d.text(colorAccentD)
	pdf.CellFormat(d.pt(boxW/2-16), d.pt(64), d.tr(q.DiscountCash), "", 1, "RM", false, 0, "")

	pdf.Ln(d.pt(16))
	d.draw(colorRule)
	pdf.Line(d.pt(x), pdf.GetY(), d.pt(x+boxW), pdf.GetY())
	pdf.Ln(d.pt(16))
	row("Total Geral", q.Total, "B", 24, colorText)
	pdf.Ln(d.pt(16))

	top = pdf.GetY()
	d.fill(rgb{255, 255, 255})
	d.draw(colorAccent)
	pdf.SetLineWidth(d.pt(2))
	pdf.RoundedRect(d.pt(x), top, d.pt(boxW), d.pt(104), d.pt(24), "1234", "FD")
	pdf.SetLineWidth(d.pt(1))
	pdf.SetXY(d.pt(x), top+d.pt(18))
	d.font("B", 11)
	d.text(colorAccent)
	pdf.CellFormat(d.pt(boxW), d.pt(18), d.tr("VALOR NO DINHEIRO, PIX, CARTÃO VENC."), "", 2, "C", false, 0, "")
	d.font("B", 32)
	pdf.CellFormat(d.pt(boxW), d.pt(48), d.tr(q.NetCashTotal), "", 1, "C", false, 0, "")
	pdf.SetY(top + d.pt(104))
}

func (d *doc) footer(q Quote) {
	pdf := d.pdf
	if pdf.GetY()+d.pt(120) > pageBottom(pdf) {
		pdf.AddPage()
	}
	pdf.Ln(d.pt(40))
	d.draw(colorRule)
	pdf.Line(d.pt(d.margin), pdf.GetY(), d.pt(d.width-d.margin), pdf.GetY())
	pdf.Ln(d.pt(24))

	cw := d.pt(d.contentWidth())
	pdf.SetX(d.pt(d.margin))
	d.text(colorFaint)
	d.font("B", 12)
	pdf.CellFormat(cw, d.pt(20), d.tr(ValidityNote), "", 1, "C", false, 0, "")
	pdf.SetX(d.pt(d.margin))
	d.font("", 12)
	pdf.CellFormat(cw, d.pt(20), d.tr(q.ThankYou), "", 1, "C", false, 0, "")
	pdf.Ln(d.pt(12))
	pdf.SetX(d.pt(d.margin))
	d.font("", 9)
	pdf.CellFormat(cw, d.pt(14), d.tr(strings.ToUpper(GeneratedBy)), "", 1, "C", false, 0, "")
}
