package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"orcamento/internal/budget"
	"orcamento/internal/core"
	"orcamento/internal/export"
	"orcamento/internal/extraction"
	appLog "orcamento/internal/log"
	"orcamento/internal/profiles"
	"orcamento/internal/sheets"
)

// ErrArchiveDisabled is returned when no spreadsheet is configured.
var ErrArchiveDisabled = errors.New("exportação para planilha não configurada")

// Document is a rendered quote ready to be downloaded.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// BudgetService ties the per-user item store to extraction, the company
// profile and the export collaborators.
type BudgetService struct {
	registry  *budget.Registry
	extractor extraction.Extractor
	profiles  *profiles.Service
	renderer  export.Renderer
	archive   sheets.QuoteWriter
	now       func() time.Time
}

// NewBudgetService wires the collaborators. extractor and archive may be nil.
func NewBudgetService(
	registry *budget.Registry,
	extractor extraction.Extractor,
	profiles *profiles.Service,
	renderer export.Renderer,
	archive sheets.QuoteWriter,
) *BudgetService {
	return &BudgetService{
		registry:  registry,
		extractor: extractor,
		profiles:  profiles,
		renderer:  renderer,
		archive:   archive,
		now:       time.Now,
	}
}

// Items returns the store holding uid's quote.
func (s *BudgetService) Items(uid string) *budget.Store {
	return s.registry.For(uid)
}

// Forget discards uid's quote. The items only live for one session.
func (s *BudgetService) Forget(uid string) {
	s.registry.Drop(uid)
}

// ArchiveEnabled reports whether a spreadsheet is configured.
func (s *BudgetService) ArchiveEnabled() bool { return s.archive != nil }

// Extract reads items out of img and appends them after the existing ones.
// On failure the items are left untouched and the error is returned.
func (s *BudgetService) Extract(ctx context.Context, uid string, img extraction.Image) (budget.Snapshot, int, error) {
	store := s.registry.For(uid)
	if s.extractor == nil {
		return store.Snapshot(), 0, extraction.ErrMissingAPIKey
	}

	items, err := s.extractor.Extract(ctx, img)
	if err != nil {
		slog.ErrorContext(ctx, "Extraction failed", "uid", uid, "error", err)
		return store.Snapshot(), 0, err
	}

	snap := store.AddBatch(items)
	slog.InfoContext(ctx, "Extracted items appended",
		"uid", uid,
		"added", len(items),
		"total", snap.Len())
	return snap, len(items), nil
}

// Quote builds the printable quote of uid from the current items and profile.
func (s *BudgetService) Quote(ctx context.Context, uid string) export.Quote {
	snap := s.registry.For(uid).Snapshot()
	return export.BuildQuote(s.profiles.Load(ctx, uid), snap.Items(), s.now())
}

// Export renders uid's quote with the default options.
func (s *BudgetService) Export(ctx context.Context, uid string) (Document, error) {
	q := s.Quote(ctx, uid)
	if q.IsEmpty() {
		return Document{}, export.ErrEmptyQuote
	}

	var buf bytes.Buffer
	if err := s.renderer.Render(ctx, &buf, q, export.DefaultOptions()); err != nil {
		slog.ErrorContext(ctx, "Quote export failed", "uid", uid, "error", err)
		return Document{}, fmt.Errorf("render quote: %w", err)
	}

	doc := Document{
		Filename:    export.Filename(q.IssuedAt, s.renderer.Extension()),
		ContentType: s.renderer.ContentType(),
		Body:        buf.Bytes(),
	}
	appLog.ForRequest(ctx).LogQuoteExported(ctx, uid, len(q.Rows), q.Subtotal, doc.Filename, len(doc.Body))
	return doc, nil
}

// Archive appends uid's quote to the configured spreadsheet.
func (s *BudgetService) Archive(ctx context.Context, uid string) (string, error) {
	if s.archive == nil {
		return "", ErrArchiveDisabled
	}
	q := s.Quote(ctx, uid)
	if q.IsEmpty() {
		return "", export.ErrEmptyQuote
	}

	rec := sheets.QuoteRecord{
		QuoteID:  "orcamento-" + strconv.FormatInt(q.IssuedAt.UnixMilli(), 10),
		UID:      uid,
		Company:  q.Company.Name,
		IssuedAt: q.IssuedAt,
		Items:    quoteItems(q),
		Summary:  q.Summary,
	}
	ref, err := s.archive.AppendQuote(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("archive quote: %w", err)
	}
	slog.InfoContext(ctx, "Quote archived", "uid", uid, "quote_id", rec.QuoteID, "sheets_ref", ref)
	return ref, nil
}

func quoteItems(q export.Quote) []core.LineItem {
	items := make([]core.LineItem, 0, len(q.Rows))
	for _, r := range q.Rows {
		items = append(items, r.Item)
	}
	return items
}
