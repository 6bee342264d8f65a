package http

import (
	"errors"
	"net/http"
	"strconv"

	"orcamento/internal/export"
	appLog "orcamento/internal/log"
	"orcamento/internal/services"
)

// handleExport sends the quote as a document download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodGet, http.MethodPost); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()
	uid := userFrom(ctx).UID

	doc, err := s.budget.Export(ctx, uid)
	if errors.Is(err, export.ErrEmptyQuote) {
		UnprocessableEntityError(export.EmptyQuoteMessage).Write(w)
		return
	}
	if err != nil {
		appLog.ForRequest(ctx).LogError(ctx, "Quote export failed", err,
			appLog.ComponentExport, appLog.OpExport, appLog.NewFields().WithUser(uid))
		InternalServerError("Erro ao gerar o orçamento.").Write(w)
		return
	}

	h := w.Header()
	h.Set("Content-Type", doc.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	h.Set("Content-Length", strconv.Itoa(len(doc.Body)))
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

// handleArchive appends the quote to the configured spreadsheet.
func (s *Server) handleArchive(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()
	uid := userFrom(ctx).UID

	_, err := s.budget.Archive(ctx, uid)
	switch {
	case err == nil:
		NewHTMXResponse().
			TriggerSuccessNotification("Orçamento enviado para a planilha.").
			Write(w)
	case errors.Is(err, services.ErrArchiveDisabled):
		ErrorResponse(http.StatusServiceUnavailable, "Exportação para planilha não configurada.").Write(w)
	case errors.Is(err, export.ErrEmptyQuote):
		UnprocessableEntityError(export.EmptyQuoteMessage).Write(w)
	default:
		appLog.ForRequest(ctx).LogError(ctx, "Quote archive failed", err,
			appLog.ComponentSheets, appLog.OpArchive, appLog.NewFields().WithUser(uid))
		ErrorResponse(http.StatusBadGateway, "Erro ao enviar para a planilha.").Write(w)
	}
}
