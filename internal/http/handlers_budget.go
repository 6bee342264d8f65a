package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"orcamento/internal/core"
	"orcamento/internal/extraction"
	appLog "orcamento/internal/log"
	"orcamento/internal/middleware/ratelimit"
)

const (
	photoField          = "photo"
	extractFailedMsg    = "Houve um erro ao analisar a imagem. Tente novamente."
	unsupportedImageMsg = "Envie uma imagem PNG ou JPG."
)

// handleAddItem appends a blank row.
func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	snap := s.budget.Items(userFrom(r.Context()).UID).Add()
	s.writeQuote(w, r, NewHTMXResponse().TriggerItemsChanged(snap.Len()))
}

// handleUpdateItem applies a partial edit to one row. Unknown ids are ignored.
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Formato de requisição inválido").Write(w)
		return
	}

	id, patch, err := ParseItemPatch(parser)
	switch {
	case errors.Is(err, errMissingItemID):
		BadRequestError("Item não informado.").Write(w)
		return
	case errors.Is(err, core.ErrInvalidAmount):
		UnprocessableEntityError("Informe um número válido.").Write(w)
		return
	case errors.Is(err, errEmptyPatch):
		s.writeQuote(w, r, NewHTMXResponse())
		return
	}

	snap := s.budget.Items(userFrom(r.Context()).UID).Update(id, patch)
	s.writeQuote(w, r, NewHTMXResponse().TriggerItemsChanged(snap.Len()))
}

// handleRemoveItem deletes one row.
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if errResp := RequireMethod(r, http.MethodPost, http.MethodDelete); errResp != nil {
		errResp.Write(w)
		return
	}
	id := sanitizeInput(r.URL.Query().Get("id"))
	if id == "" {
		if errResp := ParseFormOrFail(r); errResp != nil {
			errResp.Write(w)
			return
		}
		id = sanitizeInput(r.PostForm.Get("id"))
	}
	if id == "" {
		BadRequestError("Item não informado.").Write(w)
		return
	}

	snap := s.budget.Items(userFrom(r.Context()).UID).Remove(id)
	s.writeQuote(w, r, NewHTMXResponse().TriggerItemsChanged(snap.Len()))
}

// handleClearItems empties the quote.
func (s *Server) handleClearItems(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	s.budget.Items(userFrom(r.Context()).UID).Clear()
	s.writeQuote(w, r, NewHTMXResponse().TriggerItemsChanged(0))
}

// handleExtract reads the uploaded photo and appends the items found in it.
// On any failure the existing items stay as they were.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if errResp := RequirePOST(r); errResp != nil {
		errResp.Write(w)
		return
	}
	ctx := r.Context()
	uid := userFrom(ctx).UID

	img, errResp := s.readPhoto(w, r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	// only uploads that reach the model count against the limit
	if ok, wait := s.extractLimiter.Reserve(uid); !ok {
		w.Header().Set("Retry-After", ratelimit.RetryAfter(wait))
		ErrorResponse(http.StatusTooManyRequests, "Muitas análises seguidas. Aguarde um pouco.").Write(w)
		return
	}

	snap, added, err := s.budget.Extract(ctx, uid, img)
	if err != nil {
		status, msg := extractionFailure(err)
		appLog.ForRequest(ctx).LogError(ctx, "Extraction failed", err,
			appLog.ComponentExtraction, appLog.OpExtract,
			appLog.NewFields().WithUser(uid).WithErrorType(http.StatusText(status)))
		ErrorResponse(status, msg).Write(w)
		return
	}

	resp := NewHTMXResponse().TriggerItemsChanged(snap.Len())
	if added == 0 {
		resp.TriggerNotification(NotificationWarning, "Nenhum item encontrado na imagem.", 4000)
	} else {
		resp.TriggerSuccessNotification(fmt.Sprintf("%d itens adicionados.", added))
	}
	s.writeQuote(w, r, resp)
}

// readPhoto pulls the uploaded image out of the multipart form.
func (s *Server) readPhoto(w http.ResponseWriter, r *http.Request) (extraction.Image, *HTMXResponseBuilder) {
	// leave room for the multipart framing around the file
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+64<<10)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return extraction.Image{}, ErrorResponse(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("A imagem deve ter no máximo %d MB.", s.maxUpload>>20))
		}
		return extraction.Image{}, BadRequestError("Selecione uma foto.")
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile(photoField)
	if err != nil {
		return extraction.Image{}, BadRequestError("Selecione uma foto.")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxUpload+1))
	if err != nil {
		return extraction.Image{}, BadRequestError("Falha ao ler a imagem.")
	}
	if len(data) == 0 {
		return extraction.Image{}, BadRequestError("Selecione uma foto.")
	}
	if int64(len(data)) > s.maxUpload {
		return extraction.Image{}, ErrorResponse(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("A imagem deve ter no máximo %d MB.", s.maxUpload>>20))
	}

	mime := http.DetectContentType(data)
	if mime != "image/png" && mime != "image/jpeg" {
		return extraction.Image{}, ErrorResponse(http.StatusUnsupportedMediaType, unsupportedImageMsg)
	}
	return extraction.Image{Data: data, MIMEType: mime}, nil
}

// extractionFailure maps an extraction error to a status and the message
// shown to the user.
func extractionFailure(err error) (int, string) {
	switch {
	case errors.Is(err, extraction.ErrMissingAPIKey):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, extraction.ErrInvalidAPIKey), errors.Is(err, extraction.ErrRegionUnsupported),
		errors.Is(err, extraction.ErrMalformedResponse):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, extraction.ErrEmptyImage):
		return http.StatusBadRequest, "Selecione uma foto."
	}
	return http.StatusBadGateway, extractFailedMsg
}
