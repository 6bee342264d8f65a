package http

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"

	"orcamento/internal/core"
	appLog "orcamento/internal/log"
)

const (
	logoFileField   = "logoFile"
	saveFailedMsg   = "Erro ao salvar dados na nuvem."
	profileSavedMsg = "Dados da empresa salvos."
)

// profileForm is the data of the company edit form.
type profileForm struct {
	Profile core.CompanyProfile
	LogoURL string
	// LinkValue pre-fills the logo link input; inline logos leave it empty.
	LinkValue string
}

func newProfileForm(p core.CompanyProfile) profileForm {
	f := profileForm{Profile: p, LogoURL: p.LogoURL()}
	if !core.IsInlineLogo(p.Logo) {
		f.LinkValue = p.Logo
	}
	return f
}

// handleProfile shows (GET) or saves (POST) the company profile.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		u := userFrom(r.Context())
		w.Header().Set("Cache-Control", "no-store")
		s.render(w, r, http.StatusOK, "profile", newProfileForm(s.profiles.Load(r.Context(), u.UID)))
	case http.MethodPost:
		s.saveProfile(w, r)
	default:
		RequireMethod(r, http.MethodGet, http.MethodPost).Write(w)
	}
}

func (s *Server) saveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := userFrom(ctx).UID

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+64<<10)
		if err := r.ParseMultipartForm(s.maxUpload); err != nil {
			BadRequestError("Formato de requisição inválido").Write(w)
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	} else if errResp := ParseFormOrFail(r); errResp != nil {
		errResp.Write(w)
		return
	}

	current := s.profiles.Load(ctx, uid)
	logo, err := s.submittedLogo(r, current.Logo)
	if err != nil {
		UnprocessableEntityError("A logo deve ser uma imagem PNG, JPG, GIF ou WEBP.").Write(w)
		return
	}

	next := core.CompanyProfile{
		Name:      sanitizeInput(r.FormValue("name")),
		Address:   sanitizeInput(r.FormValue("address")),
		WhatsApp:  sanitizeInput(r.FormValue("whatsapp")),
		Instagram: sanitizeInput(r.FormValue("instagram")),
		Logo:      logo,
	}

	if _, err := s.profiles.Save(ctx, uid, next); err != nil {
		appLog.ForRequest(ctx).LogError(ctx, "Failed to save company profile", err,
			appLog.ComponentProfile, appLog.OpUpdate, appLog.NewFields().WithUser(uid))
		switch {
		case errors.Is(err, core.ErrFieldTooLong):
			UnprocessableEntityError("Os campos devem ter no máximo 200 caracteres.").Write(w)
		case errors.Is(err, core.ErrLogoTooLarge):
			UnprocessableEntityError("A logo deve ter no máximo 900 KB.").Write(w)
		default:
			InternalServerError(saveFailedMsg).Write(w)
		}
		return
	}

	NewHTMXResponse().
		TriggerProfileSaved().
		TriggerSuccessNotification(profileSavedMsg).
		Write(w)
}

var errLogoNotImage = errors.New("logo upload is not an image")

// submittedLogo decides the logo to store. An uploaded file wins over the
// link field; an empty link keeps an inline logo that the form cannot show.
func (s *Server) submittedLogo(r *http.Request, current string) (string, error) {
	if r.FormValue("removeLogo") != "" {
		return "", nil
	}

	if r.MultipartForm != nil {
		if file, _, err := r.FormFile(logoFileField); err == nil {
			defer file.Close()
			data, err := io.ReadAll(io.LimitReader(file, s.maxUpload))
			if err != nil {
				return "", errLogoNotImage
			}
			if len(data) > 0 {
				mime := http.DetectContentType(data)
				switch mime {
				case "image/png", "image/jpeg", "image/gif", "image/webp":
				default:
					return "", errLogoNotImage
				}
				return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
			}
		}
	}

	if link := sanitizeInput(r.FormValue("logo")); link != "" {
		return core.NormalizeLogo(link), nil
	}
	if core.IsInlineLogo(current) {
		return current, nil
	}
	return "", nil
}
