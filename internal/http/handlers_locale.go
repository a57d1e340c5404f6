package httpx

import (
	"net/http"

	apperrors "github.com/cvboard/admin/internal/errors"
	"github.com/cvboard/admin/internal/i18n"
)

// LocaleHandlers serves message bundles and records the user's locale choice.
type LocaleHandlers struct {
	Catalog      *i18n.Catalog
	CookieDomain string
	Errors       errorRenderer
}

// Bundle handles GET /api/locales/{lang}. A bundle that cannot be loaded answers with the
// language-load kind and a message written in that language.
func (h *LocaleHandlers) Bundle(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")
	data, err := h.Catalog.Bundle(lang)
	if err == nil {
		w.Header().Set("Cache-Control", "public, max-age=300")
		writeRawJSON(w, http.StatusOK, data)
		return
	}

	kind := apperrors.KindOf(err)
	switch kind {
	case apperrors.KindLangEnLoad, apperrors.KindLangDeLoad, apperrors.KindLangRuLoad:
		h.Errors.logger.ErrorContext(r.Context(), "locale bundle unavailable", "locale", lang, "error", err)
		WriteJSON(w, kind.HTTPStatus(), errorBody{
			Error:   string(kind),
			Message: h.Catalog.Translate(lang, i18n.LangLoadKey()),
		})
	default:
		h.Errors.render(w, r, err)
	}
}

type localeRequest struct {
	Lang string `json:"lang"`
}

// Choose handles PUT /api/locale and stores the choice in the language cookie.
func (h *LocaleHandlers) Choose(w http.ResponseWriter, r *http.Request) {
	var in localeRequest
	if !DecodeJSON(w, r, &in) {
		return
	}
	if !h.Catalog.IsSupported(in.Lang) {
		h.Errors.render(w, r, apperrors.New(apperrors.KindBadInputData, "unsupported locale "+in.Lang))
		return
	}
	setLanguageCookie(w, r, h.CookieDomain, in.Lang)
	WriteJSON(w, http.StatusOK, localeRequest{Lang: in.Lang})
}
