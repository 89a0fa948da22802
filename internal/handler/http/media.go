package http

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
	"github.com/utafrali/contactsbook/pkg/httputil"
)

// MediaSource serves uploaded avatars kept in process.
type MediaSource interface {
	Open(key string) (io.Reader, string, bool)
}

// Media handles GET /media/*, serving images from the in-memory avatar store.
func Media(src MediaSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, contentType, ok := src.Open(chi.URLParam(r, "*"))
		if !ok {
			httputil.WriteError(w, r, apperrors.NotFound("Image not found"), nil)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, data)
	}
}
