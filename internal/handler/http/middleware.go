package http

import (
	"mime"
	"net/http"

	"github.com/utafrali/contactsbook/pkg/httputil"
)

// RequireContentType rejects requests that send a body with a media type
// outside types. Requests without a body pass through.
func RequireContentType(types ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(types))
	for _, t := range types {
		allowed[t] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength == 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if _, ok := allowed[mediaType]; err != nil || !ok {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{
						Code:    "UNSUPPORTED_MEDIA_TYPE",
						Message: "unsupported Content-Type",
					},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON accepts only application/json bodies.
var ContentTypeJSON = RequireContentType("application/json")
