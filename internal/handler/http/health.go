package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/utafrali/contactsbook/pkg/httputil"
)

// Pinger checks that the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthchecker handles GET /api/healthchecker. It answers 500 when the
// database cannot run a trivial query.
func Healthchecker(db Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "healthchecker: database check failed", slog.String("error", err.Error()))
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "INTERNAL_ERROR", Message: "Error connecting to the database"},
			})
			return
		}
		httputil.WriteData(w, http.StatusOK, httputil.Message{Message: "Contacts book is healthy"})
	}
}
