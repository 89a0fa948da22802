package http

import (
	"net/http"

	"github.com/utafrali/contactsbook/internal/domain"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
	"github.com/utafrali/contactsbook/pkg/httputil"
	"github.com/utafrali/contactsbook/pkg/middleware"
)

// currentUser returns the user resolved by the auth middleware. Outside an
// authenticated route it writes 401 and returns false.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	if p, ok := middleware.PrincipalFromContext(r.Context()); ok {
		if user, ok := p.Value.(*domain.User); ok && user != nil {
			return user, true
		}
	}
	writeUnauthenticated(w, r)
	return nil, false
}

func writeUnauthenticated(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	httputil.WriteError(w, r, apperrors.Unauthorized("Not authenticated"), nil)
}
