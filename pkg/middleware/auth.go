package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
	"github.com/utafrali/contactsbook/pkg/httputil"
	"github.com/utafrali/contactsbook/pkg/logger"
)

type contextKeyType string

const principalKey contextKeyType = "principal"

// Principal is the authenticated caller resolved by a TokenValidator.
// Subject is the token subject; Value carries whatever the validator
// resolved it to (for example the loaded user record).
type Principal struct {
	Subject string
	Value   any
}

// TokenValidator validates a bearer token and resolves the caller. Returning
// an *apperrors.AppError controls the code and message sent to the client.
type TokenValidator func(ctx context.Context, token string) (*Principal, error)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Auth validates the bearer token on every request and stores the resolved
// Principal in the request context.
func Auth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				writeAuthError(w, r, apperrors.Unauthorized("Not authenticated"))
				return
			}

			principal, err := validate(r.Context(), token)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), principalKey, principal)
			ctx = logger.WithUser(ctx, principal.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PrincipalFromContext returns the Principal stored by Auth.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok && p != nil
}

// ContextWithPrincipal stores p the same way Auth does. Handlers under test
// use it to bypass token validation.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Unauthorized("Could not validate credentials")
	}
	if appErr.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	httputil.WriteError(w, r, appErr, nil)
}
