package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/service"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
	"github.com/utafrali/contactsbook/pkg/httputil"
	"github.com/utafrali/contactsbook/pkg/middleware"
	"github.com/utafrali/contactsbook/pkg/validator"
)

const maxBodyBytes = 1 << 20

// AuthHandler handles HTTP requests for auth endpoints.
type AuthHandler struct {
	service *service.AuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// SignupResponse is returned by a successful signup.
type SignupResponse struct {
	User   *domain.User `json:"user"`
	Detail string       `json:"detail"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in service.SignupInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	user, err := h.service.Signup(r.Context(), in, middleware.BaseURL(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, SignupResponse{
		User:   user,
		Detail: "User successfully created",
	})
}

// Login handles POST /api/auth/login. The form field username carries the
// email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	in := service.LoginInput{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if err := validator.Validate(in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	pair, err := h.service.Login(r.Context(), in)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pair)
}

// RefreshToken handles GET /api/auth/refresh_token. The refresh token is sent
// as the bearer credential.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.BearerToken(r)
	if !ok {
		writeUnauthenticated(w, r)
		return
	}

	pair, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		if apperrors.HTTPStatus(err) == http.StatusUnauthorized {
			w.Header().Set("WWW-Authenticate", "Bearer")
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, pair)
}

// ConfirmedEmail handles GET /api/auth/confirmed_email/{token}
func (h *AuthHandler) ConfirmedEmail(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ConfirmEmail(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: string(result)})
}

// RequestEmail handles POST /api/auth/request_email
func (h *AuthHandler) RequestEmail(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var in service.RequestEmailInput
	if err := validator.DecodeAndValidate(r, &in); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.ResendConfirmation(r.Context(), in.Email, middleware.BaseURL(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, httputil.Message{Message: string(result)})
}
