package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/service"
	"github.com/utafrali/contactsbook/pkg/httputil"
	"github.com/utafrali/contactsbook/pkg/pagination"
	"github.com/utafrali/contactsbook/pkg/validator"
)

// ContactHandler handles HTTP requests for contact endpoints.
type ContactHandler struct {
	service *service.ContactService
	logger  *slog.Logger
}

// NewContactHandler creates a new contact HTTP handler.
func NewContactHandler(svc *service.ContactService, logger *slog.Logger) *ContactHandler {
	return &ContactHandler{service: svc, logger: logger}
}

// List handles GET /api/contacts
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	contacts, err := h.service.List(r.Context(), user.ID, domain.ListFilter{
		Limit:  page.Limit,
		Offset: page.Offset,
		Search: strings.TrimSpace(r.URL.Query().Get("search")),
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, contacts)
}

// UpcomingBirthdays handles GET /api/contacts/upcoming_birthdays
func (h *ContactHandler) UpcomingBirthdays(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	contacts, err := h.service.UpcomingBirthdays(r.Context(), user.ID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, contacts)
}

// Get handles GET /api/contacts/{id}
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	contact, err := h.service.Get(r.Context(), user.ID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, contact)
}

// Create handles POST /api/contacts
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var f domain.ContactFields
	if err := validator.DecodeAndValidate(r, &f); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	contact, err := h.service.Create(r.Context(), user.ID, f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, contact)
}

// Update handles PUT /api/contacts/{id}
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var f domain.ContactFields
	if err := validator.DecodeAndValidate(r, &f); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	contact, err := h.service.Update(r.Context(), user.ID, id, f)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, contact)
}

// Delete handles DELETE /api/contacts/{id}
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := httputil.ParseID(w, "id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	contact, err := h.service.Delete(r.Context(), user.ID, id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, contact)
}
