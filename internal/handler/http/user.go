package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/utafrali/contactsbook/internal/service"
	"github.com/utafrali/contactsbook/pkg/httputil"
)

// avatarField is the multipart field carrying the avatar image.
const avatarField = "file"

// UserHandler handles HTTP requests for the current user's profile.
type UserHandler struct {
	service   *service.UserService
	maxUpload int64
	logger    *slog.Logger
}

// NewUserHandler creates a new user HTTP handler. maxUpload bounds the size
// of an avatar request body.
func NewUserHandler(svc *service.UserService, maxUpload int64, logger *slog.Logger) *UserHandler {
	return &UserHandler{service: svc, maxUpload: maxUpload, logger: logger}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	httputil.WriteData(w, http.StatusOK, user)
}

// UpdateAvatar handles PATCH /api/users/avatar
func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteJSON(w, http.StatusRequestEntityTooLarge, httputil.Response{
				Error: &httputil.ErrorResponse{Code: "PAYLOAD_TOO_LARGE", Message: "avatar file is too large"},
			})
			return
		}
		httputil.WriteValidationError(w, err)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(avatarField)
	if err != nil {
		writeFieldError(w, avatarField, "field required")
		return
	}
	defer file.Close()

	contentType, err := imageContentType(file, header.Header.Get("Content-Type"))
	if err != nil {
		writeFieldError(w, avatarField, err.Error())
		return
	}

	updated, err := h.service.UpdateAvatar(r.Context(), user, service.AvatarUpload{
		Data:        file,
		Size:        header.Size,
		ContentType: contentType,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, updated)
}

// imageContentType sniffs the first bytes of f and rewinds it. declared is
// used when sniffing is inconclusive.
func imageContentType(f io.ReadSeeker, declared string) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", errors.New("could not read file")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", errors.New("could not read file")
	}

	contentType := http.DetectContentType(head[:n])
	if contentType == "application/octet-stream" && declared != "" {
		contentType = declared
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.New("must be an image")
	}
	return contentType, nil
}

func writeFieldError(w http.ResponseWriter, field, message string) {
	httputil.WriteJSON(w, http.StatusUnprocessableEntity, httputil.Response{
		Error: &httputil.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "request validation failed",
			Fields:  map[string]string{field: message},
		},
	})
}
