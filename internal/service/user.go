package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/event"
	"github.com/utafrali/contactsbook/internal/repository"
	"github.com/utafrali/contactsbook/internal/storage"
)

// AvatarUpload is an image received for the current user's avatar.
type AvatarUpload struct {
	Data        io.Reader
	Size        int64
	ContentType string
}

// UserService implements profile operations of the authenticated user.
type UserService struct {
	store    repository.Store
	images   storage.Storage
	producer *event.Producer
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(store repository.Store, images storage.Storage, producer *event.Producer, logger *slog.Logger) *UserService {
	return &UserService{
		store:    store,
		images:   images,
		producer: producer,
		logger:   logger,
	}
}

// UpdateAvatar uploads the image under the user's stable avatar key and
// stores the 250x250 delivery URL.
func (s *UserService) UpdateAvatar(ctx context.Context, user *domain.User, upload AvatarUpload) (*domain.User, error) {
	result, err := s.images.Upload(ctx, &storage.UploadInput{
		Key:         storage.AvatarKey(user.Email),
		ContentType: upload.ContentType,
		Size:        upload.Size,
		Data:        upload.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("upload avatar: %w", err)
	}

	url := s.images.BuildURL(result.Key, storage.AvatarTransform(result.Version))

	updated, err := s.store.Users().UpdateAvatar(ctx, user.Email, url)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.UserNotFound()
		}
		return nil, storeError("update avatar", err)
	}

	if err := s.producer.PublishAvatarUpdated(ctx, updated); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("user_id", updated.ID))
	}

	s.logger.InfoContext(ctx, "avatar updated",
		slog.Int64("user_id", updated.ID),
		slog.String("key", result.Key),
	)
	return updated, nil
}
