package service

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/utafrali/contactsbook/internal/auth"
	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/event"
	"github.com/utafrali/contactsbook/internal/repository"
	"github.com/utafrali/contactsbook/internal/storage"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Create(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockUserRepository) MarkConfirmed(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockUserRepository) UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	args := m.Called(ctx, email, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock Contact Repository ---

type mockContactRepository struct {
	mock.Mock
}

func (m *mockContactRepository) List(ctx context.Context, ownerID int64, filter domain.ListFilter) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *mockContactRepository) ListAll(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *mockContactRepository) GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) FindDuplicate(ctx context.Context, ownerID int64, email, phone string, excludeID int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, email, phone, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Create(ctx context.Context, ownerID int64, f domain.ContactFields) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Update(ctx context.Context, ownerID, id int64, f domain.ContactFields) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepository) Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

// --- Fake Store ---

// fakeStore runs InTx callbacks against itself and counts them.
type fakeStore struct {
	users    *mockUserRepository
	contacts *mockContactRepository
	txCalls  int
	pingErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    new(mockUserRepository),
		contacts: new(mockContactRepository),
	}
}

func (s *fakeStore) Users() repository.UserRepository       { return s.users }
func (s *fakeStore) Contacts() repository.ContactRepository { return s.contacts }
func (s *fakeStore) Ping(context.Context) error             { return s.pingErr }

func (s *fakeStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	s.txCalls++
	return fn(s)
}

// --- Mock Confirmation Sender ---

type mockConfirmationSender struct {
	mock.Mock
}

func (m *mockConfirmationSender) SendConfirmation(ctx context.Context, email, username, host string) error {
	args := m.Called(ctx, email, username, host)
	return args.Error(0)
}

// --- Mock Storage ---

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, input *storage.UploadInput) (*storage.UploadResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.UploadResult), args.Error(1)
}

func (m *mockStorage) BuildURL(key string, t storage.Transform) string {
	args := m.Called(key, t)
	return args.String(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestTokens() *auth.TokenService {
	return auth.NewTokenService(auth.TokenConfig{
		Secret:        "test-secret-key-for-testing",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: 7 * 24 * time.Hour,
		EmailExpiry:   time.Hour,
	})
}

// newTestProducer returns a producer without a broker; publishing is a no-op.
func newTestProducer() *event.Producer {
	return event.NewProducer(nil, newTestLogger())
}
