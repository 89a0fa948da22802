package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/contactsbook/internal/auth"
	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/event"
	"github.com/utafrali/contactsbook/internal/mailer"
	"github.com/utafrali/contactsbook/internal/ratelimit"
	"github.com/utafrali/contactsbook/internal/repository"
	"github.com/utafrali/contactsbook/internal/service"
	"github.com/utafrali/contactsbook/internal/storage/memory"
	"github.com/utafrali/contactsbook/pkg/health"
	"github.com/utafrali/contactsbook/pkg/httputil"
	"github.com/utafrali/contactsbook/pkg/middleware"
)

// ============================================================================
// Mock Repositories
// ============================================================================

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) Create(ctx context.Context, u domain.NewUser) (*domain.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *mockUserRepo) MarkConfirmed(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error) {
	args := m.Called(ctx, email, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

type mockContactRepo struct {
	mock.Mock
}

func (m *mockContactRepo) List(ctx context.Context, ownerID int64, filter domain.ListFilter) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *mockContactRepo) ListAll(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Contact), args.Error(1)
}

func (m *mockContactRepo) GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepo) FindDuplicate(ctx context.Context, ownerID int64, email, phone string, excludeID int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, email, phone, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepo) Create(ctx context.Context, ownerID int64, f domain.ContactFields) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepo) Update(ctx context.Context, ownerID, id int64, f domain.ContactFields) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

func (m *mockContactRepo) Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Contact), args.Error(1)
}

type fakeStore struct {
	users    *mockUserRepo
	contacts *mockContactRepo
	pingErr  error
}

func (s *fakeStore) Users() repository.UserRepository       { return s.users }
func (s *fakeStore) Contacts() repository.ContactRepository { return s.contacts }
func (s *fakeStore) Ping(context.Context) error             { return s.pingErr }

func (s *fakeStore) InTx(_ context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

// outbox collects queued confirmation emails.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Enqueue(_ context.Context, msg mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, msg)
	return nil
}

func (o *outbox) messages() []mailer.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]mailer.Message(nil), o.sent...)
}

// ============================================================================
// Test Environment
// ============================================================================

type testEnv struct {
	store  *fakeStore
	tokens *auth.TokenService
	hasher *auth.PasswordHasher
	media  *memory.Storage
	outbox *outbox
	router http.Handler
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestEnv builds the production router over mocked repositories. limiter
// may be nil.
func newTestEnv(t *testing.T, limiter ratelimit.Limiter) *testEnv {
	t.Helper()
	logger := testLogger()

	env := &testEnv{
		store:  &fakeStore{users: new(mockUserRepo), contacts: new(mockContactRepo)},
		tokens: auth.NewTokenService(auth.TokenConfig{Secret: "test-secret-key-for-testing"}),
		hasher: auth.NewPasswordHasher(4),
		media:  memory.New("http://example.com"),
		outbox: &outbox{},
	}

	producer := event.NewProducer(nil, logger)
	confirmations := mailer.NewConfirmations(env.tokens, env.outbox)

	env.router = NewRouter(RouterConfig{
		Auth:           service.NewAuthService(env.store, env.hasher, env.tokens, confirmations, producer, logger),
		Contacts:       service.NewContactService(env.store, producer, logger),
		Users:          service.NewUserService(env.store, env.media, producer, logger),
		DB:             env.store,
		Health:         health.NewHandler(),
		Limiter:        limiter,
		ReadRule:       ratelimit.Rule{Limit: 2, Window: time.Minute},
		WriteRule:      ratelimit.Rule{Limit: 2, Window: time.Minute},
		Media:          env.media,
		CORS:           middleware.DefaultCORSConfig(),
		MaxUploadBytes: 1 << 20,
		Logger:         logger,
	})
	return env
}

// login registers alice as a confirmed user and returns an access token.
func (e *testEnv) login(t *testing.T) (*domain.User, string) {
	t.Helper()
	user := &domain.User{ID: 7, Username: "alice", Email: "alice@example.com", Confirmed: true}
	e.store.users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	token, err := e.tokens.IssueFor(user.Email, auth.ScopeAccess)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) httputil.Response {
	t.Helper()
	var resp httputil.Response
	err := json.NewDecoder(rec.Body).Decode(&resp)
	require.NoError(t, err)
	return resp
}

// decodeData re-decodes the data member of the envelope into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}
