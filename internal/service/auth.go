package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/contactsbook/internal/auth"
	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/event"
	"github.com/utafrali/contactsbook/internal/repository"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenService issues and decodes scoped tokens.
type TokenService interface {
	IssueFor(email string, scope auth.Scope) (string, error)
	Decode(token string, expected auth.Scope) (*auth.Claims, error)
}

// ConfirmationSender queues a verification email for background delivery.
type ConfirmationSender interface {
	SendConfirmation(ctx context.Context, email, username, host string) error
}

// SignupInput is the body of a signup request.
type SignupInput struct {
	Username string `json:"username" validate:"required,min=5,max=16"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

// LoginInput is the login form. Username carries the email.
type LoginInput struct {
	Username string `form:"username" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RequestEmailInput is the body of a resend-confirmation request.
type RequestEmailInput struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthService implements signup, login, token refresh and email
// confirmation.
type AuthService struct {
	store    repository.Store
	hasher   PasswordHasher
	tokens   TokenService
	mail     ConfirmationSender
	producer *event.Producer
	logger   *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	store repository.Store,
	hasher PasswordHasher,
	tokens TokenService,
	mail ConfirmationSender,
	producer *event.Producer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		mail:     mail,
		producer: producer,
		logger:   logger,
	}
}

// Signup creates an unconfirmed account and queues the verification email.
// host is the base URL the confirmation link points at.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, host string) (*domain.User, error) {
	users := s.store.Users()

	_, err := users.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.DuplicateEmail()
	case !isNotFound(err):
		return nil, storeError("get user", err)
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.Create(ctx, domain.NewUser{Username: in.Username, Email: in.Email, PasswordHash: digest})
	if err != nil {
		if isDuplicate(err) {
			return nil, domain.DuplicateEmail()
		}
		return nil, storeError("create user", err)
	}

	s.sendConfirmation(ctx, user, host)

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.Int64("user_id", user.ID),
		slog.String("email", user.Email),
	)
	return user, nil
}

// Login checks credentials in order: unknown email, unconfirmed email, then
// password. On success it stores the new refresh token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (domain.TokenPair, error) {
	user, err := s.store.Users().GetByEmail(ctx, in.Username)
	if err != nil {
		if isNotFound(err) {
			return domain.TokenPair{}, domain.InvalidEmail()
		}
		return domain.TokenPair{}, storeError("get user", err)
	}

	if !user.Confirmed {
		return domain.TokenPair{}, domain.EmailNotConfirmed()
	}
	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return domain.TokenPair{}, domain.BadPassword()
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return domain.TokenPair{}, err
	}

	s.logger.InfoContext(ctx, "user logged in", slog.Int64("user_id", user.ID))
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair. A token that is valid but
// not the stored one clears the stored token, logging the user out.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.tokens.Decode(refreshToken, auth.ScopeRefresh)
	if err != nil {
		return domain.TokenPair{}, tokenError(err)
	}

	users := s.store.Users()
	user, err := users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return domain.TokenPair{}, domain.InvalidToken()
		}
		return domain.TokenPair{}, storeError("get user", err)
	}

	if !user.HasRefreshToken(refreshToken) {
		if err := users.UpdateRefreshToken(ctx, user.ID, nil); err != nil {
			return domain.TokenPair{}, storeError("clear refresh token", err)
		}
		s.logger.WarnContext(ctx, "refresh token mismatch, stored token cleared",
			slog.Int64("user_id", user.ID),
		)
		return domain.TokenPair{}, domain.RefreshMismatch()
	}

	return s.issuePair(ctx, user)
}

// ConfirmEmail marks the token's email confirmed.
func (s *AuthService) ConfirmEmail(ctx context.Context, emailToken string) (domain.ConfirmationResult, error) {
	claims, err := s.tokens.Decode(emailToken, auth.ScopeEmail)
	if err != nil {
		return "", domain.InvalidEmailToken()
	}

	users := s.store.Users()
	user, err := users.GetByEmail(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return "", domain.VerificationError()
		}
		return "", storeError("get user", err)
	}
	if user.Confirmed {
		return domain.EmailAlreadyConfirmed, nil
	}

	if err := users.MarkConfirmed(ctx, user.Email); err != nil {
		return "", storeError("confirm email", err)
	}

	if err := s.producer.PublishEmailConfirmed(ctx, user); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("user_id", user.ID))
	}

	s.logger.InfoContext(ctx, "email confirmed", slog.Int64("user_id", user.ID))
	return domain.EmailConfirmed, nil
}

// ResendConfirmation queues another verification email for an unconfirmed
// account. Unknown emails get the same answer as a successful resend.
func (s *AuthService) ResendConfirmation(ctx context.Context, email, host string) (domain.ConfirmationResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return domain.CheckYourEmail, nil
		}
		return "", storeError("get user", err)
	}
	if user.Confirmed {
		return domain.EmailAlreadyConfirmed, nil
	}

	s.sendConfirmation(ctx, user, host)
	return domain.CheckYourEmail, nil
}

// Authenticate resolves an access token to its user.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*domain.User, error) {
	claims, err := s.tokens.Decode(accessToken, auth.ScopeAccess)
	if err != nil {
		return nil, domain.InvalidToken()
	}

	user, err := s.store.Users().GetByEmail(ctx, claims.Subject)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.InvalidToken()
		}
		return nil, storeError("get user", err)
	}
	return user, nil
}

func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (domain.TokenPair, error) {
	access, err := s.tokens.IssueFor(user.Email, auth.ScopeAccess)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueFor(user.Email, auth.ScopeRefresh)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	if err := s.store.Users().UpdateRefreshToken(ctx, user.ID, &refresh); err != nil {
		return domain.TokenPair{}, storeError("store refresh token", err)
	}
	return domain.NewTokenPair(access, refresh), nil
}

// sendConfirmation never fails the caller; delivery problems are logged.
func (s *AuthService) sendConfirmation(ctx context.Context, user *domain.User, host string) {
	if err := s.mail.SendConfirmation(ctx, user.Email, user.Username, host); err != nil {
		s.logger.ErrorContext(ctx, "failed to queue confirmation email",
			slog.Int64("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
}
