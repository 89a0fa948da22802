package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope distinguishes what a token may be used for. Every decode checks it so
// a token of one kind can never stand in for another.
type Scope string

const (
	ScopeAccess  Scope = "access_token"
	ScopeRefresh Scope = "refresh_token"
	ScopeEmail   Scope = "email_token"
)

var (
	// ErrInvalidToken covers bad signatures, malformed tokens, expiry and a
	// missing subject.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongScope means the token verified but was issued for another use.
	ErrWrongScope = errors.New("invalid scope for token")
)

// Claims is the payload of every token the service issues. Subject carries
// the user's email.
type Claims struct {
	Scope Scope `json:"scope"`
	jwt.RegisteredClaims
}

// TokenConfig configures a TokenService.
type TokenConfig struct {
	Secret        string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	EmailExpiry   time.Duration
}

// TokenService signs and verifies HS256 tokens with a single secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    map[Scope]time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. Zero expiries fall back to 15
// minutes, 7 days and 1 hour for access, refresh and email tokens.
func NewTokenService(cfg TokenConfig) *TokenService {
	ttl := map[Scope]time.Duration{
		ScopeAccess:  15 * time.Minute,
		ScopeRefresh: 7 * 24 * time.Hour,
		ScopeEmail:   time.Hour,
	}
	if cfg.AccessExpiry > 0 {
		ttl[ScopeAccess] = cfg.AccessExpiry
	}
	if cfg.RefreshExpiry > 0 {
		ttl[ScopeRefresh] = cfg.RefreshExpiry
	}
	if cfg.EmailExpiry > 0 {
		ttl[ScopeEmail] = cfg.EmailExpiry
	}

	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// WithClock returns a copy of s that reads the time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// TTL returns the configured lifetime for scope.
func (s *TokenService) TTL(scope Scope) time.Duration {
	return s.ttl[scope]
}

// Issue signs claims with scope, stamping iat and exp. A ttl of zero uses the
// configured lifetime for scope.
func (s *TokenService) Issue(claims jwt.RegisteredClaims, scope Scope, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = s.ttl[scope]
	}
	now := s.now().UTC()

	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Issuer == "" {
		claims.Issuer = s.issuer
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{Scope: scope, RegisteredClaims: claims})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s: %w", scope, err)
	}
	return signed, nil
}

// IssueFor issues a token of scope for the user identified by email.
func (s *TokenService) IssueFor(email string, scope Scope) (string, error) {
	return s.Issue(jwt.RegisteredClaims{Subject: email}, scope, 0)
}

// EmailToken issues an email verification token for email.
func (s *TokenService) EmailToken(email string) (string, error) {
	return s.IssueFor(email, ScopeEmail)
}

// Decode verifies signature and expiry and checks the scope claim.
func (s *TokenService) Decode(tokenString string, expected Scope) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if claims.Scope != expected {
		return nil, fmt.Errorf("%w: want %s, got %q", ErrWrongScope, expected, claims.Scope)
	}
	return claims, nil
}
