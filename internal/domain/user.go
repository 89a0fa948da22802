package domain

import "time"

// User is a registered account. Email is the login name and the subject of
// every token issued for the account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	RefreshToken *string   `json:"-"`
	Confirmed    bool      `json:"-"`
	Avatar       string    `json:"avatar"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// HasRefreshToken reports whether token is the user's one live refresh token.
func (u *User) HasRefreshToken(token string) bool {
	return u.RefreshToken != nil && *u.RefreshToken == token
}

// NewUser is the data needed to create an account. PasswordHash must already
// be hashed.
type NewUser struct {
	Username     string
	Email        string
	PasswordHash string
}

// TokenPair is the result of a login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// NewTokenPair builds a bearer TokenPair.
func NewTokenPair(access, refresh string) TokenPair {
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}
}

// ConfirmationResult tells the caller what a confirm or resend request did.
type ConfirmationResult string

const (
	EmailConfirmed        ConfirmationResult = "Email confirmed"
	EmailAlreadyConfirmed ConfirmationResult = "Your email is already confirmed"
	CheckYourEmail        ConfirmationResult = "Check your email for confirmation."
)
