package domain

import (
	"errors"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

// Codes carried by the AppErrors below.
const (
	CodeDuplicateEmail      = "DUPLICATE_EMAIL"
	CodeDuplicateContact    = "DUPLICATE_CONTACT"
	CodeInvalidEmail        = "INVALID_EMAIL"
	CodeEmailNotConfirmed   = "EMAIL_NOT_CONFIRMED"
	CodeInvalidPassword     = "INVALID_PASSWORD"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeInvalidScope        = "INVALID_SCOPE"
	CodeInvalidRefreshToken = "INVALID_REFRESH_TOKEN"
	CodeNotFound            = "NOT_FOUND"
	CodeVerificationError   = "VERIFICATION_ERROR"
	CodeStoreUnavailable    = "STORE_UNAVAILABLE"
)

func DuplicateEmail() *apperrors.AppError {
	return apperrors.AlreadyExists("Account already exists").WithCode(CodeDuplicateEmail)
}

func DuplicateContact() *apperrors.AppError {
	return apperrors.AlreadyExists("Contact already exists").WithCode(CodeDuplicateContact)
}

func InvalidEmail() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid email").WithCode(CodeInvalidEmail)
}

func EmailNotConfirmed() *apperrors.AppError {
	return apperrors.Unauthorized("Email not confirmed").WithCode(CodeEmailNotConfirmed)
}

func BadPassword() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid password").WithCode(CodeInvalidPassword)
}

func InvalidToken() *apperrors.AppError {
	return apperrors.Unauthorized("Could not validate credentials").WithCode(CodeInvalidToken)
}

// InvalidEmailToken is InvalidToken as answered by the confirmation link.
func InvalidEmailToken() *apperrors.AppError {
	return apperrors.Unprocessable("Invalid email token for email verification").WithCode(CodeInvalidToken)
}

func WrongScope() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid scope for token").WithCode(CodeInvalidScope)
}

func RefreshMismatch() *apperrors.AppError {
	return apperrors.Unauthorized("Invalid refresh token").WithCode(CodeInvalidRefreshToken)
}

func ContactNotFound() *apperrors.AppError {
	return apperrors.NotFound("Contact not found")
}

func UserNotFound() *apperrors.AppError {
	return apperrors.NotFound("User not found")
}

func VerificationError() *apperrors.AppError {
	return apperrors.InvalidInput("Verification error").WithCode(CodeVerificationError)
}

// StoreUnavailable reports that the database could not be reached. err is
// kept for logging only.
func StoreUnavailable(err error) *apperrors.AppError {
	return apperrors.ServiceUnavailable("Database is unavailable, try again later", err).
		WithCode(CodeStoreUnavailable)
}

// HasCode reports whether err is an AppError with code.
func HasCode(err error, code string) bool {
	var appErr *apperrors.AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
