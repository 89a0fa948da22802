package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/utafrali/contactsbook/internal/auth"
	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/pkg/database"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

// storeError turns a repository failure into StoreUnavailable when the
// database could not be reached, and wraps it with op otherwise. AppErrors
// pass through untouched.
func storeError(op string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if database.IsConnectionError(err) || errors.Is(err, context.DeadlineExceeded) {
		return domain.StoreUnavailable(fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// tokenError maps a decode failure onto WrongScope or InvalidToken.
func tokenError(err error) error {
	if errors.Is(err, auth.ErrWrongScope) {
		return domain.WrongScope()
	}
	return domain.InvalidToken()
}

func isNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrNotFound)
}

func isDuplicate(err error) bool {
	return errors.Is(err, apperrors.ErrAlreadyExists)
}
