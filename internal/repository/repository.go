package repository

import (
	"context"

	"github.com/utafrali/contactsbook/internal/domain"
)

// Lookups signal absence with apperrors.ErrNotFound and unique-key conflicts
// with apperrors.ErrAlreadyExists. Any other error is a store failure.

// UserRepository persists accounts.
type UserRepository interface {
	// GetByEmail returns the user with exactly this email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create inserts a new unconfirmed user.
	Create(ctx context.Context, u domain.NewUser) (*domain.User, error)

	// UpdateRefreshToken overwrites the stored refresh token; nil clears it.
	UpdateRefreshToken(ctx context.Context, userID int64, token *string) error

	// MarkConfirmed sets confirmed for email. Confirming twice is a no-op.
	MarkConfirmed(ctx context.Context, email string) error

	// UpdateAvatar stores url as the avatar of email and returns the updated user.
	UpdateAvatar(ctx context.Context, email, url string) (*domain.User, error)
}

// ContactRepository persists contacts. Every method is scoped to ownerID.
type ContactRepository interface {
	// List returns one page of the owner's contacts, optionally narrowed by a
	// case-insensitive substring match on first name, last name or email.
	List(ctx context.Context, ownerID int64, filter domain.ListFilter) ([]domain.Contact, error)

	// ListAll returns every contact of the owner.
	ListAll(ctx context.Context, ownerID int64) ([]domain.Contact, error)

	GetByID(ctx context.Context, ownerID, id int64) (*domain.Contact, error)

	// FindDuplicate returns an owner's contact sharing email OR phone, other
	// than excludeID (0 excludes nothing).
	FindDuplicate(ctx context.Context, ownerID int64, email, phone string, excludeID int64) (*domain.Contact, error)

	Create(ctx context.Context, ownerID int64, f domain.ContactFields) (*domain.Contact, error)

	// Update overwrites every editable field of the contact.
	Update(ctx context.Context, ownerID, id int64, f domain.ContactFields) (*domain.Contact, error)

	// Delete removes the contact and returns it as it was.
	Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error)
}

// Store hands out repositories bound either to the pool or to one
// transaction. InTx commits when fn returns nil and rolls back otherwise.
type Store interface {
	Users() UserRepository
	Contacts() ContactRepository
	InTx(ctx context.Context, fn func(s Store) error) error
	Ping(ctx context.Context) error
}
