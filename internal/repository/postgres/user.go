package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/pkg/database"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

const userColumns = `id, username, email, password, refresh_token, confirmed, avatar, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a user repository over a pool or a transaction.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// GetByEmail retrieves a user by exact email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (u *domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	ctx, end := database.TraceQuery(ctx, "users.get_by_email", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanUser(r.db.QueryRow(ctx, query, email))
}

// Create inserts a new unconfirmed user.
func (r *UserRepository) Create(ctx context.Context, nu domain.NewUser) (u *domain.User, err error) {
	query := `
		INSERT INTO users (username, email, password)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	ctx, end := database.TraceQuery(ctx, "users.create", query)
	defer func() { end(err) }()

	u, err = scanUser(r.db.QueryRow(ctx, query, nu.Username, nu.Email, nu.PasswordHash))
	if err != nil {
		if _, dup := database.UniqueViolation(err); dup {
			return nil, apperrors.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// UpdateRefreshToken overwrites the user's refresh token; nil clears it.
func (r *UserRepository) UpdateRefreshToken(ctx context.Context, userID int64, token *string) (err error) {
	query := `UPDATE users SET refresh_token = $1, updated_at = NOW() WHERE id = $2`

	ctx, end := database.TraceQuery(ctx, "users.update_refresh_token", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkConfirmed sets confirmed for email. Unknown emails are ignored.
func (r *UserRepository) MarkConfirmed(ctx context.Context, email string) (err error) {
	query := `UPDATE users SET confirmed = TRUE, updated_at = NOW() WHERE email = $1 AND NOT confirmed`

	ctx, end := database.TraceQuery(ctx, "users.mark_confirmed", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, email); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return nil
}

// UpdateAvatar stores the avatar URL and returns the updated user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, email, url string) (u *domain.User, err error) {
	query := `
		UPDATE users SET avatar = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING ` + userColumns

	ctx, end := database.TraceQuery(ctx, "users.update_avatar", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanUser(r.db.QueryRow(ctx, query, url, email))
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.RefreshToken,
		&u.Confirmed,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	return err
}
