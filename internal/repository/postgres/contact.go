package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/pkg/database"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

const contactColumns = `id, user_id, firstname, lastname, email, phone, birthday, description, created_at, updated_at`

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db database.DBTX
}

// NewContactRepository creates a contact repository over a pool or a transaction.
func NewContactRepository(db database.DBTX) *ContactRepository {
	return &ContactRepository{db: db}
}

// List returns a page of the owner's contacts ordered by id.
func (r *ContactRepository) List(ctx context.Context, ownerID int64, f domain.ListFilter) (contacts []domain.Contact, err error) {
	args := []any{ownerID}
	where := "user_id = $1"
	if search := strings.TrimSpace(f.Search); search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		where += " AND (firstname ILIKE $2 OR lastname ILIKE $2 OR email ILIKE $2)"
	}
	args = append(args, f.Limit, f.Offset)

	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE %s ORDER BY id LIMIT $%d OFFSET $%d`,
		contactColumns, where, len(args)-1, len(args))

	ctx, end := database.TraceQuery(ctx, "contacts.list", query)
	defer func() { end(err) }()

	return r.queryContacts(ctx, query, args...)
}

// ListAll returns every contact of the owner.
func (r *ContactRepository) ListAll(ctx context.Context, ownerID int64) (contacts []domain.Contact, err error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1 ORDER BY id`

	ctx, end := database.TraceQuery(ctx, "contacts.list_all", query)
	defer func() { end(err) }()

	return r.queryContacts(ctx, query, ownerID)
}

// GetByID retrieves one of the owner's contacts.
func (r *ContactRepository) GetByID(ctx context.Context, ownerID, id int64) (c *domain.Contact, err error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = $1 AND id = $2`

	ctx, end := database.TraceQuery(ctx, "contacts.get", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanContact(r.db.QueryRow(ctx, query, ownerID, id))
}

// FindDuplicate returns the first of the owner's contacts, other than
// excludeID, whose email or phone matches.
func (r *ContactRepository) FindDuplicate(ctx context.Context, ownerID int64, email, phone string, excludeID int64) (c *domain.Contact, err error) {
	query := `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = $1 AND (email = $2 OR phone = $3) AND id <> $4
		ORDER BY id
		LIMIT 1`

	ctx, end := database.TraceQuery(ctx, "contacts.find_duplicate", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanContact(r.db.QueryRow(ctx, query, ownerID, email, phone, excludeID))
}

// Create inserts a contact for the owner.
func (r *ContactRepository) Create(ctx context.Context, ownerID int64, f domain.ContactFields) (c *domain.Contact, err error) {
	query := `
		INSERT INTO contacts (user_id, firstname, lastname, email, phone, birthday, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + contactColumns

	ctx, end := database.TraceQuery(ctx, "contacts.create", query)
	defer func() { end(err) }()

	c, err = scanContact(r.db.QueryRow(ctx, query,
		ownerID, f.FirstName, f.LastName, f.Email, f.Phone, birthdayArg(f.Birthday), f.Description,
	))
	if err != nil {
		return nil, mapWriteError("insert contact", err)
	}
	return c, nil
}

// Update overwrites every editable field of the owner's contact.
func (r *ContactRepository) Update(ctx context.Context, ownerID, id int64, f domain.ContactFields) (c *domain.Contact, err error) {
	query := `
		UPDATE contacts
		SET firstname = $1, lastname = $2, email = $3, phone = $4, birthday = $5,
		    description = $6, updated_at = NOW()
		WHERE user_id = $7 AND id = $8
		RETURNING ` + contactColumns

	ctx, end := database.TraceQuery(ctx, "contacts.update", query)
	defer func() { end(ignoreNotFound(err)) }()

	c, err = scanContact(r.db.QueryRow(ctx, query,
		f.FirstName, f.LastName, f.Email, f.Phone, birthdayArg(f.Birthday), f.Description, ownerID, id,
	))
	if err != nil {
		return nil, mapWriteError("update contact", err)
	}
	return c, nil
}

// Delete removes the owner's contact and returns the deleted row.
func (r *ContactRepository) Delete(ctx context.Context, ownerID, id int64) (c *domain.Contact, err error) {
	query := `DELETE FROM contacts WHERE user_id = $1 AND id = $2 RETURNING ` + contactColumns

	ctx, end := database.TraceQuery(ctx, "contacts.delete", query)
	defer func() { end(ignoreNotFound(err)) }()

	return scanContact(r.db.QueryRow(ctx, query, ownerID, id))
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]domain.Contact, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.Contact, 0)
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacts: %w", err)
	}
	return contacts, nil
}

func scanContact(row pgx.Row) (*domain.Contact, error) {
	var (
		c        domain.Contact
		birthday *time.Time
	)
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.Phone,
		&birthday,
		&c.Description,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan contact: %w", err)
	}
	if birthday != nil {
		c.Birthday = domain.DateOf(*birthday)
	}
	return &c, nil
}

func birthdayArg(d domain.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

func mapWriteError(what string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return err
	}
	if _, dup := database.UniqueViolation(err); dup {
		return apperrors.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", what, err)
}

// escapeLike escapes the ILIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
