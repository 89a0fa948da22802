package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/utafrali/contactsbook/internal/domain"
	"github.com/utafrali/contactsbook/internal/event"
	"github.com/utafrali/contactsbook/internal/repository"
)

// ContactService implements the contact book operations of one owner.
type ContactService struct {
	store    repository.Store
	producer *event.Producer
	logger   *slog.Logger
	now      func() time.Time
}

// NewContactService creates a new contact service.
func NewContactService(store repository.Store, producer *event.Producer, logger *slog.Logger) *ContactService {
	return &ContactService{
		store:    store,
		producer: producer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock returns a copy of s that reads today from now.
func (s *ContactService) WithClock(now func() time.Time) *ContactService {
	c := *s
	c.now = now
	return &c
}

// List returns one page of the owner's contacts.
func (s *ContactService) List(ctx context.Context, ownerID int64, filter domain.ListFilter) ([]domain.Contact, error) {
	contacts, err := s.store.Contacts().List(ctx, ownerID, filter)
	if err != nil {
		return nil, storeError("list contacts", err)
	}
	return contacts, nil
}

// Get returns one contact of the owner.
func (s *ContactService) Get(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	contact, err := s.store.Contacts().GetByID(ctx, ownerID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ContactNotFound()
		}
		return nil, storeError("get contact", err)
	}
	return contact, nil
}

// Create adds a contact unless the owner already has one with the same email
// or phone.
func (s *ContactService) Create(ctx context.Context, ownerID int64, f domain.ContactFields) (*domain.Contact, error) {
	var created *domain.Contact
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := ensureUnique(ctx, tx.Contacts(), ownerID, f, 0); err != nil {
			return err
		}

		c, err := tx.Contacts().Create(ctx, ownerID, f)
		if err != nil {
			if isDuplicate(err) {
				return domain.DuplicateContact()
			}
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		return nil, storeError("create contact", err)
	}

	if err := s.producer.PublishContactCreated(ctx, created); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("contact_id", created.ID))
	}

	s.logger.InfoContext(ctx, "contact created",
		slog.Int64("contact_id", created.ID),
		slog.Int64("user_id", ownerID),
	)
	return created, nil
}

// Update replaces every editable field of a contact. The duplicate check
// runs before the existence check, so a conflicting email or phone answers
// with a conflict even for a missing id.
func (s *ContactService) Update(ctx context.Context, ownerID, id int64, f domain.ContactFields) (*domain.Contact, error) {
	var updated *domain.Contact
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		if err := ensureUnique(ctx, tx.Contacts(), ownerID, f, id); err != nil {
			return err
		}

		c, err := tx.Contacts().Update(ctx, ownerID, id, f)
		if err != nil {
			switch {
			case isNotFound(err):
				return domain.ContactNotFound()
			case isDuplicate(err):
				return domain.DuplicateContact()
			}
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, storeError("update contact", err)
	}

	if err := s.producer.PublishContactUpdated(ctx, updated); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("contact_id", updated.ID))
	}
	return updated, nil
}

// Delete removes a contact and returns it as it was.
func (s *ContactService) Delete(ctx context.Context, ownerID, id int64) (*domain.Contact, error) {
	deleted, err := s.store.Contacts().Delete(ctx, ownerID, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.ContactNotFound()
		}
		return nil, storeError("delete contact", err)
	}

	if err := s.producer.PublishContactDeleted(ctx, deleted); err != nil {
		s.producer.LogFailure(ctx, err, slog.Int64("contact_id", deleted.ID))
	}

	s.logger.InfoContext(ctx, "contact deleted",
		slog.Int64("contact_id", deleted.ID),
		slog.Int64("user_id", ownerID),
	)
	return deleted, nil
}

// UpcomingBirthdays returns the owner's contacts whose birthday falls in the
// week after today.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, ownerID int64) ([]domain.Contact, error) {
	contacts, err := s.store.Contacts().ListAll(ctx, ownerID)
	if err != nil {
		return nil, storeError("list contacts", err)
	}
	return domain.UpcomingBirthdays(contacts, s.now()), nil
}

func ensureUnique(ctx context.Context, repo repository.ContactRepository, ownerID int64, f domain.ContactFields, excludeID int64) error {
	_, err := repo.FindDuplicate(ctx, ownerID, f.Email, f.Phone, excludeID)
	switch {
	case err == nil:
		return domain.DuplicateContact()
	case isNotFound(err):
		return nil
	default:
		return fmt.Errorf("find duplicate: %w", err)
	}
}
