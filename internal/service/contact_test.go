package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/contactsbook/internal/domain"
	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

const ownerID int64 = 7

func newTestContactService() (*ContactService, *fakeStore) {
	store := newFakeStore()
	return NewContactService(store, newTestProducer(), newTestLogger()), store
}

func sampleFields() domain.ContactFields {
	return domain.ContactFields{
		FirstName: "Bob",
		LastName:  "Smith",
		Email:     "bob@example.com",
		Phone:     "+380501234567",
		Birthday:  domain.NewDate(1990, time.June, 15),
	}
}

func sampleContact(id int64) *domain.Contact {
	c := &domain.Contact{ID: id, UserID: ownerID}
	c.Apply(sampleFields())
	return c
}

func TestContactService_List(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	filter := domain.ListFilter{Limit: 10, Search: "bob"}
	store.contacts.On("List", ctx, ownerID, filter).Return([]domain.Contact{*sampleContact(1)}, nil)

	contacts, err := svc.List(ctx, ownerID, filter)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
	store.contacts.AssertExpectations(t)
}

func TestContactService_Get_NotFound(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	store.contacts.On("GetByID", ctx, ownerID, int64(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Get(ctx, ownerID, 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Contact not found", appMessage(t, err))
}

func TestContactService_Create(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()

	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(0)).Return(nil, apperrors.ErrNotFound)
	store.contacts.On("Create", ctx, ownerID, f).Return(sampleContact(1), nil)

	created, err := svc.Create(ctx, ownerID, f)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, 1, store.txCalls)
	store.contacts.AssertExpectations(t)
}

func TestContactService_Create_Duplicate(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()
	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(0)).Return(sampleContact(3), nil)

	_, err := svc.Create(ctx, ownerID, f)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	store.contacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestContactService_Create_UniqueViolation(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()
	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(0)).Return(nil, apperrors.ErrNotFound)
	store.contacts.On("Create", ctx, ownerID, f).Return(nil, apperrors.ErrAlreadyExists)

	_, err := svc.Create(ctx, ownerID, f)
	assert.Equal(t, "Contact already exists", appMessage(t, err))
}

func TestContactService_Update(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()
	f.Description = "updated"
	want := sampleContact(1)
	want.Description = "updated"

	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(1)).Return(nil, apperrors.ErrNotFound)
	store.contacts.On("Update", ctx, ownerID, int64(1), f).Return(want, nil)

	got, err := svc.Update(ctx, ownerID, 1, f)
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Description)
	store.contacts.AssertExpectations(t)
}

func TestContactService_Update_DuplicateBeforeNotFound(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()
	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(99)).Return(sampleContact(3), nil)

	_, err := svc.Update(ctx, ownerID, 99, f)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	store.contacts.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestContactService_Update_NotFound(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	f := sampleFields()
	store.contacts.On("FindDuplicate", ctx, ownerID, f.Email, f.Phone, int64(99)).Return(nil, apperrors.ErrNotFound)
	store.contacts.On("Update", ctx, ownerID, int64(99), f).Return(nil, apperrors.ErrNotFound)

	_, err := svc.Update(ctx, ownerID, 99, f)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestContactService_Delete(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	store.contacts.On("Delete", ctx, ownerID, int64(1)).Return(sampleContact(1), nil)
	store.contacts.On("Delete", ctx, ownerID, int64(2)).Return(nil, apperrors.ErrNotFound)

	deleted, err := svc.Delete(ctx, ownerID, 1)
	require.NoError(t, err)
	assert.Equal(t, "Bob", deleted.FirstName)

	_, err = svc.Delete(ctx, ownerID, 2)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestContactService_UpcomingBirthdays(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	svc = svc.WithClock(func() time.Time { return time.Date(2024, time.December, 28, 15, 0, 0, 0, time.Local) })

	birthday := func(id int64, m time.Month, d int) domain.Contact {
		c := *sampleContact(id)
		c.Birthday = domain.NewDate(1990, m, d)
		return c
	}
	all := []domain.Contact{
		birthday(1, time.December, 28), // today
		birthday(2, time.December, 29),
		birthday(3, time.January, 4),
		birthday(4, time.January, 5),
		{ID: 5, UserID: ownerID},
	}
	store.contacts.On("ListAll", ctx, ownerID).Return(all, nil)

	upcoming, err := svc.UpcomingBirthdays(ctx, ownerID)
	require.NoError(t, err)

	ids := make([]int64, 0, len(upcoming))
	for _, c := range upcoming {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []int64{2, 3}, ids)
}

func TestContactService_StoreUnavailable(t *testing.T) {
	svc, store := newTestContactService()
	ctx := context.Background()
	store.contacts.On("ListAll", ctx, ownerID).Return(nil, errors.New("read: connection reset by peer"))

	_, err := svc.UpcomingBirthdays(ctx, ownerID)
	assert.True(t, errors.Is(err, apperrors.ErrServiceUnavail))
}
