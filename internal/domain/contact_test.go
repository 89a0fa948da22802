package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/contactsbook/pkg/validator"
)

func validFields() ContactFields {
	return ContactFields{
		FirstName: "Ann",
		Email:     "ann@example.com",
		Phone:     "+380501234567",
		Birthday:  NewDate(1990, time.March, 7),
	}
}

func TestContactFields_PhoneAcceptsAnyShortString(t *testing.T) {
	f := validFields()
	f.Phone = "+1.555.1234"
	assert.NoError(t, validator.Validate(f))

	f.Phone = "123456789012345678901"
	err := validator.Validate(f)
	var valErr *validator.ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, valErr.Fields(), "phone")
}

func TestContact_Apply(t *testing.T) {
	c := Contact{ID: 5, FirstName: "Old", Description: "old"}
	c.Apply(validFields())

	assert.Equal(t, int64(5), c.ID)
	assert.Equal(t, "Ann", c.FirstName)
	assert.Equal(t, "", c.Description)
	assert.Equal(t, "+380501234567", c.Phone)
}
