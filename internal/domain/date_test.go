package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/contactsbook/pkg/errors"
)

func TestDate_JSON(t *testing.T) {
	c := Contact{FirstName: "Ann", Birthday: NewDate(1990, time.March, 7)}

	raw, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"birthday":"1990-03-07"`)

	var f ContactFields
	require.NoError(t, json.Unmarshal([]byte(`{"birthday":"1990-03-07T10:00:00Z"}`), &f))
	assert.Equal(t, "1990-03-07", f.Birthday.String())

	err = json.Unmarshal([]byte(`{"birthday":"07.03.1990"}`), &f)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "YYYY-MM-DD")
}

func TestContact_ApplyOverwritesEveryField(t *testing.T) {
	c := Contact{ID: 3, FirstName: "Old", LastName: "Name", Email: "old@x.com", Phone: "111", Description: "d"}
	c.Apply(ContactFields{FirstName: "New", Email: "new@x.com", Phone: "222", Birthday: NewDate(2000, 1, 1)})

	assert.Equal(t, int64(3), c.ID)
	assert.Equal(t, "New", c.FirstName)
	assert.Empty(t, c.LastName)
	assert.Empty(t, c.Description)
	assert.Equal(t, "new@x.com", c.Email)
	assert.Equal(t, "2000-01-01", c.Birthday.String())
}

func TestUser_HasRefreshToken(t *testing.T) {
	u := &User{}
	assert.False(t, u.HasRefreshToken(""))

	tok := "abc"
	u.RefreshToken = &tok
	assert.True(t, u.HasRefreshToken("abc"))
	assert.False(t, u.HasRefreshToken("abd"))
}

func TestErrors_Codes(t *testing.T) {
	assert.True(t, HasCode(EmailNotConfirmed(), CodeEmailNotConfirmed))
	assert.Equal(t, 401, EmailNotConfirmed().Status)
	assert.Equal(t, 422, InvalidEmailToken().Status)
	assert.Equal(t, 409, DuplicateContact().Status)
	assert.True(t, HasCode(DuplicateContact(), CodeDuplicateContact))
	assert.True(t, HasCode(DuplicateEmail(), CodeDuplicateEmail))
	assert.NotEqual(t, DuplicateEmail().Code, DuplicateContact().Code)
	assert.ErrorIs(t, DuplicateEmail(), apperrors.ErrAlreadyExists)
	assert.Equal(t, 400, VerificationError().Status)
	assert.Equal(t, 503, StoreUnavailable(nil).Status)
	assert.True(t, HasCode(StoreUnavailable(nil), CodeStoreUnavailable))
	assert.False(t, HasCode(nil, CodeNotFound))
}
