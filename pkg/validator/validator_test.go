package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupLike struct {
	Username string `json:"username" validate:"required,min=5,max=16"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=10"`
}

type contactLike struct {
	Firstname string `json:"firstname" validate:"required,min=1,max=50"`
	Phone     string `json:"phone" validate:"required,max=20"`
	Internal  string `json:"-" validate:"required"`
}

type loginLike struct {
	Username string `form:"username" validate:"required,email"`
}

func TestValidate_Success(t *testing.T) {
	s := signupLike{Username: "alice1", Email: "alice@example.com", Password: "secret1"}
	assert.NoError(t, Validate(s))
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	err := Validate(signupLike{Email: "alice@example.com", Password: "secret1"})
	require.Error(t, err)

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "is required", fields["username"])
	assert.NotContains(t, fields, "Username")
}

func TestValidate_UsesFormFieldNames(t *testing.T) {
	err := Validate(loginLike{Username: "not-an-email"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be a valid email address", valErr.Fields()["username"])
}

func TestValidate_LengthBounds(t *testing.T) {
	err := Validate(signupLike{Username: "abc", Email: "a@b.co", Password: "waytoolongpassword"})

	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	fields := valErr.Fields()
	assert.Equal(t, "must be at least 5 characters", fields["username"])
	assert.Equal(t, "must be at most 10 characters", fields["password"])
}

func TestValidate_PhoneIsFreeForm(t *testing.T) {
	for _, phone := range []string{"+380501234567", "(050) 123-45-67", "+1.555.1234", "ext. 12"} {
		assert.NoError(t, Validate(contactLike{Firstname: "Bob", Phone: phone, Internal: "x"}), phone)
	}

	err := Validate(contactLike{Firstname: "Bob", Phone: strings.Repeat("1", 21), Internal: "x"})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	assert.Equal(t, "must be at most 20 characters", valErr.Fields()["phone"])
}

func TestValidationError_ErrorString(t *testing.T) {
	err := Validate(signupLike{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'username'")
	assert.Contains(t, err.Error(), "is required")
}

func TestDecodeAndValidate_Valid(t *testing.T) {
	body := `{"username":"alice1","email":"alice@example.com","password":"secret1"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dst signupLike
	require.NoError(t, DecodeAndValidate(r, &dst))
	assert.Equal(t, "alice1", dst.Username)
}

func TestDecodeAndValidate_MalformedJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))

	var dst signupLike
	err := DecodeAndValidate(r, &dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode request body")
}
