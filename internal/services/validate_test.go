package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var svcErr *Error
	require.True(t, errors.As(err, &svcErr), "expected *Error, got %v", err)
	return svcErr.Fields
}

func TestRegisterInputValidate(t *testing.T) {
	tests := []struct {
		name  string
		in    RegisterInput
		field string
	}{
		{"short name", RegisterInput{Name: "ab", Email: "a@b.co", Password: "secret1"}, "name"},
		{"long name", RegisterInput{Name: strings.Repeat("n", 51), Email: "a@b.co", Password: "secret1"}, "name"},
		{"blank name", RegisterInput{Name: "   ", Email: "a@b.co", Password: "secret1"}, "name"},
		{"missing email", RegisterInput{Name: "Test User", Password: "secret1"}, "email"},
		{"no at sign", RegisterInput{Name: "Test User", Email: "example.com", Password: "secret1"}, "email"},
		{"no tld", RegisterInput{Name: "Test User", Email: "a@localhost", Password: "secret1"}, "email"},
		{"display name", RegisterInput{Name: "Test User", Email: "Bob <bob@example.com>", Password: "secret1"}, "email"},
		{"short password", RegisterInput{Name: "Test User", Email: "a@b.co", Password: "12345"}, "password"},
		{"long password", RegisterInput{Name: "Test User", Email: "a@b.co", Password: strings.Repeat("p", 21)}, "password"},
		{"password over 72 bytes", RegisterInput{Name: "Test User", Email: "a@b.co", Password: strings.Repeat("😀", 19)}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Validate()
			require.ErrorIs(t, err, ErrInvalidInput)
			fields := fieldsOf(t, err)
			assert.Len(t, fields, 1)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestRegisterInputValidateAcceptsBoundaries(t *testing.T) {
	in := RegisterInput{Name: "Ana", Email: " Ana@Example.org", Password: "123456"}
	out, err := in.Validate()
	require.NoError(t, err)
	assert.Equal(t, "ana@example.org", out.Email)

	in = RegisterInput{Name: strings.Repeat("ñ", 50), Email: "a@b.co", Password: strings.Repeat("p", 20)}
	_, err = in.Validate()
	assert.NoError(t, err)

	in = RegisterInput{Name: "Test User", Email: "a@b.co", Password: strings.Repeat("😀", 18)}
	_, err = in.Validate()
	assert.NoError(t, err, "72 bytes is still accepted")
}

func TestLoginInputValidate(t *testing.T) {
	out, err := LoginInput{Email: "Test@Example.com", Password: "x"}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", out.Email)

	_, err = LoginInput{Email: "test@example.com"}.Validate()
	assert.Contains(t, fieldsOf(t, err), "password")
}

func TestUpdateInputValidate(t *testing.T) {
	_, err := UpdateInput{}.Validate()
	assert.Contains(t, fieldsOf(t, err), "body")

	out, err := UpdateInput{Email: strPtr(" New@Example.com ")}.Validate()
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", *out.Email)

	_, err = UpdateInput{Password: strPtr("123")}.Validate()
	assert.Contains(t, fieldsOf(t, err), "password")
}
