// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleForm struct {
	Username string `validate:"required,username"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

func TestValidateStructAcceptsGoodInput(t *testing.T) {
	err := ValidateStruct(&sampleForm{
		Username: "alice_01",
		Email:    "alice@example.com",
		Password: "password123",
	})
	assert.NoError(t, err)
}

func TestUsernameRule(t *testing.T) {
	valid := []string{"abc", "alice_01", "ABC123"}
	invalid := []string{"ab", "has space", "dash-ed", "évêque", ""}

	for _, username := range valid {
		err := ValidateStruct(&sampleForm{Username: username, Email: "a@b.co", Password: "password"})
		assert.NoError(t, err, "username %q should be accepted", username)
	}
	for _, username := range invalid {
		err := ValidateStruct(&sampleForm{Username: username, Email: "a@b.co", Password: "password"})
		assert.Error(t, err, "username %q should be rejected", username)
	}
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&sampleForm{
		Username: "x",
		Email:    "not-an-email",
		Password: "123",
	})
	require.Error(t, err)

	fields := GetValidationErrors(err)
	require.Len(t, fields, 3)

	byField := make(map[string]FieldError)
	for _, fe := range fields {
		byField[fe.Field] = fe
	}

	assert.Equal(t, "username", byField["username"].Tag)
	assert.Equal(t, "Invalid email format", byField["email"].Message)
	assert.Equal(t, "min", byField["password"].Tag)
}
