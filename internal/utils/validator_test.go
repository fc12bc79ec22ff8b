package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"alice@x.com", true},
		{"a.b+tag@example.co.uk", true},
		{"", false},
		{"alice", false},
		{"alice@", false},
		{"@x.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateEmail(tt.email))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "alice@x.com", SanitizeEmail("  Alice@X.com \n"))
}

func TestEmailLocalPart(t *testing.T) {
	assert.Equal(t, "alice", EmailLocalPart("alice@x.com"))
	assert.Equal(t, "bob", EmailLocalPart("bob"))
}

func TestFieldErrors(t *testing.T) {
	type input struct {
		Username string `validate:"min=3"`
		Email    string `validate:"email"`
	}

	err := ValidateStruct(input{Username: "ab", Email: "bad"})
	assert.ElementsMatch(t, []string{"username", "email"}, FieldErrors(err))
	assert.Nil(t, FieldErrors(nil))
}
