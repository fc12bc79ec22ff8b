package utils

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type emailInput struct {
	Email string `validate:"required,email"`
}

// ValidateEmail validates an email address
func ValidateEmail(email string) bool {
	return validate.Struct(emailInput{Email: email}) == nil
}

// ValidateStruct runs the validate tags of v
func ValidateStruct(v any) error {
	return validate.Struct(v)
}

// FieldErrors lists the fields that failed validation
func FieldErrors(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fields
}

// SanitizeEmail sanitizes an email address
func SanitizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailLocalPart returns the part of an address before the @
func EmailLocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
