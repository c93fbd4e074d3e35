package validator

import (
	"strings"
	"unicode/utf8"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const maxLocationLen = 100

// ValidateSignup only checks presence. Any non-empty email and password are
// accepted.
func ValidateSignup(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	if strings.TrimSpace(email) == "" {
		errs.Add("email", "Email is required")
	}
	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateLocation checks optional city and country values; empty is valid.
func ValidateLocation(city, country string) ValidationErrors {
	errs := make(ValidationErrors)

	if utf8.RuneCountInString(strings.TrimSpace(city)) > maxLocationLen {
		errs.Add("city", "City is too long")
	}
	if utf8.RuneCountInString(strings.TrimSpace(country)) > maxLocationLen {
		errs.Add("country", "Country is too long")
	}

	return errs
}
