package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"alumnihub/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Error represents a validation error on one input field
type Error struct {
	Field   string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return Error{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return Error{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return Error{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return Error{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateName checks if a person name is valid
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return Error{Field: field, Message: field + " is required"}
	}
	if len(name) < 2 {
		return Error{Field: field, Message: field + " must be at least 2 characters"}
	}
	return nil
}

// ValidateRelationship checks the relationship against the recognized values.
// Unrecognized values are rejected outright, never coerced to a default.
func ValidateRelationship(rel models.Relationship) error {
	if !rel.IsValid() {
		return Error{Field: "relationship", Message: "must be one of self, parent, child, other"}
	}
	return nil
}

// ValidateYearOfBirth checks a user-submitted birth year for plausibility.
// The range check here is a UX guard; the age engine applies its own bounds.
func ValidateYearOfBirth(year int) error {
	current := time.Now().Year()
	if year < 1900 || year > current {
		return Error{Field: "year_of_birth", Message: fmt.Sprintf("must be between 1900 and %d", current)}
	}
	return nil
}
