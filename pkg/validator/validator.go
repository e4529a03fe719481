package validator

import (
	"fmt"
	"regexp"
)

const (
	minEmailLength    = 3
	maxEmailLength    = 255
	minPasswordLength = 4
	maxPasswordLength = 128
	maxNameLength     = 255

	errEmailEmptyFmt        = "email cannot be empty"
	errEmailLengthFmt       = "email must be between %d and %d characters"
	errEmailInvalidFmt      = "invalid email format"
	errPasswordEmptyFmt     = "password cannot be empty"
	errPasswordMinLengthFmt = "password must be at least %d characters"
	errPasswordMaxLengthFmt = "password must not exceed %d characters"
	errNameEmptyFmt         = "%s cannot be empty"
	errNameMaxLengthFmt     = "%s must not exceed %d characters"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func Email(email string) error {
	if email == "" {
		return fmt.Errorf(errEmailEmptyFmt)
	}

	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return fmt.Errorf(errEmailLengthFmt, minEmailLength, maxEmailLength)
	}

	if !emailRegex.MatchString(email) {
		return fmt.Errorf(errEmailInvalidFmt)
	}

	return nil
}

func Password(password string) error {
	if len(password) == 0 {
		return fmt.Errorf(errPasswordEmptyFmt)
	}

	if len(password) < minPasswordLength {
		return fmt.Errorf(errPasswordMinLengthFmt, minPasswordLength)
	}

	if len(password) > maxPasswordLength {
		return fmt.Errorf(errPasswordMaxLengthFmt, maxPasswordLength)
	}

	return nil
}

// Name validates a person name field (first or last name).
// The field argument is used in error messages.
func Name(field, value string) error {
	if value == "" {
		return fmt.Errorf(errNameEmptyFmt, field)
	}

	if len(value) > maxNameLength {
		return fmt.Errorf(errNameMaxLengthFmt, field, maxNameLength)
	}

	return nil
}
