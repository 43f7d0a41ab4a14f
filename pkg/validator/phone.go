package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	minPhoneDigits = 9
	maxPhoneDigits = 15
)

var (
	// ErrInvalidLength indicates the number has too few or too many digits
	ErrInvalidLength = fmt.Errorf("phone number must have %d to %d digits", minPhoneDigits, maxPhoneDigits)

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits and an optional leading +")

	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")
)

// phoneRegex matches an optional leading + followed by digits
var phoneRegex = regexp.MustCompile(`^\+?\d+$`)

// separators are stripped before validation
var separators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "")

// PhoneValidator handles contact phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate checks a contact phone number.
// Accepts e.g. +94 77 123 4567, (077) 123-4567 or 0771234567.
// Returns the sanitized number (optional + and digits) and an error if invalid.
func (v *PhoneValidator) Validate(phone string) (string, error) {
	if strings.TrimSpace(phone) == "" {
		return "", ErrEmptyPhone
	}

	sanitized := v.Sanitize(phone)

	if !phoneRegex.MatchString(sanitized) {
		return "", ErrInvalidFormat
	}

	digits := len(strings.TrimPrefix(sanitized, "+"))
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return "", ErrInvalidLength
	}

	return sanitized, nil
}

// Sanitize removes spaces, dashes, dots and parentheses
func (v *PhoneValidator) Sanitize(phone string) string {
	return separators.Replace(strings.TrimSpace(phone))
}

// IsValid is a convenience method that returns true if phone is valid
func (v *PhoneValidator) IsValid(phone string) bool {
	_, err := v.Validate(phone)
	return err == nil
}
