package session

import (
	"errors"
	"regexp"
	"unicode"
)

var (
	ErrInvalidEmail     = errors.New("Please enter a valid email")
	ErrWeakPassword     = errors.New("Password must be at least 8 characters, include uppercase, lowercase, number, and special character")
	ErrPasswordMismatch = errors.New("Passwords don't match")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword requires 8+ characters with at least one lowercase letter,
// one uppercase letter, one digit and one symbol.
func ValidatePassword(password string) error {
	var lower, upper, digit, symbol bool
	count := 0
	for _, r := range password {
		count++
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case r == '_' || unicode.IsSpace(r):
		default:
			symbol = true
		}
	}
	if count < 8 || !lower || !upper || !digit || !symbol {
		return ErrWeakPassword
	}
	return nil
}

func ValidateRegistration(email, password, rePassword string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != rePassword {
		return ErrPasswordMismatch
	}
	return nil
}
