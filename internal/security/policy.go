package security

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultMinPasswordLength = 8
	DefaultSpecialChars      = "!@#$%^&*()_+-=[]{};':\"\\|,.<>/?`~"
)

var (
	emailValidator     *validator.Validate
	emailValidatorOnce sync.Once
)

// ValidateEmail is a structural format check, not a deliverability check.
func ValidateEmail(email string) bool {
	emailValidatorOnce.Do(func() {
		emailValidator = validator.New()
	})
	if email == "" || strings.TrimSpace(email) != email {
		return false
	}
	return emailValidator.Var(email, "required,email") == nil
}

// PasswordPolicy accepts passwords of at least MinLength characters that
// contain one or more of SpecialChars. There is no upper bound.
type PasswordPolicy struct {
	MinLength    int
	SpecialChars string
}

func NewPasswordPolicy(minLength int, specialChars string) PasswordPolicy {
	if minLength <= 0 {
		minLength = DefaultMinPasswordLength
	}
	if specialChars == "" {
		specialChars = DefaultSpecialChars
	}
	return PasswordPolicy{MinLength: minLength, SpecialChars: specialChars}
}

func (p PasswordPolicy) Validate(password string) bool {
	if utf8.RuneCountInString(password) < p.MinLength {
		return false
	}
	return strings.ContainsAny(password, p.SpecialChars)
}
