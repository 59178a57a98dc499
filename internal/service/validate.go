package service

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	minPasswordLen = 6
	// bcrypt rejects longer input; the limit is in bytes, not runes.
	maxPasswordBytes = 72
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func checkPassword(pw string) error {
	if len(pw) < minPasswordLen {
		return newErr(ErrValidation, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if len(pw) > maxPasswordBytes {
		return newErr(ErrValidation, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes))
	}
	return nil
}
