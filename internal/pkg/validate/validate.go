package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/portfolio-gate/internal/domain"
)

const (
	maxEmailLen = 255
	minTokenLen = 32
	maxTokenLen = 64
)

// v is the package-level singleton validator. It is initialised once at
// package load time. Any custom type registrations must be made during init()
// before the first call to Struct.
var v = validator.New()

var tokenAlphabet = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Error is a validation failure whose message is safe to show to clients.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return domain.ErrValidation }

// Struct validates the given struct using its validate tags.
// The returned error wraps domain.ErrValidation.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrValidation)
	}
	return nil
}

// Email trims and lowercases raw and checks it is a plausible address.
// The returned form is the only one callers may use as a storage key.
func Email(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", &Error{Msg: "Invalid email format"}
	}
	if len(email) > maxEmailLen {
		return "", &Error{Msg: "Email too long"}
	}
	if err := v.Var(email, "email"); err != nil {
		return "", &Error{Msg: "Invalid email format"}
	}
	return email, nil
}

// Token rejects magic-link tokens that cannot have been issued by this service.
func Token(raw string) (string, error) {
	if len(raw) < minTokenLen || len(raw) > maxTokenLen {
		return "", &Error{Msg: "Invalid token"}
	}
	if !tokenAlphabet.MatchString(raw) {
		return "", &Error{Msg: "Invalid token format"}
	}
	return raw, nil
}
