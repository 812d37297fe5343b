// Package validator collects per-field input problems and turns them into a
// single validation error.
package validator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ovaphlow/pitchfork/service-taskbite/internal/apperr"
)

var (
	EmailRX    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	UsernameRX = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

const (
	PasswordMinLength = 8
	// bcrypt ignores everything past 72 bytes
	PasswordMaxBytes = 72
)

type Validator struct {
	Errors map[string]string
}

func New() *Validator {
	return &Validator{Errors: make(map[string]string)}
}

func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// Check records msg for key when ok is false. The first message per key wins.
func (v *Validator) Check(ok bool, key, msg string) {
	if ok {
		return
	}
	if _, exists := v.Errors[key]; !exists {
		v.Errors[key] = msg
	}
}

func (v *Validator) Required(value, key string) {
	v.Check(strings.TrimSpace(value) != "", key, "must be provided")
}

func (v *Validator) MaxLength(value string, n int, key string) {
	v.Check(utf8.RuneCountInString(value) <= n, key, "must not be longer than "+strconv.Itoa(n)+" characters")
}

func (v *Validator) Email(email string) {
	v.Required(email, "email")
	v.Check(EmailRX.MatchString(email), "email", "must be a valid email address")
	v.MaxLength(email, 120, "email")
}

func (v *Validator) Username(username string) {
	v.Required(username, "username")
	v.Check(UsernameRX.MatchString(username), "username", "may only contain letters, digits, '_', '.' and '-'")
	v.MaxLength(username, 80, "username")
}

func (v *Validator) Password(password string) {
	v.Required(password, "password")
	v.Check(utf8.RuneCountInString(password) >= PasswordMinLength, "password", "must be at least 8 characters")
	v.Check(len(password) <= PasswordMaxBytes, "password", "must be at most 72 bytes")
}

// Err returns nil when valid, otherwise a validation error whose message is
// the message of a single failing field or msg when several fields fail.
func (v *Validator) Err(msg string) error {
	if v.Valid() {
		return nil
	}
	if len(v.Errors) == 1 {
		for k, m := range v.Errors {
			return apperr.Invalid(k+" "+m, v.Errors)
		}
	}
	return apperr.Invalid(msg, v.Errors)
}
