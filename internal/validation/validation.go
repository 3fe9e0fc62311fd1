// package validation checks account forms before they are sent to the API.
//
// Constraints are declared as `validate` struct tags on the request types in models and evaluated
// with go-playground/validator. Two custom rules are registered:
//   - strongpassword: at least 8 characters with a lower case letter, an upper case letter, a digit
//     and a symbol
//   - birthday: a yyyy-mm-dd date that is not in the future and not more than 200 years ago
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/flix/internal/shared"
)

const (
	MinPasswordLength = 8
	MaxAgeYears       = 200
)

// FieldError is a single failed constraint.
type FieldError struct {
	Field   string
	Message string
}

// Errors lists every failed constraint of a form. It matches [shared.ErrInvalidInput].
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, " ")
}

func (e Errors) Unwrap() error { return shared.ErrInvalidInput }

// Field returns the message for field, or "" when the field passed.
func (e Errors) Field(name string) string {
	for _, fe := range e {
		if fe.Field == name {
			return fe.Message
		}
	}
	return ""
}

// Validator wraps a configured [validator.Validate].
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New returns a [Validator] with the custom rules registered.
func New() *Validator {
	return newWithClock(time.Now)
}

func newWithClock(now func() time.Time) *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: now}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// registration only fails for empty tags or nil funcs
	_ = v.validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return StrongPassword(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("birthday", func(fl validator.FieldLevel) bool {
		return v.Birthday(fl.Field().String()) == nil
	})
	return v
}

// Struct validates a tagged request struct and returns [Errors] on failure.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// StrongPassword reports whether pw has the minimum length and every character class.
func StrongPassword(pw string) bool {
	if len(pw) < MinPasswordLength {
		return false
	}

	var lower, upper, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r) || r == '_':
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// Birthday checks a yyyy-mm-dd date against the current clock.
func (v *Validator) Birthday(s string) error {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return fmt.Errorf("%w: birthday must be formatted as yyyy-mm-dd", shared.ErrInvalidInput)
	}

	now := v.now()
	if d.After(now) {
		return fmt.Errorf("%w: birthday cannot be in the future", shared.ErrInvalidInput)
	}
	if d.Before(now.AddDate(-MaxAgeYears, 0, 0)) {
		return fmt.Errorf("%w: birthday cannot be more than %d years ago", shared.ErrInvalidInput, MaxAgeYears)
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := label(fe.Field())
	switch fe.Tag() {
	case "required", "required_with":
		return field + " is required."
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long.", field, fe.Param())
	case "email":
		return "Please enter a valid email address."
	case "strongpassword":
		return fmt.Sprintf("%s must be at least %d characters with upper and lower case letters, a number and a symbol.", field, MinPasswordLength)
	case "birthday":
		return fmt.Sprintf("Birthday must be a yyyy-mm-dd date within the last %d years.", MaxAgeYears)
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

var labels = map[string]string{
	"username":        "Username",
	"password":        "Password",
	"email":           "Email",
	"birthday":        "Birthday",
	"currentPassword": "Current password",
	"newPassword":     "New password",
}

func label(field string) string {
	if l, ok := labels[field]; ok {
		return l
	}
	return field
}
