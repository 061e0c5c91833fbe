// Package validate checks payloads before they are sent to the backend.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/and161185/homeservices/internal/errs"
)

var (
	rePincode = regexp.MustCompile(`^\d{6}$`)
	reDigits  = regexp.MustCompile(`\D`)

	once sync.Once
	v    *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		v = validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return Phone(fl.Field().String())
		})
		_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return Pincode(fl.Field().String())
		})
	})
	return v
}

// Struct validates s by its `validate` tags and returns an *errs.ValidationError
// listing every failing field.
func Struct(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]string, 0, len(ve))
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, toSnake(fe.Field()))
		msgs = append(msgs, fieldError(fe))
	}
	return &errs.ValidationError{Fields: fields, Msg: strings.Join(msgs, "; ")}
}

// Phone reports whether s holds exactly 10 digits once separators are removed.
func Phone(s string) bool {
	return len(reDigits.ReplaceAllString(s, "")) == 10
}

// Pincode reports whether s is a 6 digit postal code.
func Pincode(s string) bool {
	return rePincode.MatchString(s)
}

// fieldError converts a single FieldError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "phone":
		return field + " must have 10 digits"
	case "pincode":
		return field + " must have 6 digits"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

// toSnake turns a Go field name like ServiceID into service_id.
func toSnake(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := rs[i-1] >= 'a' && rs[i-1] <= 'z'
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
