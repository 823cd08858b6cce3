// Package validation wraps go-playground/validator with the short, human
// messages the client shows in its error banners.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/coursehub/learner/internal/core/domain"
)

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		instance = v
	})
	return instance
}

// Struct validates s and returns a *domain.ValidationError listing every
// failing field, or nil.
func Struct(s any) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	fields := make([]domain.FieldError, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, domain.FieldError{
			Field:   label(fe),
			Message: message(fe),
		})
	}
	return &domain.ValidationError{Fields: fields}
}

// Echo adapts the package to echo.Validator.
type Echo struct{}

// Validate satisfies the echo.Validator interface.
func (Echo) Validate(i any) error {
	return Struct(i)
}

func label(fe validator.FieldError) string {
	return strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
}

func message(fe validator.FieldError) string {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return field + " is required."
	case "email":
		return "Please enter a valid email address."
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must list at least %s item(s).", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters long.", field, fe.Param())
	case "numeric":
		return field + " must be a valid number."
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid (%s).", field, fe.Tag())
	}
}

// humanize turns "FullName" into "Full name".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
