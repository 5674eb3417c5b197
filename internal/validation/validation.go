// Package validation runs request input through an ordered list of rules and
// collects field-level errors in the public `{message, field}` shape.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Message string `json:"message"`
	Field   string `json:"field"`
}

// Rule is one step of a validation pipeline. It returns nil when the input passes.
type Rule func() []FieldError

// Run executes rules in order and concatenates their errors.
// A field already reported by an earlier rule is not reported again.
func Run(rules ...Rule) []FieldError {
	var result []FieldError
	seen := make(map[string]bool)
	for _, rule := range rules {
		for _, fe := range rule() {
			if seen[fe.Field] {
				continue
			}
			seen[fe.Field] = true
			result = append(result, fe)
		}
	}
	return result
}

var loginPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]*$`)

// Validator wraps go-playground/validator with the tags and messages used by the API.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator. Field names are taken from json tags.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// Registration on a fresh instance only fails for an empty tag or nil func.
	_ = v.RegisterValidation("login", func(fl validator.FieldLevel) bool {
		return loginPattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Struct returns a rule checking the `validate` tags of s.
// Each failing field yields a single error for its first failing tag.
func (v *Validator) Struct(s any) Rule {
	return func() []FieldError {
		err := v.validate.Struct(s)
		if err == nil {
			return nil
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return []FieldError{{Message: "invalid input", Field: ""}}
		}

		result := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			result = append(result, FieldError{Message: message(fe), Field: fe.Field()})
		}
		return result
	}
}

// Check returns a rule reporting msg for field when ok is false.
func Check(ok bool, field, msg string) Rule {
	return func() []FieldError {
		if ok {
			return nil
		}
		return []FieldError{{Message: msg, Field: field}}
	}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "login":
		return fmt.Sprintf("%s may contain only letters, digits, '_' and '-'", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Trim strips surrounding whitespace from every given string in place.
func Trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
