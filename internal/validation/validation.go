// Package validation schema-checks and cleans raw input before it is persisted.
// Every function here is pure: expected bad input yields an *Error, never a panic.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	personNamePattern = regexp.MustCompile(`^[\p{L}\p{M}\s]+$`)
	phonePattern      = regexp.MustCompile(`^[0-9\s()+\-]+$`)
	promoCodePattern  = regexp.MustCompile(`^[A-Z0-9_-]+$`)
	whitespace        = regexp.MustCompile(`\s+`)
)

var validate = newValidator()

// Error carries every rule violation found in one payload
type Error struct {
	Messages []string
}

// Error returns the first violation, which is what callers surface to users.
func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return e.Messages[0]
}

// IsValidation reports whether err is (or wraps) a validation failure
func IsValidation(err error) bool {
	var v *Error
	return errors.As(err, &v)
}

// Messages returns the violations carried by err, or nil
func Messages(err error) []string {
	var v *Error
	if errors.As(err, &v) {
		return v.Messages
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("personname", func(fl validator.FieldLevel) bool {
		return personNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("promocode", func(fl validator.FieldLevel) bool {
		return promoCodePattern.MatchString(fl.Field().String())
	})

	return v
}

// check runs the struct rules and converts failures into an *Error
func check(payload interface{}) error {
	err := validate.Struct(payload)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &Error{Messages: []string{err.Error()}}
	}

	messages := make([]string, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		messages = append(messages, fieldPath(fe)+": "+message(fe))
	}
	return &Error{Messages: messages}
}

// fieldPath drops the root struct name from the namespace: items[0].quantity
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " entry"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "personname":
		return "must contain only letters and spaces"
	case "phone":
		return "must contain only digits, spaces, parentheses, plus and hyphen"
	case "promocode":
		return "must contain only letters, digits, underscore and hyphen"
	}
	return "is invalid"
}

// collapse trims s and folds internal whitespace runs into single spaces
func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// stripMarkup removes control characters and angle brackets from free text
func stripMarkup(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch {
		case r == '<' || r == '>':
			return -1
		case r == '\n' || r == '\t':
			return r
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s))
}
