// Package validator wraps go-playground/validator with the request rules the
// API uses and reports failures by JSON field path.
package validator

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// customRules are registered on first use alongside the built-in tags.
var customRules = map[string]validator.Func{
	// notblank rejects strings that are empty after trimming whitespace.
	"notblank": func(fl validator.FieldLevel) bool {
		field := fl.Field()
		return field.Kind() != reflect.String || strings.TrimSpace(field.String()) != ""
	},
	// https_url accepts absolute https URLs with a host, the only form a
	// browser push service hands out.
	"https_url": func(fl validator.FieldLevel) bool {
		u, err := url.Parse(strings.TrimSpace(fl.Field().String()))
		return err == nil && u.Scheme == "https" && u.Host != ""
	},
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		rule := err.Tag
		if err.Param != "" {
			rule += "=" + err.Param
		}
		parts[i] = err.Field + " failed on " + rule
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct applies the validate tags of s.
func ValidateStruct(s any) error {
	err := instance().Struct(s)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	failures := make(ValidationErrors, len(fieldErrs))
	for i, fe := range fieldErrs {
		failures[i] = ValidationError{Field: fieldPath(fe), Tag: fe.Tag(), Param: fe.Param()}
	}
	return failures
}

// RegisterValidation adds a custom rule.
func RegisterValidation(tag string, fn validator.Func) error {
	return instance().RegisterValidation(tag, fn)
}

// fieldPath drops the root struct name from the namespace, leaving the JSON
// path of the field ("keys.p256dh").
func fieldPath(fe validator.FieldError) string {
	if _, rest, ok := strings.Cut(fe.Namespace(), "."); ok {
		return rest
	}
	return fe.Field()
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		for tag, fn := range customRules {
			_ = validate.RegisterValidation(tag, fn)
		}
	})
	return validate
}
