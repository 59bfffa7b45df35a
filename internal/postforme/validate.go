package postforme

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const providerName = "postforme"

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks the structural constraints of a request: at least one account,
// non-empty account ids, media with valid URLs and a bounded caption.
func (r PostRequest) Validate() error {
	err := validatorInstance().Struct(r)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return ValidationError{Provider: providerName, Reason: err.Error()}
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, describe(fe))
	}
	return ValidationError{Provider: providerName, Reason: strings.Join(reasons, "; ")}
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "PostRequest.")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s exceeds %s characters", field, fe.Param())
	case "url":
		return fmt.Sprintf("%s is not a valid URL", field)
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
