// Package validator wraps go-playground/validator with the error format used
// across the application and the custom tags needed to validate node
// configuration.
package validator

import (
	"errors"
	"fmt"
	"net/url"
	"slices"

	gvalidator "github.com/go-playground/validator/v10"
)

// ErrValidationFailed is the first error of the chain returned when validation fails.
var ErrValidationFailed = errors.New("struct validation failed")

const errStringFormat = "'%s': value '%v' does not meet the requirements for the '%s' validation"

var (
	// nodeURLSchemes lists the transports a node endpoint may use.
	nodeURLSchemes = []string{"ws", "wss", "http", "https"}

	// wsURLSchemes lists the transports able to carry subscriptions.
	wsURLSchemes = []string{"ws", "wss"}
)

var validator = newValidator()

func newValidator() *gvalidator.Validate {
	v := gvalidator.New(gvalidator.WithRequiredStructEnabled())

	// registration only fails on an empty tag or a nil func
	_ = v.RegisterValidation("nodeurl", urlWithScheme(nodeURLSchemes))
	_ = v.RegisterValidation("wsurl", urlWithScheme(wsURLSchemes))

	return v
}

// urlWithScheme accepts absolute URLs whose scheme is one of schemes.
func urlWithScheme(schemes []string) gvalidator.Func {
	return func(fl gvalidator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil || u.Host == "" {
			return false
		}

		return slices.Contains(schemes, u.Scheme)
	}
}

func formatError(err error) error {
	var validationErrors gvalidator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}

	errs := []error{ErrValidationFailed}
	for _, fieldErr := range validationErrors {
		errs = append(errs, fmt.Errorf(errStringFormat, fieldErr.Field(), fieldErr.Value(), fieldErr.Tag()))
	}

	return errors.Join(errs...)
}

// Validate checks v against its `validate` tags. On failure the returned error
// matches ErrValidationFailed and lists one message per offending field.
//
// Besides the built-in tags, `nodeurl` requires a ws, wss, http or https URL
// and `wsurl` a ws or wss URL.
func Validate(v any) error {
	if err := validator.Struct(v); err != nil {
		return formatError(err)
	}

	return nil
}
