package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
)

// SupportedSchemaRange is the semver constraint a config file's schema_version must satisfy.
const SupportedSchemaRange = "^1"

// ErrInvalidConfig wraps every validation failure returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

func newValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Report yaml key names so messages match what the user wrote.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("schemaversion", func(fl validator.FieldLevel) bool {
		return schemaSupported(fl.Field().String())
	})

	return validate
}

func schemaSupported(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	constraint, err := semver.NewConstraint(SupportedSchemaRange)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}

// Validate checks c and returns an error wrapping ErrInvalidConfig that lists every
// failing field.
func (c *Config) Validate() error {
	var messages []string

	if err := newValidator().Struct(c); err != nil {
		var errs validator.ValidationErrors
		if !errors.As(err, &errs) {
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		for _, e := range errs {
			messages = append(messages, describeFieldError(e))
		}
	}

	if msg := c.Generation.checkDateOrder(); msg != "" {
		messages = append(messages, msg)
	}

	if len(messages) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(messages, "; "))
	}
	return nil
}

// checkDateOrder reports an empty [start_date, end_date) range. Unparseable dates are left to
// the datetime rule.
func (g GenerationConfig) checkDateOrder() string {
	start, err := time.Parse(time.DateOnly, g.StartDate)
	if err != nil {
		return ""
	}
	end, err := time.Parse(time.DateOnly, g.EndDate)
	if err != nil {
		return ""
	}
	if !end.After(start) {
		return fmt.Sprintf("generation.end_date %s must be after start_date %s", g.EndDate, g.StartDate)
	}
	return ""
}

func describeFieldError(e validator.FieldError) string {
	// Namespace starts with the root type name, which the user never typed.
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	msg := fmt.Sprintf("%s: failed rule %q", field, e.Tag())
	if e.Param() != "" {
		msg += fmt.Sprintf(" (expected %s)", e.Param())
	}
	if v := e.Value(); v != nil && v != "" {
		msg += fmt.Sprintf(", got %v", v)
	}
	return msg
}
