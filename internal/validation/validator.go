// Package validation adapts go-playground/validator to echo.Validator and
// registers the field rules used by request bodies.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	cpfPattern   = regexp.MustCompile(`^[0-9]{11}$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,11}$`)
)

// Validator implements echo.Validator.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: time.Now}
	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return cpfPattern.MatchString(fl.Field().String())
	})
	_ = val.v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	// notfuture accepts an empty string; pair it with required when needed.
	_ = val.v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		d, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return false
		}
		return !d.After(val.now().UTC())
	})
	return val
}

func (v *Validator) Validate(i interface{}) error {
	if err := v.v.Struct(i); err != nil {
		return humanize(err)
	}
	return nil
}

// humanize turns the first field error into a short client-facing message.
func humanize(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", field)
	case "gte", "min":
		return fmt.Errorf("%s must be at least %s", field, fe.Param())
	case "cpf":
		return fmt.Errorf("%s must have exactly 11 digits", field)
	case "phone":
		return fmt.Errorf("%s must have 10 or 11 digits", field)
	case "notfuture":
		return fmt.Errorf("%s must be a past date in YYYY-MM-DD format", field)
	case "url", "uri":
		return fmt.Errorf("%s must be a valid URL", field)
	}
	return fmt.Errorf("%s is invalid", field)
}
