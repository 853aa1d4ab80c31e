// Package validation wraps go-playground/validator with the field rules shared by
// the user and inventory APIs.
//
// Custom tags:
//
//	username  5-10 characters of letters, digits, "." and "_"
//	phone     exactly 9 digits
//	password  6-20 characters of letters, digits and !@#$%^&*
//	otp       exactly 6 digits
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.]{5,10}$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{9}$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9!@#$%^&*]{6,20}$`)
	otpPattern      = regexp.MustCompile(`^[0-9]{6}$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names instead of Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})

		mustRegister(v, "username", usernamePattern)
		mustRegister(v, "phone", phonePattern)
		mustRegister(v, "password", passwordPattern)
		mustRegister(v, "otp", otpPattern)

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is returned by ValidateStruct when one or more fields are rejected.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, "; ")
}

// ValidateStruct validates s and translates validator errors into *Error.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return out
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "username":
		return field + " must be 5-10 characters of letters, numbers, \".\" or \"_\""
	case "phone":
		return field + " must be exactly 9 digits"
	case "password":
		return field + " must be 6-20 characters of letters, numbers or !@#$%^&*"
	case "otp":
		return field + " must be a 6-digit code"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "uuid4", "uuid":
		return field + " must be a valid UUID"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
