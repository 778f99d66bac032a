package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hisabapp/hisab/internal/errs"
)

// phonePattern accepts an optional leading +, an optional leading 1 and
// 9 to 15 digits.
var phonePattern = regexp.MustCompile(`^\+?1?\d{9,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	})
	return v
}

// IsPhone reports whether s matches the loose international phone pattern.
func IsPhone(s string) bool {
	return phonePattern.MatchString(s)
}

// Struct validates obj against its `validate` tags and returns one FieldError
// per failing field, or nil.
func Struct(obj any) []errs.FieldError {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []errs.FieldError{{Field: "", Message: err.Error(), Type: "invalid"}}
	}
	out := make([]errs.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errs.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
			Type:    fe.Tag(),
		})
	}
	return out
}

// Var validates a single value against tag, reporting failures under field.
func Var(field string, value any, tag string) []errs.FieldError {
	err := validate.Var(value, tag)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []errs.FieldError{{Field: field, Message: err.Error(), Type: "invalid"}}
	}
	out := make([]errs.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, errs.FieldError{Field: field, Message: message(fe), Type: fe.Tag()})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		return "Value is too short"
	case "max":
		return "Ensure this value has at most " + fe.Param() + " characters"
	case "gt":
		return "Value must be greater than " + fe.Param()
	case "gte":
		return "Value must be greater than or equal to " + fe.Param()
	case "oneof":
		return "Value must be one of: " + fe.Param()
	case "eqfield":
		return "The two password fields didn't match"
	case "phone":
		return "Phone number must be entered in the format: '+999999999'. Up to 15 digits allowed."
	default:
		return "Invalid value"
	}
}
