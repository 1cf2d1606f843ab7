package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// US ZIP: 5 digits or ZIP+4
	reZIP   = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)
	reEmail = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ     = regexp.MustCompile(`^[A-Za-z0-9 _'\-]{1,50}$`)
	reCode  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = val.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})
	_ = val.RegisterValidation("zip", func(fl validator.FieldLevel) bool {
		return reZIP.MatchString(fl.Field().String())
	})
	return val
}

// Struct runs the tag rules on a request body.
func Struct(s any) error { return v.Struct(s) }

// FormatErrors flattens validator errors into field -> message. Other errors
// come back under the "body" key.
func FormatErrors(err error) map[string]string {
	out := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["body"] = err.Error()
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", field, fe.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", field, fe.Param())
		case "gt", "gte":
			out[field] = fmt.Sprintf("%s must be greater than %s", field, fe.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of %s", field, fe.Param())
		case "password":
			out[field] = "password must be at least 12 characters with upper, lower, digit and symbol"
		case "zip":
			out[field] = fmt.Sprintf("%s must be a US ZIP code", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return strings.ToLower(s), reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

// Code normalises a discount code to upper case.
func Code(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return strings.ToUpper(s), reCode.MatchString(s)
}

// Password requires 12+ characters mixing upper, lower, digit and symbol.
func Password(s string) bool {
	if len(s) < 12 || len(s) > 128 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
