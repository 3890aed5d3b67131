package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes caps JSON request bodies
const MaxBodyBytes = 1 << 20

// ErrMalformedBody is returned when a body is not valid JSON for the target type
var ErrMalformedBody = errors.New("malformed request body")

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report fields under their JSON names
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
}

// ValidateRequest validates the request body against a struct with validation tags
func ValidateRequest(v interface{}) error {
	return validate.Struct(v)
}

// DecodeAndValidate decodes JSON request body and validates it
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	return ValidateRequest(v)
}

// RespondWithDecodeError answers a DecodeAndValidate failure with 400
func RespondWithDecodeError(w http.ResponseWriter, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		RespondWithValidationErrors(w, FormatValidationErrors(err))
		return
	}
	RespondWithError(w, http.StatusBadRequest, "invalid request body")
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FormatValidationErrors lists one entry per failed field; other errors yield nil
func FormatValidationErrors(err error) []ValidationError {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return nil
	}
	out := make([]ValidationError, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		out = append(out, ValidationError{Field: fieldPath(e), Message: getErrorMessage(e)})
	}
	return out
}

// fieldPath drops the root struct name, e.g. "products[0].price"
func fieldPath(e validator.FieldError) string {
	ns := e.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return e.Field()
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"url":      "Invalid URL",
	"uuid":     "Invalid id",
}

var boundMessages = map[string]string{
	"oneof": "Value must be one of ",
	"gte":   "Value must be greater than or equal to ",
	"lte":   "Value must be less than or equal to ",
	"gt":    "Value must be greater than ",
	"lt":    "Value must be less than ",
}

func getErrorMessage(e validator.FieldError) string {
	if msg, ok := fixedMessages[e.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundMessages[e.Tag()]; ok {
		return prefix + e.Param()
	}

	// min and max bound the length of strings and slices, the value of numbers
	counted := e.Kind() == reflect.String || e.Kind() == reflect.Slice || e.Kind() == reflect.Map
	switch {
	case e.Tag() == "min" && counted:
		return "Must contain at least " + e.Param()
	case e.Tag() == "min":
		return "Value must be at least " + e.Param()
	case e.Tag() == "max" && counted:
		return "Must contain at most " + e.Param()
	case e.Tag() == "max":
		return "Value must be at most " + e.Param()
	}
	return "Invalid value"
}
