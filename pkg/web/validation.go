package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationErrors converts err into a field -> message map.
// The status is 400 when a required field is missing and 422 when a present value breaks a rule.
func ValidationErrors(err error) (int, map[string]string) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return http.StatusBadRequest, map[string]string{"body": "invalid request body"}
	}
	status := http.StatusUnprocessableEntity
	errorResponse := make(map[string]string, len(validationErrors))
	for _, fieldErr := range validationErrors {
		if fieldErr.Tag() == "required" {
			status = http.StatusBadRequest
		}
		field := fieldPath(fieldErr)
		errorResponse[field] = ruleMessage(field, fieldErr)
	}
	return status, errorResponse
}

// RespondValidationError writes the validation_errors body for err.
func RespondValidationError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, errorResponse := ValidationErrors(err)
	logger.Warn("Validation errors occurred", "errors", errorResponse)
	RespondJSON(w, logger, status, map[string]any{"validation_errors": errorResponse})
}

// fieldPath drops the top-level struct name from the namespace, e.g. "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func ruleMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%q must contain at least %s items", field, fe.Param())
		}
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%q must be greater than or equal to %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%q must be less than or equal to %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%q must be greater than %s", field, fe.Param())
	case "unique":
		return fmt.Sprintf("%q contains a duplicate value", field)
	default:
		return "failed on rule: " + fe.Tag()
	}
}
