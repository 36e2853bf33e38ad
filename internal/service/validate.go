package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"divyashree/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
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

// validateStruct runs the struct's validate tags and reports the first
// failure as a validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return model.NewValidation("%s", fieldMessage(fieldErrs[0]))
	}
	return model.NewValidation("Invalid request")
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}

	kind := fe.Kind()
	sized := kind == reflect.String || kind == reflect.Slice || kind == reflect.Map

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "numeric":
		return fmt.Sprintf("%s must contain digits only", field)
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "min":
		if kind == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s items", field, fe.Param())
		}
		if sized {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if kind == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s items", field, fe.Param())
		}
		if sized {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func pageOf[T any](items []T, page, limit, total int) *model.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &model.Page[T]{Items: items, Pagination: model.NewPagination(page, limit, total)}
}
