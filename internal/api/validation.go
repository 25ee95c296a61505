package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"filmorate/internal/domain"

	"github.com/go-playground/validator/v10"
)

// NewValidator создает валидатор с JSON-именами полей и правилом notblank.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.String {
			return true
		}
		return strings.TrimSpace(field.String()) != ""
	})
	return v
}

// translateValidationErrors превращает ошибки validator в список ValidationError.
func translateValidationErrors(err error) []domain.ValidationError {
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return []domain.ValidationError{{Field: "request", Message: err.Error()}}
	}
	out := make([]domain.ValidationError, 0, len(vErrs))
	for _, fe := range vErrs {
		out = append(out, domain.ValidationError{
			Field:         fieldPath(fe),
			Message:       validationMessage(fe),
			RejectedValue: rejectedValue(fe),
		})
	}
	return out
}

// fieldPath отрезает имя структуры запроса: "NewFilmRequest.mpa.id" -> "mpa.id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func rejectedValue(fe validator.FieldError) any {
	v := reflect.ValueOf(fe.Value())
	if !v.IsValid() {
		return nil
	}
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	return fe.Value()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must be provided"
	case "notblank":
		return "must not be blank"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' rule", fe.Tag())
	}
}
