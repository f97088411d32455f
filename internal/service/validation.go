package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sipal-api/internal/models"
	appErrors "github.com/noah-isme/sipal-api/pkg/errors"
)

// NewValidator returns a validator that reports JSON field names and knows
// the SIPAL-specific tags nim and phone_id.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("nim", func(fl validator.FieldLevel) bool {
		return models.ValidNIM(fl.Field().String())
	})
	_ = v.RegisterValidation("phone_id", func(fl validator.FieldLevel) bool {
		return models.ValidPhone(fl.Field().String())
	})
	return v
}

// validationFailed converts validator output into a VALIDATION_ERROR with
// per-field messages.
func validationFailed(err error, message string) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe)
		if _, exists := fields[name]; !exists {
			fields[name] = describeField(name, fe)
		}
	}
	out := appErrors.Validation(message, fields)
	out.Err = err
	return out
}

// invalidFields wraps model-level violations.
func invalidFields(message string, errs models.FieldErrors) error {
	return appErrors.Validation(message, errs)
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeField(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be a valid email address"
	case "nim":
		return name + " must be 8 digits"
	case "phone_id":
		return name + " must contain 9 to 15 digits"
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", name, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", name, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}
