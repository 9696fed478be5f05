package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fitstride/fitstride/internal/core/domain"
)

var handlePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// validate is the shared validator instance for all façade write paths.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Handles are lowercase alphanumerics plus underscore; uniqueness is
	// checked separately against the backend.
	_ = v.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return handlePattern.MatchString(fl.Field().String())
	})
	return v
}

type credentialsInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8,max=72"`
}

type signUpInput struct {
	Email       string `validate:"required,email"`
	Password    string `validate:"required,min=8,max=72"`
	DisplayName string `validate:"max=60"`
}

type profileUpdateInput struct {
	Handle      *string  `validate:"omitempty,handle"`
	DisplayName *string  `validate:"omitempty,min=1,max=60"`
	Bio         *string  `validate:"omitempty,max=500"`
	BirthDate   *string  `validate:"omitempty,datetime=2006-01-02"`
	HeightCm    *float64 `validate:"omitempty,gt=0,lt=300"`
	WeightKg    *float64 `validate:"omitempty,gt=0,lt=500"`
	Goal        *string  `validate:"omitempty,oneof=lose_weight build_muscle stay_active endurance"`
}

// validateStruct runs the shared validator and converts failures into a
// single domain.ErrInvalidInput with human-readable field messages.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fieldError(fe))
		}
		return fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(msgs, "; "))
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "handle":
		return field + " must be 3-24 lowercase letters, digits or underscores"
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lt", "lte":
		return fmt.Sprintf("%s is out of range", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
