package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"contestlens/pkg/contracts/domain"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("daterange", isDateRange)
	return v
}

func isDateRange(fl validator.FieldLevel) bool {
	_, err := domain.ParseDateRange(fl.Field().String())
	return err == nil
}

// check validates s and converts failures into a QueryError
func check(v *validator.Validate, s interface{}) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}

	qe := &QueryError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		qe.Fields[fe.Field()] = describe(fe)
	}
	return qe
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param()
	case "daterange":
		return fmt.Sprintf("unknown date range %q", fe.Value())
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
