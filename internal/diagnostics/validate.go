package diagnostics

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/abelzeko/panchayat-water/internal/entities"
	"github.com/go-playground/validator/v10"
)

// ErrInvalidInput is returned by Validate when a reading breaks its contract
var ErrInvalidInput = errors.New("invalid input")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// NaN fails gte, but +Inf does not
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	v.RegisterStructValidation(validateComplaint, entities.Complaint{})
	return v
}

func validateComplaint(sl validator.StructLevel) {
	c := sl.Current().Interface().(entities.Complaint)
	if c.CreatedAt != nil && c.ResolvedAt != nil && c.ResolvedAt.Before(*c.CreatedAt) {
		sl.ReportError(c.ResolvedAt, "resolved_at", "ResolvedAt", "after_created_at", "")
	}
}

// Validate checks a reading (any of the entities.*Reading types or
// entities.HealthScoreInputs) before it is scored. The scorers themselves
// assume validated input.
func Validate(reading any) error {
	err := validate.Struct(reading)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
}
