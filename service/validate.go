package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kevinaaaquil/skillspark/apperr"
	"github.com/kevinaaaquil/skillspark/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// finite rejects NaN and ±Inf.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field()
		switch f.Kind() {
		case reflect.Float32, reflect.Float64:
			x := f.Float()
			return !math.IsNaN(x) && !math.IsInf(x, 0)
		}
		return true
	})
	return v
}

// validateBook checks book against the schema, skipping the Go field names in except.
// Coercion problems are reported first; a field that already has one gets no
// second message from the schema rules.
func validateBook(book *models.Book, problems []FieldProblem, except ...string) error {
	var msgs []string
	seen := make(map[string]bool, len(problems))
	for _, p := range problems {
		msgs = append(msgs, p.Message)
		seen[p.Field] = true
	}

	var err error
	if len(except) > 0 {
		err = validate.StructExcept(book, except...)
	} else {
		err = validate.Struct(book)
	}
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			if seen[fe.Field()] {
				continue
			}
			msgs = append(msgs, fieldMessage(fe))
		}
	default:
		return err
	}

	if len(msgs) > 0 {
		return apperr.Validation(msgs...)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "finite":
		return fmt.Sprintf("%s must be a number", fe.Field())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.Join(strings.Fields(fe.Param()), ", "))
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
