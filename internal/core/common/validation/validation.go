package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	errors "github.com/ldelorme/crm-backoffice/internal"
)

var validate = validator.New()

var (
	emailPattern          = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	employeeNumberPattern = regexp.MustCompile(`^\d{6}$`)
	phonePattern          = regexp.MustCompile(`^\d{10}$`)
	upperPattern          = regexp.MustCompile(`[A-Z]`)
	lowerPattern          = regexp.MustCompile(`[a-z]`)
	digitPattern          = regexp.MustCompile(`[0-9]`)
)

func init() {
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister("email_format", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	mustRegister("employee_number", func(fl validator.FieldLevel) bool {
		return employeeNumberPattern.MatchString(fl.Field().String())
	})
	mustRegister("phone_digits", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister("password_complexity", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		if len(password) < 8 {
			return false
		}
		return upperPattern.MatchString(password) &&
			lowerPattern.MatchString(password) &&
			digitPattern.MatchString(password)
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %s: %v", tag, err))
	}
}

// ValidateStruct runs the tag rules on s and converts failures into a
// single validation error carrying one entry per offending field.
func ValidateStruct(s interface{}) *errors.AppError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error(), errors.ErrCodeValidationFailed)
	}

	validationErrors := make([]errors.ValidationError, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		validationErrors = append(validationErrors, errors.ValidationError{
			Field:   fe.Field(),
			Message: messageFor(fe),
			Code:    string(codeFor(fe)),
		})
	}
	return errors.NewValidationError("validation failed", errors.ErrCodeValidationFailed).
		WithDetails(errors.ValidationErrors{Errors: validationErrors})
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email_format", "email":
		return "invalid email format"
	case "employee_number":
		return "employee number must be exactly 6 digits"
	case "phone_digits":
		return "phone number must be exactly 10 digits"
	case "password_complexity":
		return "password must be at least 8 characters and contain an uppercase letter, a lowercase letter and a digit"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must not exceed %s characters", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("%s must not exceed %s", fe.Field(), fe.Param())
	case "gtfield":
		return fmt.Sprintf("%s must be after %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func codeFor(fe validator.FieldError) errors.ErrorCode {
	switch fe.Tag() {
	case "email_format", "email":
		return errors.ErrCodeInvalidEmail
	case "employee_number":
		return errors.ErrCodeInvalidEmployeeNumber
	case "phone_digits":
		return errors.ErrCodeInvalidPhone
	case "password_complexity":
		return errors.ErrCodeWeakPassword
	case "gtfield":
		return errors.ErrCodeInvalidDateRange
	case "oneof":
		return errors.ErrCodeInvalidDepartment
	default:
		return errors.ErrCodeValidationFailed
	}
}

// ValidateContractAmounts enforces 0 <= remaining <= total. Both the
// create and update paths call this with the values that would be
// persisted, never the stored ones.
func ValidateContractAmounts(total, remaining int64) *errors.AppError {
	if total < 0 {
		return errors.NewValidationFieldError("total_amount", "total amount must not be negative", errors.ErrCodeInvalidAmount)
	}
	if remaining < 0 {
		return errors.NewValidationFieldError("remaining_amount", "remaining amount must not be negative", errors.ErrCodeInvalidAmount)
	}
	if remaining > total {
		return errors.NewValidationFieldError("remaining_amount", "remaining amount must not exceed total amount", errors.ErrCodeInvalidAmount)
	}
	return nil
}

// ValidateEventDates enforces strict ordering of the event window.
func ValidateEventDates(start, end time.Time) *errors.AppError {
	if !end.After(start) {
		return errors.NewValidationFieldError("event_end_date", "end date must be after start date", errors.ErrCodeInvalidDateRange)
	}
	return nil
}
