package handlers

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerValidatorsOnce sync.Once

// registerValidators adds the custom tags used by the query DTOs to Gin's validator.
func registerValidators() {
	registerValidatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("currency3", isCurrencyCode)
	})
}

// isCurrencyCode accepts three ASCII letters in either case.
func isCurrencyCode(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

// bindErrorMessage turns a query binding failure into a user-facing message.
func bindErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid query parameters"
	}
	// required failures win over format failures
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return "start_date and end_date are required"
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "datetime":
		return "Invalid date format. Use YYYY-MM-DD"
	case "currency3":
		return fmt.Sprintf("Invalid currency code: %v", fe.Value())
	default:
		return fmt.Sprintf("Invalid value for %s", fe.Field())
	}
}

// rangeLimitMessage renders the maximum range in years when it is a whole number of them.
func rangeLimitMessage(maxDays int) string {
	if maxDays%365 == 0 {
		years := maxDays / 365
		if years == 1 {
			return "Date range cannot exceed 1 year"
		}
		return fmt.Sprintf("Date range cannot exceed %d years", years)
	}
	return fmt.Sprintf("Date range cannot exceed %d days", maxDays)
}

func dayDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
