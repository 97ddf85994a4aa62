package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Use JSON tag names in error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	// Earn-class ledger kinds accepted from the earnings endpoint
	validate.RegisterValidation("earn_kind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		validKinds := []string{"earn", "reward", "referral_bonus"}
		for _, k := range validKinds {
			if kind == k {
				return true
			}
		}
		return false
	})

	// Dispute resolution outcomes
	validate.RegisterValidation("dispute_resolution", func(fl validator.FieldLevel) bool {
		resolution := fl.Field().String()
		return resolution == "approved" || resolution == "rejected"
	})
}

// Validate validates a struct and returns a map of field errors
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errors := make(map[string]string)
	for _, err := range err.(validator.ValidationErrors) {
		field := err.Field()
		switch err.Tag() {
		case "required":
			errors[field] = "This field is required"
		case "uuid":
			errors[field] = "Must be a valid UUID"
		case "earn_kind":
			errors[field] = "Must be one of: earn, reward, referral_bonus"
		case "dispute_resolution":
			errors[field] = "Must be approved or rejected"
		case "gt":
			errors[field] = "Must be greater than " + err.Param()
		case "max":
			errors[field] = "Must be at most " + err.Param() + " characters"
		default:
			errors[field] = "Invalid value"
		}
	}
	return errors
}
