package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

// Dominican Republic; dealership phone numbers are local.
var CountryCode = "DO"

var validate = validator.New()

// ValidateStruct runs go-playground tag validation on an input struct and
// maps failures onto the engine's validation error kind.
func ValidateStruct(input interface{}) error {
	if err := validate.Struct(input); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, ve := range verrs {
				return ValidationErrorf("field %s failed on %s", ve.Field(), ve.Tag())
			}
		}
		return ValidationErrorf("%v", err)
	}
	return nil
}

func ValidatePhoneNumber(phoneNumber, countryCode string) error {
	p, err := libphonenumber.Parse(phoneNumber, countryCode)
	if err != nil {
		return err
	}

	if !libphonenumber.IsValidNumber(p) {
		return fmt.Errorf("phone number is not valid")
	}

	return nil
}
