// Package validate holds the input formats shared by request binding and
// domain validation.
package validate

import (
	"fmt"
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9][0-9]{5}$`)
)

// Phone reports whether s is a 10-digit Indian mobile number.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// Pincode reports whether s is a 6-digit Indian postal code.
func Pincode(s string) bool {
	return pincodePattern.MatchString(s)
}

// RegisterBindings adds the "mobile" and "pincode" tags to gin's validator.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String())
	}); err != nil {
		return err
	}
	return v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
		return Pincode(fl.Field().String())
	})
}
